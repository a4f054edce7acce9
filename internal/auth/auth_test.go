package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connectify/internal/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, CheckPassword(hash, "correct horse"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrPasswordMismatch)
}

func TestNewTokenServiceRejectsWeakConfig(t *testing.T) {
	_, err := NewTokenService("short", time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService(testSecret, 0)
	assert.Error(t, err)
}

func TestTokenIssueAndValidate(t *testing.T) {
	svc, err := NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)

	token, expires, err := svc.Issue(domain.Identity{ID: "u1", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	id, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{ID: "u1", Email: "ada@example.com"}, id)
}

func TestTokenValidateRejects(t *testing.T) {
	svc, err := NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)
	other, err := NewTokenService("another-secret-of-enough-length", time.Hour)
	require.NoError(t, err)

	foreign, _, err := other.Issue(domain.Identity{ID: "u1"})
	require.NoError(t, err)

	expiredSvc, err := NewTokenService(testSecret, time.Minute)
	require.NoError(t, err)
	expiredSvc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := expiredSvc.Issue(domain.Identity{ID: "u1"})
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"expired":      expired,
		"empty":        "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Validate(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNotifierDeliversInOrder(t *testing.T) {
	n := NewNotifier()
	var got []string

	n.OnAuthStateChanged(func(_ context.Context, s State) error {
		got = append(got, "first:"+s.User.ID)
		return nil
	})
	n.OnAuthStateChanged(func(_ context.Context, s State) error {
		got = append(got, "second:"+s.User.ID)
		return nil
	})

	require.NoError(t, n.Publish(context.Background(), State{User: &domain.Identity{ID: "u1"}}))
	assert.Equal(t, []string{"first:u1", "second:u1"}, got)
}

func TestNotifierUnsubscribe(t *testing.T) {
	n := NewNotifier()
	calls := 0
	unsubscribe := n.OnAuthStateChanged(func(context.Context, State) error {
		calls++
		return nil
	})

	require.NoError(t, n.Publish(context.Background(), State{}))
	unsubscribe()
	unsubscribe() // idempotent
	require.NoError(t, n.Publish(context.Background(), State{}))

	assert.Equal(t, 1, calls)
}

func TestNotifierJoinsErrors(t *testing.T) {
	n := NewNotifier()
	errA := errors.New("a")
	errB := errors.New("b")
	n.OnAuthStateChanged(func(context.Context, State) error { return errA })
	n.OnAuthStateChanged(func(context.Context, State) error { return nil })
	n.OnAuthStateChanged(func(context.Context, State) error { return errB })

	err := n.Publish(context.Background(), State{IsLoading: true})
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}
