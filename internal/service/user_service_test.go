package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connectify/internal/apperror"
	"connectify/internal/auth"
	"connectify/internal/domain"
	"connectify/internal/repository"
)

func newUserService(t *testing.T, registerSecret string) (UserService, repository.Store, *auth.Notifier) {
	t.Helper()
	store := newTestStore(t)
	tokens, err := auth.NewTokenService("0123456789abcdef-test", time.Hour)
	require.NoError(t, err)
	notifier := auth.NewNotifier()
	return NewUserService(store, tokens, notifier, registerSecret, quietLogger()), store, notifier
}

func strPtr(s string) *string { return &s }

func TestRegisterAndSignInProvisionsProfile(t *testing.T) {
	ctx := context.Background()
	svc, store, notifier := newUserService(t, "")

	var seen []auth.State
	notifier.OnAuthStateChanged(func(_ context.Context, st auth.State) error {
		seen = append(seen, st)
		return nil
	})

	id, err := svc.Register(ctx, " Ada@Example.com ", "correct horse", "")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", id.Email)

	_, err = store.GetUser(ctx, id.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound, "profile is created lazily")

	session, err := svc.SignIn(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, id.ID, session.User.ID)
	assert.Equal(t, "ada", session.User.Username)
	assert.Equal(t, "ada", session.User.DisplayName)
	assert.Empty(t, session.User.Bio)
	assert.Zero(t, session.User.PostsCount)

	require.Len(t, seen, 1)
	require.NotNil(t, seen[0].User)
	assert.Equal(t, id, *seen[0].User)
	assert.False(t, seen[0].IsLoading)

	got, err := svc.Authenticate(session.Token)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	// a second sign-in keeps the existing profile
	again, err := svc.SignIn(ctx, "ADA@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, again.User.ID)
}

func TestSignOutPublishesSignedOutState(t *testing.T) {
	ctx := context.Background()
	svc, _, notifier := newUserService(t, "")

	var seen []auth.State
	notifier.OnAuthStateChanged(func(_ context.Context, st auth.State) error {
		seen = append(seen, st)
		return nil
	})

	_, err := svc.Register(ctx, "ada@example.com", "correct horse", "")
	require.NoError(t, err)
	session, err := svc.SignIn(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(ctx, domain.Identity{ID: session.User.ID, Email: session.User.Email}))
	require.Len(t, seen, 2)
	assert.NotNil(t, seen[0].User)
	assert.Nil(t, seen[1].User)
	assert.False(t, seen[1].IsLoading)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newUserService(t, "")

	_, err := svc.Register(ctx, "not-an-email", "password123", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Register(ctx, "a@example.com", "short", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Register(ctx, "a@example.com", strings.Repeat("x", auth.MaxPasswordLength+1), "")
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, "password", appErr.Field)

	_, err = svc.Register(ctx, "max@example.com", strings.Repeat("x", auth.MaxPasswordLength), "")
	assert.NoError(t, err)

	_, err = svc.Register(ctx, "a@example.com", "password123", "")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "A@example.com", "password123", "")
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestRegisterSecret(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newUserService(t, "letmein")

	_, err := svc.Register(ctx, "a@example.com", "password123", "wrong")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.Register(ctx, "a@example.com", "password123", "letmein")
	assert.NoError(t, err)
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newUserService(t, "")
	_, err := svc.Register(ctx, "a@example.com", "password123", "")
	require.NoError(t, err)

	_, err = svc.SignIn(ctx, "a@example.com", "password124")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	_, err = svc.SignIn(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	svc, _, _ := newUserService(t, "")
	_, err := svc.Authenticate("")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	_, err = svc.Authenticate("not.a.token")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestEnsureProfileIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newUserService(t, "")
	id := domain.Identity{ID: "u1", Email: "grace@example.com"}

	first, err := svc.EnsureProfile(ctx, id)
	require.NoError(t, err)
	second, err := svc.EnsureProfile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "grace", second.Username)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newUserService(t, "")
	_, err := svc.EnsureProfile(ctx, domain.Identity{ID: "u1", Email: "grace@example.com"})
	require.NoError(t, err)

	user, err := svc.UpdateProfile(ctx, "u1", domain.ProfilePatch{
		DisplayName: strPtr("  Grace Hopper "),
		Bio:         strPtr("compilers"),
		AvatarURL:   strPtr("https://cdn.example.com/g.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", user.DisplayName)
	assert.Equal(t, "compilers", user.Bio)
	assert.Equal(t, "https://cdn.example.com/g.png", user.AvatarURL)
	assert.Equal(t, "grace", user.Username)

	tests := []struct {
		name  string
		patch domain.ProfilePatch
		field string
	}{
		{"blank display name", domain.ProfilePatch{DisplayName: strPtr(" ")}, "displayName"},
		{"long display name", domain.ProfilePatch{DisplayName: strPtr(strings.Repeat("x", 51))}, "displayName"},
		{"long bio", domain.ProfilePatch{Bio: strPtr(strings.Repeat("x", 161))}, "bio"},
		{"bad avatar", domain.ProfilePatch{AvatarURL: strPtr("ftp://example.com/a.png")}, "avatarUrl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateProfile(ctx, "u1", tt.patch)
			appErr, ok := apperror.As(err)
			require.True(t, ok)
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}

	_, err = svc.UpdateProfile(ctx, "missing", domain.ProfilePatch{Bio: strPtr("hi")})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGetProfile(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newUserService(t, "")
	_, err := svc.GetProfile(ctx, "u1")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.EnsureProfile(ctx, domain.Identity{ID: "u1", Email: "x@example.com"})
	require.NoError(t, err)
	user, err := svc.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "x", user.Username)
}
