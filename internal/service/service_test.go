package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"connectify/internal/domain"
	"connectify/internal/records"
	"connectify/internal/records/sqlite"
	"connectify/internal/repository"
	"connectify/internal/storage"
)

var errInjected = errors.New("injected failure")

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newRecordStore(t *testing.T) *sqlite.Store {
	t.Helper()
	rs, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { rs.Close() })
	require.NoError(t, rs.Init(context.Background()))
	return rs
}

func newTestStore(t *testing.T) repository.Store {
	t.Helper()
	return repository.New(newRecordStore(t))
}

// faultyStore fails List, Create or Increment for one collection.
type faultyStore struct {
	records.Store
	failList      string
	failCreate    string
	failIncrement string
}

func (f *faultyStore) List(ctx context.Context, collection string, q records.Query) ([]records.Record, error) {
	if collection == f.failList {
		return nil, errInjected
	}
	return f.Store.List(ctx, collection, q)
}

func (f *faultyStore) Create(ctx context.Context, collection string, rec records.Record) (records.Record, error) {
	if collection == f.failCreate {
		return nil, errInjected
	}
	return f.Store.Create(ctx, collection, rec)
}

func (f *faultyStore) Increment(ctx context.Context, collection, id, field string, delta int) error {
	if collection == f.failIncrement {
		return errInjected
	}
	return f.Store.Increment(ctx, collection, id, field, delta)
}

func (f *faultyStore) WithinTx(ctx context.Context, fn func(records.Store) error) error {
	return f.Store.WithinTx(ctx, func(tx records.Store) error {
		return fn(&faultyStore{Store: tx, failList: f.failList, failCreate: f.failCreate, failIncrement: f.failIncrement})
	})
}

type fakeMedia struct {
	mu        sync.Mutex
	uploads   []string
	deleted   []string
	opts      []storage.UploadOptions
	uploadErr error
	deleteErr error
}

func (m *fakeMedia) Upload(_ context.Context, body io.Reader, path string, opts storage.UploadOptions) (storage.UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := io.ReadAll(body); err != nil {
		return storage.UploadResult{}, err
	}
	m.uploads = append(m.uploads, path)
	m.opts = append(m.opts, opts)
	if m.uploadErr != nil {
		return storage.UploadResult{}, m.uploadErr
	}
	return storage.UploadResult{
		Path:      path,
		PublicURL: "https://cdn.example.com/public/media/" + path + "?v=1",
	}, nil
}

func (m *fakeMedia) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, path)
	return m.deleteErr
}

func (m *fakeMedia) uploadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.uploads)
}

func seedUser(t *testing.T, store repository.Store, id string) {
	t.Helper()
	require.NoError(t, store.CreateUser(context.Background(), &domain.User{
		ID:          id,
		Email:       id + "@example.com",
		Username:    id,
		DisplayName: id,
	}))
}

func seedPost(t *testing.T, store repository.Store, id, userID string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, store.CreatePost(context.Background(), &domain.Post{
		ID:        id,
		UserID:    userID,
		Content:   "post " + id,
		CreatedAt: createdAt,
	}))
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
