package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectExists is returned by Upload when Upsert is false and the path is taken.
var ErrObjectExists = errors.New("object already exists")

// UploadOptions conveys per-object upload settings.
type UploadOptions struct {
	ContentType string
	Upsert      bool
}

// UploadResult describes a stored object.
type UploadResult struct {
	Path      string
	PublicURL string
}

// Service stores user media in remote object storage.
type Service interface {
	Upload(ctx context.Context, body io.Reader, path string, opts UploadOptions) (UploadResult, error)
	Delete(ctx context.Context, path string) error
}
