package service

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"connectify/internal/apperror"
	"connectify/internal/domain"
	"connectify/internal/repository"
	"connectify/internal/storage"
)

const maxFilenameLength = 100

// PostService creates posts and lists a user's posts.
type PostService interface {
	CreatePost(ctx context.Context, authorID, content string, image *domain.ImageUpload) (*domain.Post, error)
	ListUserPosts(ctx context.Context, userID string) ([]domain.Post, error)
}

type postService struct {
	store    repository.Store
	media    storage.Service
	pageSize int
	logger   *logrus.Logger
	now      func() time.Time
}

// NewPostService wires the post service. media may be nil, in which case
// posts with images are rejected.
func NewPostService(store repository.Store, media storage.Service, pageSize int, logger *logrus.Logger) PostService {
	if pageSize <= 0 {
		pageSize = DefaultFeedSize
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &postService{
		store:    store,
		media:    media,
		pageSize: pageSize,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *postService) CreatePost(ctx context.Context, authorID, content string, image *domain.ImageUpload) (*domain.Post, error) {
	authorID = strings.TrimSpace(authorID)
	if authorID == "" {
		return nil, apperror.Unauthenticated("sign in to continue")
	}

	content = strings.TrimSpace(content)
	hasImage := image != nil && len(image.Data) > 0
	if content == "" && !hasImage {
		return nil, apperror.ValidationFailed("content", "Please add some content or an image to your post.")
	}
	if utf8.RuneCountInString(content) > domain.MaxPostContentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("post must be %d characters or less", domain.MaxPostContentLength))
	}

	var uploaded *storage.UploadResult
	if hasImage {
		if s.media == nil {
			return nil, apperror.ValidationFailed("image", "image uploads are not available")
		}
		mtype := mimetype.Detect(image.Data)
		if !strings.HasPrefix(mtype.String(), "image/") {
			return nil, apperror.ValidationFailed("image", "attachment must be an image")
		}

		path := fmt.Sprintf("posts/%d_%s", s.now().UnixMilli(), sanitizeFilename(image.Filename, mtype.Extension()))
		res, err := s.media.Upload(ctx, bytes.NewReader(image.Data), path, storage.UploadOptions{
			ContentType: mtype.String(),
			Upsert:      true,
		})
		if err != nil {
			s.logger.WithError(err).WithField("author_id", authorID).Error("failed to upload post image")
			return nil, fmt.Errorf("upload image: %w", err)
		}
		uploaded = &res
	}

	post := &domain.Post{
		ID:      uuid.NewString(),
		UserID:  authorID,
		Content: content,
	}
	if uploaded != nil {
		post.ImageURL = uploaded.PublicURL
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.CreatePost(ctx, post); err != nil {
			return err
		}
		return tx.IncrementPostsCount(ctx, authorID, 1)
	})
	if err != nil {
		s.logger.WithError(err).WithField("author_id", authorID).Error("failed to create post")
		if uploaded != nil {
			s.discardUpload(ctx, uploaded.Path)
		}
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"post_id": post.ID, "author_id": authorID, "has_image": uploaded != nil}).Info("post created")
	return post, nil
}

func (s *postService) discardUpload(ctx context.Context, path string) {
	if err := s.media.Delete(context.WithoutCancel(ctx), path); err != nil {
		s.logger.WithError(err).WithField("path", path).Warn("failed to remove orphaned upload")
	}
}

func (s *postService) ListUserPosts(ctx context.Context, userID string) ([]domain.Post, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	posts, err := s.store.PostsByUser(ctx, userID, s.pageSize)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("failed to list user posts")
		return nil, fmt.Errorf("list user posts: %w", err)
	}
	return posts, nil
}

// sanitizeFilename keeps the base name's safe characters and falls back to
// "image" plus the detected extension.
func sanitizeFilename(name, ext string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	clean := strings.Trim(b.String(), "._")
	if clean == "" {
		clean = "image" + ext
	}
	if len(clean) > maxFilenameLength {
		clean = clean[len(clean)-maxFilenameLength:]
	}
	return clean
}
