package repository

import (
	"context"

	"connectify/internal/domain"
)

// UserRepository exposes persistence operations for User profiles.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	UsersByIDs(ctx context.Context, ids []string) (map[string]domain.User, error)
	UpdateUser(ctx context.Context, id string, patch domain.ProfilePatch) error
	IncrementPostsCount(ctx context.Context, userID string, delta int) error
}

// PostRepository exposes persistence operations for Posts.
type PostRepository interface {
	CreatePost(ctx context.Context, post *domain.Post) error
	GetPost(ctx context.Context, id string) (*domain.Post, error)
	RecentPosts(ctx context.Context, limit int) ([]domain.Post, error)
	PostsByUser(ctx context.Context, userID string, limit int) ([]domain.Post, error)
	IncrementLikesCount(ctx context.Context, postID string, delta int) error
}

// LikeRepository manages Like records.
type LikeRepository interface {
	CreateLike(ctx context.Context, like *domain.Like) error
	FindLike(ctx context.Context, userID, postID string) (*domain.Like, error)
	LikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error)
	DeleteLike(ctx context.Context, id string) error
}

// AccountRepository manages sign-in accounts.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *domain.Account) error
	AccountByEmail(ctx context.Context, email string) (*domain.Account, error)
}

// Store bundles the repositories over one record store. Repositories handed
// to a WithinTx callback share a single transaction.
type Store interface {
	UserRepository
	PostRepository
	LikeRepository
	AccountRepository
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
