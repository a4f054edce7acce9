package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"connectify/internal/apperror"
	"connectify/internal/domain"
	"connectify/internal/records"
)

type recordStore struct {
	rs records.Store
}

// New wraps a record store with typed repositories.
func New(rs records.Store) Store {
	return &recordStore{rs: rs}
}

func (s *recordStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return s.rs.WithinTx(ctx, func(tx records.Store) error {
		return fn(&recordStore{rs: tx})
	})
}

func (s *recordStore) first(ctx context.Context, collection string, where ...records.Cond) (records.Record, bool, error) {
	recs, err := s.rs.List(ctx, collection, records.Query{Where: where, Limit: 1})
	if err != nil {
		return nil, false, err
	}
	if len(recs) == 0 {
		return nil, false, nil
	}
	return recs[0], true, nil
}

func (s *recordStore) CreateUser(ctx context.Context, user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if _, err := s.rs.Create(ctx, records.Users, userToRecord(*user)); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *recordStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	rec, ok, err := s.first(ctx, records.Users, records.Eq("id", id))
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	user := userFromRecord(rec)
	return &user, nil
}

func (s *recordStore) UsersByIDs(ctx context.Context, ids []string) (map[string]domain.User, error) {
	users := make(map[string]domain.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	recs, err := s.rs.List(ctx, records.Users, records.Query{
		Where: []records.Cond{records.In("id", toAnySlice(ids)...)},
	})
	if err != nil {
		return nil, fmt.Errorf("list users by id: %w", err)
	}
	for _, rec := range recs {
		u := userFromRecord(rec)
		users[u.ID] = u
	}
	return users, nil
}

func (s *recordStore) UpdateUser(ctx context.Context, id string, patch domain.ProfilePatch) error {
	rec := profilePatchToRecord(patch)
	if len(rec) == 0 {
		return nil
	}
	if err := s.rs.Update(ctx, records.Users, id, rec); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (s *recordStore) IncrementPostsCount(ctx context.Context, userID string, delta int) error {
	if err := s.rs.Increment(ctx, records.Users, userID, "posts_count", delta); err != nil {
		return fmt.Errorf("adjust posts count: %w", err)
	}
	return nil
}

func (s *recordStore) CreatePost(ctx context.Context, post *domain.Post) error {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	if _, err := s.rs.Create(ctx, records.Posts, postToRecord(*post)); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (s *recordStore) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	rec, ok, err := s.first(ctx, records.Posts, records.Eq("id", id))
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if !ok {
		return nil, apperror.NotFound("post", id)
	}
	post := postFromRecord(rec)
	return &post, nil
}

func (s *recordStore) RecentPosts(ctx context.Context, limit int) ([]domain.Post, error) {
	return s.listPosts(ctx, records.Query{OrderBy: "created_at", Descending: true, Limit: limit})
}

func (s *recordStore) PostsByUser(ctx context.Context, userID string, limit int) ([]domain.Post, error) {
	return s.listPosts(ctx, records.Query{
		Where:      []records.Cond{records.Eq("user_id", userID)},
		OrderBy:    "created_at",
		Descending: true,
		Limit:      limit,
	})
}

func (s *recordStore) listPosts(ctx context.Context, q records.Query) ([]domain.Post, error) {
	recs, err := s.rs.List(ctx, records.Posts, q)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	posts := make([]domain.Post, 0, len(recs))
	for _, rec := range recs {
		posts = append(posts, postFromRecord(rec))
	}
	return posts, nil
}

func (s *recordStore) IncrementLikesCount(ctx context.Context, postID string, delta int) error {
	if err := s.rs.Increment(ctx, records.Posts, postID, "likes_count", delta); err != nil {
		return fmt.Errorf("adjust likes count: %w", err)
	}
	return nil
}

func (s *recordStore) CreateLike(ctx context.Context, like *domain.Like) error {
	if like.CreatedAt.IsZero() {
		like.CreatedAt = time.Now().UTC()
	}
	if _, err := s.rs.Create(ctx, records.Likes, likeToRecord(*like)); err != nil {
		return fmt.Errorf("create like: %w", err)
	}
	return nil
}

func (s *recordStore) FindLike(ctx context.Context, userID, postID string) (*domain.Like, error) {
	rec, ok, err := s.first(ctx, records.Likes, records.Eq("user_id", userID), records.Eq("post_id", postID))
	if err != nil {
		return nil, fmt.Errorf("find like: %w", err)
	}
	if !ok {
		return nil, apperror.NotFound("like", userID+"/"+postID)
	}
	like := likeFromRecord(rec)
	return &like, nil
}

func (s *recordStore) LikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	liked := make(map[string]bool, len(postIDs))
	if len(postIDs) == 0 {
		return liked, nil
	}
	recs, err := s.rs.List(ctx, records.Likes, records.Query{
		Where: []records.Cond{records.Eq("user_id", userID), records.In("post_id", toAnySlice(postIDs)...)},
	})
	if err != nil {
		return nil, fmt.Errorf("list likes: %w", err)
	}
	for _, rec := range recs {
		liked[rec.String("post_id")] = true
	}
	return liked, nil
}

func (s *recordStore) DeleteLike(ctx context.Context, id string) error {
	if err := s.rs.Delete(ctx, records.Likes, id); err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	return nil
}

func (s *recordStore) CreateAccount(ctx context.Context, account *domain.Account) error {
	account.Email = normalizeEmail(account.Email)
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	if _, err := s.rs.Create(ctx, records.Accounts, accountToRecord(*account)); err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *recordStore) AccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	email = normalizeEmail(email)
	rec, ok, err := s.first(ctx, records.Accounts, records.Eq("email", email))
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if !ok {
		return nil, apperror.NotFound("account", email)
	}
	account := accountFromRecord(rec)
	return &account, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
