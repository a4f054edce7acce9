package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"connectify/internal/apperror"
	"connectify/internal/domain"
	"connectify/internal/repository"
)

// DefaultFeedSize is the number of posts a feed load returns.
const DefaultFeedSize = 50

// FeedService assembles the viewer's feed and applies like toggles.
type FeedService interface {
	LoadFeed(ctx context.Context, viewerID string) ([]domain.FeedPost, error)
	ToggleLike(ctx context.Context, viewerID, postID string, currentlyLiked bool) (domain.LikeState, error)
}

type feedService struct {
	store    repository.Store
	pageSize int
	logger   *logrus.Logger
}

func NewFeedService(store repository.Store, pageSize int, logger *logrus.Logger) FeedService {
	if pageSize <= 0 {
		pageSize = DefaultFeedSize
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &feedService{
		store:    store,
		pageSize: pageSize,
		logger:   logger,
	}
}

// LoadFeed returns the most recent posts, newest first, each with its author
// and the viewer's like status. Any lookup failure fails the whole load.
func (s *feedService) LoadFeed(ctx context.Context, viewerID string) ([]domain.FeedPost, error) {
	viewerID = strings.TrimSpace(viewerID)
	if viewerID == "" {
		return nil, apperror.Unauthenticated("sign in to continue")
	}

	posts, err := s.store.RecentPosts(ctx, s.pageSize)
	if err != nil {
		s.logger.WithError(err).Error("failed to load feed posts")
		return nil, fmt.Errorf("load feed: %w", err)
	}
	if len(posts) == 0 {
		return []domain.FeedPost{}, nil
	}

	postIDs := make([]string, len(posts))
	authorIDs := make([]string, 0, len(posts))
	seen := make(map[string]struct{}, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
		if _, ok := seen[p.UserID]; !ok {
			seen[p.UserID] = struct{}{}
			authorIDs = append(authorIDs, p.UserID)
		}
	}

	var (
		authors map[string]domain.User
		liked   map[string]bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		authors, err = s.store.UsersByIDs(gctx, authorIDs)
		return err
	})
	g.Go(func() error {
		var err error
		liked, err = s.store.LikedPostIDs(gctx, viewerID, postIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.WithError(err).WithField("viewer_id", viewerID).Error("failed to enrich feed")
		return nil, fmt.Errorf("load feed: %w", err)
	}

	feed := make([]domain.FeedPost, len(posts))
	for i, p := range posts {
		author, ok := authors[p.UserID]
		if !ok {
			author = domain.UnknownUser(p.UserID)
		}
		feed[i] = domain.FeedPost{Post: p, Author: author, IsLiked: liked[p.ID]}
	}
	return feed, nil
}

// ToggleLike likes or unlikes postID for the viewer. The Like record and the
// post's likes counter change in one transaction.
func (s *feedService) ToggleLike(ctx context.Context, viewerID, postID string, currentlyLiked bool) (domain.LikeState, error) {
	viewerID = strings.TrimSpace(viewerID)
	postID = strings.TrimSpace(postID)
	if viewerID == "" {
		return domain.LikeState{}, apperror.Unauthenticated("sign in to continue")
	}
	if postID == "" {
		return domain.LikeState{}, apperror.ValidationFailed("postId", "post ID is required")
	}

	var state domain.LikeState
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.GetPost(ctx, postID); err != nil {
			return err
		}

		if currentlyLiked {
			if err := unlike(ctx, tx, viewerID, postID); err != nil {
				return err
			}
		} else {
			like := &domain.Like{ID: uuid.NewString(), UserID: viewerID, PostID: postID}
			if err := tx.CreateLike(ctx, like); err != nil {
				return err
			}
			if err := tx.IncrementLikesCount(ctx, postID, 1); err != nil {
				return err
			}
		}

		post, err := tx.GetPost(ctx, postID)
		if err != nil {
			return err
		}
		state = domain.LikeState{PostID: postID, Liked: !currentlyLiked, LikesCount: post.LikesCount}
		return nil
	})
	if err != nil {
		fields := logrus.Fields{"viewer_id": viewerID, "post_id": postID, "currently_liked": currentlyLiked}
		if _, ok := apperror.As(err); ok {
			s.logger.WithFields(fields).WithError(err).Warn("like toggle rejected")
		} else {
			s.logger.WithFields(fields).WithError(err).Error("failed to toggle like")
		}
		return domain.LikeState{}, fmt.Errorf("toggle like: %w", err)
	}
	return state, nil
}

func unlike(ctx context.Context, tx repository.Store, viewerID, postID string) error {
	like, err := tx.FindLike(ctx, viewerID, postID)
	if errors.Is(err, apperror.ErrNotFound) {
		// nothing to undo
		return nil
	}
	if err != nil {
		return err
	}
	if err := tx.DeleteLike(ctx, like.ID); err != nil {
		return err
	}
	return tx.IncrementLikesCount(ctx, postID, -1)
}
