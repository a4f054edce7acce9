package http

import (
	"time"

	"connectify/internal/domain"
)

const timeLayout = time.RFC3339

type UserResponse struct {
	ID             string `json:"id"`
	Email          string `json:"email,omitempty"`
	Username       string `json:"username"`
	DisplayName    string `json:"displayName"`
	Bio            string `json:"bio"`
	AvatarURL      string `json:"avatarUrl"`
	FollowersCount int    `json:"followersCount"`
	FollowingCount int    `json:"followingCount"`
	PostsCount     int    `json:"postsCount"`
	CreatedAt      string `json:"createdAt,omitempty"`
}

type PostResponse struct {
	ID            string `json:"id"`
	UserID        string `json:"userId"`
	Content       string `json:"content"`
	ImageURL      string `json:"imageUrl,omitempty"`
	LikesCount    int    `json:"likesCount"`
	CommentsCount int    `json:"commentsCount"`
	CreatedAt     string `json:"createdAt"`
}

type FeedPostResponse struct {
	PostResponse
	Author  UserResponse `json:"author"`
	IsLiked bool         `json:"isLiked"`
}

type LikeStateResponse struct {
	PostID     string `json:"postId"`
	Liked      bool   `json:"liked"`
	LikesCount int    `json:"likesCount"`
}

type SessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// userToResponse omits the email unless the viewer owns the profile.
func userToResponse(u domain.User, self bool) UserResponse {
	resp := UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		DisplayName:    u.DisplayName,
		Bio:            u.Bio,
		AvatarURL:      u.AvatarURL,
		FollowersCount: u.FollowersCount,
		FollowingCount: u.FollowingCount,
		PostsCount:     u.PostsCount,
	}
	if self {
		resp.Email = u.Email
	}
	if !u.CreatedAt.IsZero() {
		resp.CreatedAt = u.CreatedAt.UTC().Format(timeLayout)
	}
	return resp
}

func postToResponse(p domain.Post) PostResponse {
	return PostResponse{
		ID:            p.ID,
		UserID:        p.UserID,
		Content:       p.Content,
		ImageURL:      p.ImageURL,
		LikesCount:    p.LikesCount,
		CommentsCount: p.CommentsCount,
		CreatedAt:     p.CreatedAt.UTC().Format(timeLayout),
	}
}

func feedPostToResponse(fp domain.FeedPost) FeedPostResponse {
	return FeedPostResponse{
		PostResponse: postToResponse(fp.Post),
		Author:       userToResponse(fp.Author, false),
		IsLiked:      fp.IsLiked,
	}
}
