package repository

import (
	"connectify/internal/domain"
	"connectify/internal/records"
)

// Storage records use snake_case columns; domain types mirror the camelCase
// view model. These functions are the only place the two namings meet.

func userToRecord(u domain.User) records.Record {
	return records.Record{
		"id":              u.ID,
		"email":           u.Email,
		"username":        u.Username,
		"display_name":    u.DisplayName,
		"bio":             u.Bio,
		"avatar_url":      u.AvatarURL,
		"followers_count": u.FollowersCount,
		"following_count": u.FollowingCount,
		"posts_count":     u.PostsCount,
		"created_at":      u.CreatedAt.UTC(),
	}
}

func userFromRecord(r records.Record) domain.User {
	return domain.User{
		ID:             r.String("id"),
		Email:          r.String("email"),
		Username:       r.String("username"),
		DisplayName:    r.String("display_name"),
		Bio:            r.String("bio"),
		AvatarURL:      r.String("avatar_url"),
		FollowersCount: r.Int("followers_count"),
		FollowingCount: r.Int("following_count"),
		PostsCount:     r.Int("posts_count"),
		CreatedAt:      r.Time("created_at"),
	}
}

func profilePatchToRecord(p domain.ProfilePatch) records.Record {
	patch := records.Record{}
	if p.DisplayName != nil {
		patch["display_name"] = *p.DisplayName
	}
	if p.Bio != nil {
		patch["bio"] = *p.Bio
	}
	if p.AvatarURL != nil {
		patch["avatar_url"] = *p.AvatarURL
	}
	return patch
}

func postToRecord(p domain.Post) records.Record {
	var imageURL any
	if p.ImageURL != "" {
		imageURL = p.ImageURL
	}
	return records.Record{
		"id":             p.ID,
		"user_id":        p.UserID,
		"content":        p.Content,
		"image_url":      imageURL,
		"likes_count":    p.LikesCount,
		"comments_count": p.CommentsCount,
		"created_at":     p.CreatedAt.UTC(),
	}
}

func postFromRecord(r records.Record) domain.Post {
	return domain.Post{
		ID:            r.String("id"),
		UserID:        r.String("user_id"),
		Content:       r.String("content"),
		ImageURL:      r.String("image_url"),
		LikesCount:    r.Int("likes_count"),
		CommentsCount: r.Int("comments_count"),
		CreatedAt:     r.Time("created_at"),
	}
}

func likeToRecord(l domain.Like) records.Record {
	return records.Record{
		"id":         l.ID,
		"user_id":    l.UserID,
		"post_id":    l.PostID,
		"created_at": l.CreatedAt.UTC(),
	}
}

func likeFromRecord(r records.Record) domain.Like {
	return domain.Like{
		ID:        r.String("id"),
		UserID:    r.String("user_id"),
		PostID:    r.String("post_id"),
		CreatedAt: r.Time("created_at"),
	}
}

func accountToRecord(a domain.Account) records.Record {
	return records.Record{
		"id":            a.ID,
		"email":         a.Email,
		"password_hash": a.PasswordHash,
		"created_at":    a.CreatedAt.UTC(),
	}
}

func accountFromRecord(r records.Record) domain.Account {
	return domain.Account{
		ID:           r.String("id"),
		Email:        r.String("email"),
		PasswordHash: r.String("password_hash"),
		CreatedAt:    r.Time("created_at"),
	}
}

func toAnySlice(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
