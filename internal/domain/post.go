package domain

import "time"

// MaxPostContentLength is counted in characters, not bytes.
const MaxPostContentLength = 500

// Post is a single entry in the feed.
type Post struct {
	ID            string
	UserID        string
	Content       string
	ImageURL      string
	LikesCount    int
	CommentsCount int
	CreatedAt     time.Time
}

// Like records that UserID liked PostID. At most one per pair.
type Like struct {
	ID        string
	UserID    string
	PostID    string
	CreatedAt time.Time
}

// FeedPost is a post enriched for a particular viewer.
type FeedPost struct {
	Post
	Author  User
	IsLiked bool
}

// LikeState is the outcome of a like toggle, applied by clients as a local delta.
type LikeState struct {
	PostID     string
	Liked      bool
	LikesCount int
}

// ImageUpload is an image attached to a new post.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}
