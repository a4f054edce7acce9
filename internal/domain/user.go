package domain

import "time"

// User is the public profile of an authenticated identity.
type User struct {
	ID             string
	Email          string
	Username       string
	DisplayName    string
	Bio            string
	AvatarURL      string
	FollowersCount int
	FollowingCount int
	PostsCount     int
	CreatedAt      time.Time
}

// Account is the sign-in record behind a User. Account.ID == User.ID.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Identity is what the auth layer knows about a signed-in caller.
type Identity struct {
	ID    string
	Email string
}

// ProfilePatch carries the editable profile fields; nil means unchanged.
type ProfilePatch struct {
	DisplayName *string
	Bio         *string
	AvatarURL   *string
}

// UnknownUser is the author placeholder used when a post's author profile is missing.
func UnknownUser(id string) User {
	return User{
		ID:          id,
		Username:    "unknown",
		DisplayName: "Unknown user",
	}
}
