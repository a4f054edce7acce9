package records

import (
	"fmt"
	"slices"
)

// Schema describes the columns a collection accepts. Column names are
// interpolated into SQL, so every name reaching a backend is checked here.
type Schema struct {
	Columns  []string
	Counters []string
}

var schemas = map[string]Schema{
	Users: {
		Columns: []string{"id", "email", "username", "display_name", "bio", "avatar_url",
			"followers_count", "following_count", "posts_count", "created_at"},
		Counters: []string{"followers_count", "following_count", "posts_count"},
	},
	Posts: {
		Columns:  []string{"id", "user_id", "content", "image_url", "likes_count", "comments_count", "created_at"},
		Counters: []string{"likes_count", "comments_count"},
	},
	Likes: {
		Columns: []string{"id", "user_id", "post_id", "created_at"},
	},
	Accounts: {
		Columns: []string{"id", "email", "password_hash", "created_at"},
	},
}

// Lookup returns the schema of a known collection.
func Lookup(collection string) (Schema, error) {
	s, ok := schemas[collection]
	if !ok {
		return Schema{}, fmt.Errorf("unknown collection %q", collection)
	}
	return s, nil
}

func (s Schema) HasColumn(name string) bool {
	return slices.Contains(s.Columns, name)
}

func (s Schema) IsCounter(name string) bool {
	return slices.Contains(s.Counters, name)
}
