package records

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectStatement(t *testing.T) {
	tests := []struct {
		name     string
		ph       Placeholder
		q        Query
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "recent posts",
			ph:       QuestionMark,
			q:        Query{OrderBy: "created_at", Descending: true, Limit: 50},
			wantSQL:  "SELECT id, user_id, content, image_url, likes_count, comments_count, created_at FROM posts ORDER BY created_at DESC, id DESC LIMIT ?",
			wantArgs: []any{50},
		},
		{
			name:     "eq and in with dollar placeholders",
			ph:       Dollar,
			q:        Query{Where: []Cond{Eq("user_id", "u1"), In("id", "p1", "p2")}},
			wantSQL:  "SELECT id, user_id, content, image_url, likes_count, comments_count, created_at FROM posts WHERE user_id = $1 AND id IN ($2, $3)",
			wantArgs: []any{"u1", "p1", "p2"},
		},
		{
			name:    "ordering by id needs no tiebreak",
			ph:      QuestionMark,
			q:       Query{OrderBy: "id"},
			wantSQL: "SELECT id, user_id, content, image_url, likes_count, comments_count, created_at FROM posts ORDER BY id ASC",
		},
		{
			name:    "empty in matches nothing",
			ph:      QuestionMark,
			q:       Query{Where: []Cond{In("id")}},
			wantSQL: "SELECT id, user_id, content, image_url, likes_count, comments_count, created_at FROM posts WHERE 1 = 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := SelectStatement(tt.ph, Posts, tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, stmt.SQL)
			assert.Equal(t, tt.wantArgs, stmt.Args)
		})
	}
}

func TestSelectStatementRejectsUnknownNames(t *testing.T) {
	_, err := SelectStatement(QuestionMark, "sessions", Query{})
	assert.Error(t, err)

	_, err = SelectStatement(QuestionMark, Posts, Query{Where: []Cond{Eq("1=1; DROP TABLE posts; --", 1)}})
	assert.Error(t, err)

	_, err = SelectStatement(QuestionMark, Posts, Query{OrderBy: "password_hash"})
	assert.Error(t, err)
}

func TestInsertStatement(t *testing.T) {
	stmt, err := InsertStatement(Dollar, Likes, Record{"id": "l1", "user_id": "u1", "post_id": "p1"})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO likes (id, post_id, user_id) VALUES ($1, $2, $3)", stmt.SQL)
	assert.Equal(t, []any{"l1", "p1", "u1"}, stmt.Args)

	_, err = InsertStatement(Dollar, Likes, Record{"user_id": "u1"})
	assert.Error(t, err, "id is required")

	_, err = InsertStatement(Dollar, Likes, Record{"id": "l1", "userId": "u1"})
	assert.Error(t, err, "camelCase keys are not columns")
}

func TestUpdateStatement(t *testing.T) {
	stmt, err := UpdateStatement(QuestionMark, Users, "u1", Record{"bio": "hi", "display_name": "U"})
	require.NoError(t, err)
	assert.Equal(t, "UPDATE users SET bio = ?, display_name = ? WHERE id = ?", stmt.SQL)
	assert.Equal(t, []any{"hi", "U", "u1"}, stmt.Args)

	_, err = UpdateStatement(QuestionMark, Users, "u1", Record{})
	assert.Error(t, err)
	_, err = UpdateStatement(QuestionMark, Users, "u1", Record{"id": "u2"})
	assert.Error(t, err)
}

func TestIncrementStatement(t *testing.T) {
	stmt, err := IncrementStatement(Dollar, Posts, "p1", "likes_count", -1)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE posts SET likes_count = CASE WHEN likes_count + $1 < 0 THEN 0 ELSE likes_count + $2 END WHERE id = $3", stmt.SQL)
	assert.Equal(t, []any{int64(-1), int64(-1), "p1"}, stmt.Args)

	_, err = IncrementStatement(Dollar, Posts, "p1", "content", 1)
	assert.Error(t, err)
}

func TestDeleteStatement(t *testing.T) {
	stmt, err := DeleteStatement(QuestionMark, Likes, "l1")
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM likes WHERE id = ?", stmt.SQL)
	assert.Equal(t, []any{"l1"}, stmt.Args)
}

func TestRecordAccessors(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	rec := Record{
		"id":          "p1",
		"likes_count": int64(3),
		"image_url":   nil,
		"raw":         []byte("bytes"),
		"created_at":  "2024-05-01 12:30:00+00:00",
		"updated_at":  ts,
	}

	assert.Equal(t, "p1", rec.String("id"))
	assert.Equal(t, "", rec.String("image_url"))
	assert.Equal(t, "bytes", rec.String("raw"))
	assert.Equal(t, 3, rec.Int("likes_count"))
	assert.Equal(t, 0, rec.Int("missing"))
	assert.True(t, ts.Equal(rec.Time("created_at")))
	assert.True(t, ts.Equal(rec.Time("updated_at")))
}
