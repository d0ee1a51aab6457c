package domain

import "time"

// MaxCommentLength bounds comment content, in runes
const MaxCommentLength = 2000

// Comment is a user's note on an image
type Comment struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	ImageID    int64      `json:"image_id"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
	AuthorName string     `json:"author_name,omitempty"`
}

// CommentWithImage is a comment listed on its author's profile
type CommentWithImage struct {
	Comment
	ImageTitle  string `json:"image_title"`
	ImageURL    string `json:"image_url"`
	ImageAuthor string `json:"image_author"`
}
