package domain

import "time"

// Comment is a reader's note attached to a Post. Comments are immutable after
// creation and cannot be deleted.
type Comment struct {
	ID     int    `json:"id"`
	PostID int    `json:"post_id" gorm:"notNull;index"`
	Post   Post   `json:"-"`
	UserID int    `json:"user_id" gorm:"notNull"`
	User   User   `json:"author"`
	Text   string `json:"text" gorm:"notNull"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentService is a set of methods to manipulate and work with the Comment model.
type CommentService interface {
	Create(comment *Comment) error
	ByPostID(postID int) ([]Comment, error)
}
