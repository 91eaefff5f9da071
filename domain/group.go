package domain

import "time"

// Group is a topical collection of posts. Groups are created by an
// administrator and are immutable afterwards; the Slug is the unique URL key
// under which a group's feed is served.
type Group struct {
	ID          int    `json:"id"`
	Title       string `json:"title" gorm:"notNull"`
	Slug        string `json:"slug" gorm:"uniqueIndex;notNull"`
	Description string `json:"description"`

	Posts []Post `json:"posts,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GroupService is a set of methods to manipulate and work with the Group model.
type GroupService interface {
	ByID(id int) (*Group, error)
	BySlug(slug string) (*Group, error)
	All() ([]Group, error)
	Create(group *Group) error
}
