package domain

import (
	"time"

	"wtfBlog/paginate"
)

// Post is a single blog entry. The author is required, the group is optional
// (a post may live outside of any group, so GroupID defaults to null instead
// of 0). CreatedAt doubles as the publication date: it is set once on create
// and is the ordering key of every feed.
type Post struct {
	ID     int    `json:"id"`
	UserID int    `json:"user_id" gorm:"notNull;index"`
	User   User   `json:"author"`
	Text   string `json:"text" gorm:"notNull"`

	GroupID int    `json:"group_id,omitempty" gorm:"default:null;index"`
	Group   *Group `json:"group,omitempty"`

	Comments []Comment `json:"comments,omitempty"`
	Images   []Image   `json:"images,omitempty" gorm:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostFeed is one page of an ordered post listing, produced by the feed
// queries of the PostService.
type PostFeed struct {
	Posts []Post
	Page  paginate.Page
}

// PostService is a set of methods to manipulate and work with the Post model,
// including the feed queries backing the listing views.
type PostService interface {
	ByID(id int) (*Post, error)
	Create(post *Post) error
	Update(post *Post) error

	// Feed queries. All of them order by publication date descending and
	// paginate with the shared page size.
	Index(page int) (*PostFeed, error)
	ByGroup(groupID, page int) (*PostFeed, error)
	ByAuthor(userID, page int) (*PostFeed, error)
	Followed(followerID, page int) (*PostFeed, error)

	CountByAuthor(userID int) (int, error)
}
