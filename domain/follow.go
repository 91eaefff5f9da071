package domain

import "time"

// Follow represents a self-referential many-to-many relationship between two
// users. A Follow is created when one user decides to follow an author. The
// FollowerID is the ID of the user that follows, the FollowedID is the ID of
// the author being followed. The composite unique index backs up the
// get-or-create semantics of FollowService.Create.
type Follow struct {
	ID         int       `json:"id"`
	FollowerID int       `json:"-" gorm:"notNull;uniqueIndex:idx_follower_followed"`
	Follower   User      `json:"follower"`
	FollowedID int       `json:"-" gorm:"notNull;uniqueIndex:idx_follower_followed"`
	Followed   User      `json:"followed"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FollowService is a set of methods to manipulate and work with the Follow
// model. Create and Delete are both idempotent: following an already followed
// author keeps the single existing record, unfollowing a non-followed author
// is a no-op.
type FollowService interface {
	Create(follow *Follow) error
	Delete(follow *Follow) error
	Following(followerID, followedID int) (bool, error)
}
