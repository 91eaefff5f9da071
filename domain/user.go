package domain

import (
	"context"
	"time"
)

// User represents a registered author. The password fields follow the split
// between what the client submits (Password, Remember) and what the database
// stores (PasswordHash, RememberHash). The gorm:"-" tags keep the raw values
// out of the users table.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username" gorm:"uniqueIndex;notNull"`
	Email    string `json:"email" gorm:"uniqueIndex"`

	Password     string `json:"password,omitempty" gorm:"-"`
	PasswordHash string `json:"-"`
	Remember     string `json:"-" gorm:"-"`
	RememberHash string `json:"-" gorm:"index"`

	Posts []Post `json:"posts,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserService is a set of methods to manipulate and work with the User model.
// It also covers the database half of the authentication system.
type UserService interface {
	Authenticate(email, password string) (*User, error)
	ByID(id int) (*User, error)
	ByUsername(username string) (*User, error)
	ByRemember(token string) (*User, error)
	MakeRememberToken() (string, error)
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
}
