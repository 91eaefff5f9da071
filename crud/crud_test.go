package crud

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wtfBlog/domain"
)

// testDB opens a throwaway sqlite database for a single test. A file in the
// test's temp dir, not :memory:, so every connection of gorm's pool sees the
// same database.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "crud_test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	err = db.AutoMigrate(
		domain.User{},
		domain.Group{},
		domain.Post{},
		domain.Comment{},
		domain.Follow{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// testServices builds the full service container on a throwaway database.
func testServices(t *testing.T) *Services {
	t.Helper()
	services, err := NewServices(
		testDB(t),
		WithUser("test-pepper", "test-hmac-key"),
		WithPost(PostsPerPage),
		WithGroup(),
		WithComment(),
		WithFollow(),
	)
	if err != nil {
		t.Fatalf("create services: %v", err)
	}
	return services
}

// seedUser registers a user with a valid password and returns it.
func seedUser(t *testing.T, s *Services, username string) *domain.User {
	t.Helper()
	user := &domain.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "correct-horse42",
	}
	if err := s.User.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user %q: %v", username, err)
	}
	return user
}

// seedGroup creates a group and returns it.
func seedGroup(t *testing.T, s *Services, title, slug string) *domain.Group {
	t.Helper()
	group := &domain.Group{
		Title:       title,
		Slug:        slug,
		Description: "about " + title,
	}
	if err := s.Group.Create(group); err != nil {
		t.Fatalf("seed group %q: %v", slug, err)
	}
	return group
}

// post builds an unsaved Post value for validation tests.
func post(userID, groupID int, text string) *domain.Post {
	return &domain.Post{
		UserID:  userID,
		GroupID: groupID,
		Text:    text,
	}
}

// seedPost creates a post for the given author, optionally in a group.
func seedPost(t *testing.T, s *Services, userID, groupID int, text string) *domain.Post {
	t.Helper()
	post := &domain.Post{
		UserID:  userID,
		GroupID: groupID,
		Text:    text,
	}
	if err := s.Post.Create(post); err != nil {
		t.Fatalf("seed post %q: %v", text, err)
	}
	return post
}

// seedPosts creates n posts for the author and returns them oldest first.
func seedPosts(t *testing.T, s *Services, userID, n int) []*domain.Post {
	t.Helper()
	posts := make([]*domain.Post, 0, n)
	for i := 0; i < n; i++ {
		posts = append(posts, seedPost(t, s, userID, 0, fmt.Sprintf("post number %d", i)))
	}
	return posts
}
