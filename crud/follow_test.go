package crud

import (
	"testing"

	"wtfBlog/domain"
	"wtfBlog/errs"
)

func TestFollowCreateIdempotent(t *testing.T) {
	s := testServices(t)
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")

	for i := 0; i < 3; i++ {
		err := s.Follow.Create(&domain.Follow{FollowerID: alice.ID, FollowedID: bob.ID})
		if err != nil {
			t.Fatalf("follow attempt %d: %v", i, err)
		}
	}

	var count int64
	if err := s.db.Model(&domain.Follow{}).Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected exactly one follow record, got %d", count)
	}
}

func TestFollowSelfSkipped(t *testing.T) {
	s := testServices(t)
	alice := seedUser(t, s, "alice")

	err := s.Follow.Create(&domain.Follow{FollowerID: alice.ID, FollowedID: alice.ID})
	if err != nil {
		t.Fatalf("self-follow must not error, got %v", err)
	}

	following, err := s.Follow.Following(alice.ID, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if following {
		t.Error("expected no self-follow record")
	}
}

func TestFollowUnknownUser(t *testing.T) {
	s := testServices(t)
	alice := seedUser(t, s, "alice")

	err := s.Follow.Create(&domain.Follow{FollowerID: alice.ID, FollowedID: 999})
	if errs.ErrorCode(err) != errs.ENOTFOUND {
		t.Errorf("expected ENOTFOUND, got %v", err)
	}
}

func TestFollowDelete(t *testing.T) {
	s := testServices(t)
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")

	pair := domain.Follow{FollowerID: alice.ID, FollowedID: bob.ID}
	if err := s.Follow.Create(&pair); err != nil {
		t.Fatal(err)
	}
	if err := s.Follow.Delete(&pair); err != nil {
		t.Fatal(err)
	}

	following, err := s.Follow.Following(alice.ID, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if following {
		t.Error("expected follow to be gone")
	}

	// Unfollowing again is a no-op, not an error.
	if err := s.Follow.Delete(&pair); err != nil {
		t.Errorf("expected second delete to be a no-op, got %v", err)
	}
}

func TestFollowedFeed(t *testing.T) {
	s := testServices(t)
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	carol := seedUser(t, s, "carol")

	seedPost(t, s, bob.ID, 0, "bob's post")
	seedPost(t, s, carol.ID, 0, "carol's post")

	err := s.Follow.Create(&domain.Follow{FollowerID: alice.ID, FollowedID: bob.ID})
	if err != nil {
		t.Fatal(err)
	}

	feed, err := s.Post.Followed(alice.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(feed.Posts) != 1 || feed.Posts[0].Text != "bob's post" {
		t.Errorf("expected only bob's post in alice's feed, got %+v", feed.Posts)
	}

	// Carol follows nobody, her feed is empty.
	feed, err = s.Post.Followed(carol.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(feed.Posts) != 0 {
		t.Errorf("expected empty feed, got %d posts", len(feed.Posts))
	}
}
