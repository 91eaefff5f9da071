package crud

import (
	"testing"

	"wtfBlog/domain"
	"wtfBlog/errs"
)

func TestGroupCreateAndLookup(t *testing.T) {
	s := testServices(t)
	group := seedGroup(t, s, "Cats", "cats")

	bySlug, err := s.Group.BySlug("cats")
	if err != nil {
		t.Fatal(err)
	}
	if bySlug.ID != group.ID || bySlug.Title != "Cats" {
		t.Errorf("unexpected group: %+v", bySlug)
	}

	byID, err := s.Group.ByID(group.ID)
	if err != nil {
		t.Fatal(err)
	}
	if byID.Slug != "cats" {
		t.Errorf("expected slug cats, got %q", byID.Slug)
	}
}

func TestGroupBySlugNotFound(t *testing.T) {
	s := testServices(t)

	_, err := s.Group.BySlug("nope")
	if errs.ErrorCode(err) != errs.ENOTFOUND {
		t.Errorf("expected ENOTFOUND, got %v", err)
	}
}

func TestGroupSlugValidations(t *testing.T) {
	s := testServices(t)
	seedGroup(t, s, "Cats", "cats")

	tests := []struct {
		name  string
		group domain.Group
		code  string
	}{
		{"missing title", domain.Group{Slug: "dogs"}, errs.EINVALID},
		{"missing slug", domain.Group{Title: "Dogs"}, errs.EINVALID},
		{"bad slug chars", domain.Group{Title: "Dogs", Slug: "dogs!"}, errs.EINVALID},
		{"slug taken", domain.Group{Title: "More Cats", Slug: "cats"}, errs.ECONFLICT},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			group := tt.group
			err := s.Group.Create(&group)
			if errs.ErrorCode(err) != tt.code {
				t.Errorf("expected %v, got %v (%v)", tt.code, errs.ErrorCode(err), err)
			}
		})
	}
}

func TestGroupSlugNormalized(t *testing.T) {
	s := testServices(t)

	group := domain.Group{Title: "Wild Cats", Slug: "  Wild-Cats  "}
	if err := s.Group.Create(&group); err != nil {
		t.Fatal(err)
	}
	if group.Slug != "wild-cats" {
		t.Errorf("expected normalized slug, got %q", group.Slug)
	}
}

func TestGroupAllOrderedByTitle(t *testing.T) {
	s := testServices(t)
	seedGroup(t, s, "Zebras", "zebras")
	seedGroup(t, s, "Ants", "ants")

	groups, err := s.Group.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Title != "Ants" || groups[1].Title != "Zebras" {
		t.Errorf("unexpected order: %q, %q", groups[0].Title, groups[1].Title)
	}
}
