package crud

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"

	"wtfBlog/domain"
	"wtfBlog/errs"
	"wtfBlog/paginate"
)

// PostService manages Posts and composes the feed queries backing the
// listing views. It implements the domain.PostService interface.
type PostService struct {
	postValidator
}

// postValidator runs validations on incoming Post data.
// On success, it passes the data on to postGorm.
// Otherwise, it returns the error of the validation that has failed.
type postValidator struct {
	sanitizer *bluemonday.Policy
	postGorm
}

// postGorm runs CRUD operations on the database using incoming Post data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type postGorm struct {
	db      *gorm.DB
	perPage int
}

// NewPostService returns an instance of PostService.
func NewPostService(db *gorm.DB, perPage int) *PostService {
	if perPage <= 0 {
		perPage = PostsPerPage
	}
	return &PostService{
		postValidator{
			sanitizer: bluemonday.StrictPolicy(),
			postGorm: postGorm{
				db:      db,
				perPage: perPage,
			},
		},
	}
}

// Ensure the PostService struct properly implements the domain.PostService
// interface. If it does not, then this expression becomes invalid and won't compile.
var _ domain.PostService = &PostService{}

// Create runs validations needed for creating new Post database records.
func (pv *postValidator) Create(post *domain.Post) error {
	err := runPostValFns(post,
		pv.userIdValid,
		pv.textSanitize,
		pv.textRequired,
		pv.groupExists)
	if err != nil {
		return err
	}
	return pv.postGorm.Create(post)
}

// Update runs validations needed for saving changes to an existing Post.
// Only the text and the group assignment are mutable; author and publication
// date never change after creation.
func (pv *postValidator) Update(post *domain.Post) error {
	err := runPostValFns(post,
		pv.idValid,
		pv.textSanitize,
		pv.textRequired,
		pv.groupExists)
	if err != nil {
		return err
	}
	return pv.postGorm.Update(post)
}

// runPostValFns runs any number of functions of type postValFn on the passed in Post object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runPostValFns(post *domain.Post, fns ...postValFn) error {
	for _, fn := range fns {
		if err := fn(post); err != nil {
			return err
		}
	}
	return nil
}

// A postValFn is any function that takes in a pointer to a domain.Post object and returns an error.
type postValFn = func(post *domain.Post) error

// groupExists makes sure that the group the post is assigned to actually exists.
// This check only runs if the incoming Post object has a group set at all.
func (pv *postValidator) groupExists(post *domain.Post) error {
	if post.GroupID > 0 {
		err := pv.db.First(&domain.Group{}, "id = ?", post.GroupID).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errs.Errorf(errs.ENOTFOUND, "The group does not exist.")
			} else {
				return err
			}
		}
	}
	return nil
}

// idValid makes sure that the passed in ID of a Post to be updated is greater than 0.
func (pv *postValidator) idValid(post *domain.Post) error {
	if post.ID <= 0 {
		return errs.Errorf(errs.EINVALID, "Post ID is invalid.")
	}
	return nil
}

// textSanitize strips any markup from the submitted text. The sanitizer
// entity-escapes its output for HTML contexts; the text is stored as plain
// text and escaped again at render time, so unescape before persisting.
func (pv *postValidator) textSanitize(post *domain.Post) error {
	post.Text = html.UnescapeString(pv.sanitizer.Sanitize(post.Text))
	return nil
}

// textRequired makes sure that the Post's text is not empty.
func (pv *postValidator) textRequired(post *domain.Post) error {
	if strings.TrimSpace(post.Text) == "" {
		return errs.Errorf(errs.EINVALID, "Post text must not be empty.")
	}
	return nil
}

// userIdValid ensures that the userId is not empty.
func (pv *postValidator) userIdValid(post *domain.Post) error {
	if post.UserID <= 0 {
		return errs.Errorf(errs.EINVALID, "Post author is required.")
	}
	return nil
}

// ByID retrieves a single Post by ID, along with its author and group.
func (pg *postGorm) ByID(id int) (*domain.Post, error) {
	var post domain.Post
	err := pg.db.
		Preload("User").
		Preload("Group").
		First(&post, "id = ?", id).
		Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.Errorf(errs.ENOTFOUND, "The post does not exist.")
		} else {
			return nil, err
		}
	}
	return &post, nil
}

// Index composes the global feed: all posts, newest first.
func (pg *postGorm) Index(page int) (*domain.PostFeed, error) {
	return pg.feed(func(db *gorm.DB) *gorm.DB {
		return db
	}, page)
}

// ByGroup composes the feed of a single group.
func (pg *postGorm) ByGroup(groupID, page int) (*domain.PostFeed, error) {
	return pg.feed(func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.group_id = ?", groupID)
	}, page)
}

// ByAuthor composes the feed of a single author's profile.
func (pg *postGorm) ByAuthor(userID, page int) (*domain.PostFeed, error) {
	return pg.feed(func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.user_id = ?", userID)
	}, page)
}

// Followed composes the personalized feed: posts whose author is followed by
// the given user.
func (pg *postGorm) Followed(followerID, page int) (*domain.PostFeed, error) {
	return pg.feed(func(db *gorm.DB) *gorm.DB {
		return db.
			Joins("JOIN follows ON follows.followed_id = posts.user_id").
			Where("follows.follower_id = ?", followerID)
	}, page)
}

// feed runs a scoped post query twice: once to count the total record set,
// once to fetch the records of the clamped page. The id tiebreak keeps the
// order stable for posts sharing a publication timestamp.
func (pg *postGorm) feed(scope func(*gorm.DB) *gorm.DB, requested int) (*domain.PostFeed, error) {
	var total int64
	err := scope(pg.db.Model(&domain.Post{})).Count(&total).Error
	if err != nil {
		return nil, err
	}
	page := paginate.New(requested, pg.perPage, int(total))
	var posts []domain.Post
	err = scope(pg.db.Model(&domain.Post{})).
		Preload("User").
		Preload("Group").
		Order("posts.created_at desc, posts.id desc").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return &domain.PostFeed{
		Posts: posts,
		Page:  page,
	}, nil
}

// CountByAuthor returns the total number of posts of one author.
func (pg *postGorm) CountByAuthor(userID int) (int, error) {
	var count int64
	err := pg.db.Model(&domain.Post{}).Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// Create stores the data from the Post object in a new database record.
// On success, it eager-loads the author so the fresh post renders fully.
func (pg *postGorm) Create(post *domain.Post) error {
	if err := pg.db.Create(post).Error; err != nil {
		return err
	}
	return pg.db.Preload("User").Preload("Group").First(post).Error
}

// Update saves the mutable fields of an existing Post. The explicit column
// map keeps author and publication date untouched and lets a post leave its
// group (group_id back to null).
func (pg *postGorm) Update(post *domain.Post) error {
	updates := map[string]interface{}{
		"text": post.Text,
	}
	if post.GroupID > 0 {
		updates["group_id"] = post.GroupID
	} else {
		updates["group_id"] = nil
	}
	return pg.db.Model(&domain.Post{}).Where("id = ?", post.ID).Updates(updates).Error
}
