package crud

import (
	"gorm.io/gorm"

	"wtfBlog/domain"
	"wtfBlog/errs"
)

// FollowService manages Follows. Create and Delete are deliberately
// idempotent: both guards run here in the service rather than relying on the
// storage-level uniqueness constraint, so the user-facing behavior stays
// deterministic regardless of backend.
// It implements the domain.FollowService interface.
type FollowService struct {
	followValidator
}

// followValidator runs validations on incoming Follow data.
// On success, it passes the data on to followGorm.
// Otherwise, it returns the error of the validation that has failed.
type followValidator struct {
	followGorm
}

// followGorm runs CRUD operations on the database using incoming Follow data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type followGorm struct {
	db *gorm.DB
}

// NewFollowService returns an instance of FollowService.
func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{
		followValidator{
			followGorm{
				db: db,
			},
		},
	}
}

// Ensure the FollowService struct properly implements the domain.FollowService
// interface. If it does not, then this expression becomes invalid and won't compile.
var _ domain.FollowService = &FollowService{}

// Create runs validations needed for creating new Follow database records.
// A self-follow is skipped silently, an existing follow is kept as-is.
func (fv *followValidator) Create(follow *domain.Follow) error {
	err := runFollowValFns(follow,
		fv.idsValid,
		fv.followedUserExists)
	if err != nil {
		return err
	}
	if follow.FollowerID == follow.FollowedID {
		// Users may not follow themselves. Skip creation, don't error.
		return nil
	}
	return fv.followGorm.Create(follow)
}

// Delete removes the Follow record matching the pair, if one exists.
// Unfollowing a non-followed author is a no-op.
func (fv *followValidator) Delete(follow *domain.Follow) error {
	err := runFollowValFns(follow, fv.idsValid)
	if err != nil {
		return err
	}
	return fv.followGorm.Delete(follow)
}

// runFollowValFns runs any number of functions of type followValFn on the passed in Follow object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runFollowValFns(follow *domain.Follow, fns ...followValFn) error {
	for _, fn := range fns {
		if err := fn(follow); err != nil {
			return err
		}
	}
	return nil
}

// A followValFn is any function that takes in a pointer to a domain.Follow object and returns an error.
type followValFn = func(follow *domain.Follow) error

// followedUserExists makes sure that the author to be followed actually exists.
func (fv *followValidator) followedUserExists(follow *domain.Follow) error {
	err := fv.db.First(&domain.User{}, "id = ?", follow.FollowedID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errs.Errorf(errs.ENOTFOUND, "The user to be followed does not exist.")
		} else {
			return err
		}
	}
	return nil
}

// idsValid ensures that both sides of the pair are set.
func (fv *followValidator) idsValid(follow *domain.Follow) error {
	if follow.FollowerID <= 0 || follow.FollowedID <= 0 {
		return errs.Errorf(errs.EINVALID, "Follower and followed are required.")
	}
	return nil
}

// Create stores the pair in a new database record unless it already exists
// (get-or-create on the follower/followed pair).
func (fg *followGorm) Create(follow *domain.Follow) error {
	return fg.db.
		Where(domain.Follow{FollowerID: follow.FollowerID, FollowedID: follow.FollowedID}).
		FirstOrCreate(follow).Error
}

// Delete permanently deletes the record matching the pair. Deleting nothing
// is fine.
func (fg *followGorm) Delete(follow *domain.Follow) error {
	return fg.db.
		Where("follower_id = ? AND followed_id = ?", follow.FollowerID, follow.FollowedID).
		Delete(&domain.Follow{}).Error
}

// Following reports whether follower currently follows followed.
func (fg *followGorm) Following(followerID, followedID int) (bool, error) {
	var count int64
	err := fg.db.
		Model(&domain.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
