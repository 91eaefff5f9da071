package storage

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"wtfBlog/domain"
	"wtfBlog/errs"
)

// ImageService stores uploaded images in the filesystem, under a directory
// per owner record (e.g. images/post/2/). It implements the
// domain.ImageService interface.
type ImageService struct {
	imageValidator
}

// imageValidator runs validations / normalizations on incoming image files.
// On success, it passes the data on to imageFS.
// Otherwise, it returns the error of the validation that has failed.
type imageValidator struct {
	imageFS
}

// imageFS runs file operations on the filesystem using incoming Image data.
// It assumes that data has been validated.
type imageFS struct {
	baseDir string
}

// NewImageService returns an instance of ImageService storing under
// domain.ImagesBaseDir.
func NewImageService() *ImageService {
	return &ImageService{
		imageValidator{
			imageFS{
				baseDir: domain.ImagesBaseDir,
			},
		},
	}
}

// Ensure the ImageService struct properly implements the domain.ImageService
// interface. If it does not, then this expression becomes invalid and won't compile.
var _ domain.ImageService = &ImageService{}

// Create runs validations needed for storing a new image file.
func (iv *imageValidator) Create(img *domain.Image) error {
	err := runImageValFns(img,
		iv.extensionValid,
		iv.contentTypeValid,
		iv.belowMaxSize,
		iv.fileNameUnique)
	if err != nil {
		return err
	}
	return iv.imageFS.Create(img)
}

// runImageValFns runs any number of functions of type imageValFn on the passed in Image object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runImageValFns(img *domain.Image, fns ...imageValFn) error {
	for _, fn := range fns {
		if err := fn(img); err != nil {
			return err
		}
	}
	return nil
}

// An imageValFn is any function that takes in a pointer to a domain.Image object and returns an error.
type imageValFn func(img *domain.Image) error

// belowMaxSize makes sure the file does not exceed the upload size limit.
func (iv *imageValidator) belowMaxSize(img *domain.Image) error {
	size, err := img.File.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if err = resetReaderPosition(img); err != nil {
		return err
	}
	if size > domain.MaxUploadSize {
		return errs.Errorf(errs.EINVALID,
			"Image %s exceeds the upload size limit of %dMB.", img.Filename, domain.MaxUploadSize/1000000)
	}
	return nil
}

// contentTypeValid sniffs the actual content type of the file and makes sure
// it is a jpeg or png, regardless of what the filename claims.
func (iv *imageValidator) contentTypeValid(img *domain.Image) error {
	buffer := make([]byte, 512)
	if _, err := img.File.Read(buffer); err != nil && err != io.EOF {
		return err
	}
	if err := resetReaderPosition(img); err != nil {
		return err
	}
	contentType := http.DetectContentType(buffer)
	if contentType != "image/jpeg" && contentType != "image/png" {
		return errs.Errorf(errs.EINVALID,
			"Image %s has invalid content-type, must be image/jpeg or image/png.", img.Filename)
	}
	img.ContentType = contentType
	return nil
}

// extensionValid makes sure the filename carries a supported image extension.
func (iv *imageValidator) extensionValid(img *domain.Image) error {
	ext := strings.ToLower(filepath.Ext(img.Filename))
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		return errs.Errorf(errs.EINVALID,
			"Image %s has invalid extension, must be .jpeg or .png.", img.Filename)
	}
	return nil
}

// fileNameUnique replaces the client's filename with a UUID so uploads never
// collide within an owner's directory.
func (iv *imageValidator) fileNameUnique(img *domain.Image) error {
	ext := strings.ToLower(filepath.Ext(img.Filename))
	if ext == ".jpg" {
		ext = ".jpeg"
	}
	img.Filename = uuid.NewString() + ext
	return nil
}

// resetReaderPosition seeks back to the beginning of the file, so that
// subsequent reads will work.
func resetReaderPosition(img *domain.Image) error {
	_, err := img.File.Seek(0, io.SeekStart)
	return err
}

// Create writes the image file into its owner's directory.
func (fs *imageFS) Create(img *domain.Image) error {
	path, err := fs.mkImagePath(img.OwnerType, img.OwnerID)
	if err != nil {
		return err
	}
	dst, err := os.Create(filepath.Join(path, img.Filename))
	if err != nil {
		return err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, img.File); err != nil {
		return err
	}
	img.URL = img.Path()
	return nil
}

// ByOwner lists all images stored for an owner record.
func (fs *imageFS) ByOwner(ownerType string, ownerID int) ([]domain.Image, error) {
	path := fs.imagePath(ownerType, ownerID)
	matches, err := filepath.Glob(filepath.Join(path, "*"))
	if err != nil {
		return nil, err
	}
	images := make([]domain.Image, len(matches))
	for i, match := range matches {
		images[i] = domain.Image{
			OwnerType: ownerType,
			OwnerID:   ownerID,
			Filename:  filepath.Base(match),
		}
		images[i].URL = images[i].Path()
	}
	return images, nil
}

// Delete removes a single stored image file.
func (fs *imageFS) Delete(i *domain.Image) error {
	return os.Remove(i.RelativePath())
}

// DeleteAll removes an owner's whole image directory.
func (fs *imageFS) DeleteAll(ownerType string, ownerID int) error {
	return os.RemoveAll(fs.imagePath(ownerType, ownerID))
}

func (fs *imageFS) mkImagePath(ownerType string, ownerID int) (string, error) {
	imagePath := fs.imagePath(ownerType, ownerID)
	if err := os.MkdirAll(imagePath, 0755); err != nil {
		return "", err
	}
	return imagePath, nil
}

func (fs *imageFS) imagePath(ownerType string, ownerID int) string {
	return fmt.Sprintf("%v/%v/%v", fs.baseDir, ownerType, ownerID)
}
