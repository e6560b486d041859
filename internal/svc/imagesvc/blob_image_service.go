package imagesvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mkrupp/instalite/internal/domain"
	"github.com/mkrupp/instalite/internal/infra/logging"
	"github.com/mkrupp/instalite/internal/repo/blob"
)

// BlobImageService implements ImageService on top of a blob repository.
// Resized copies are computed on every request and never stored.
type BlobImageService struct {
	blobRepo blob.Repository
	resizer  *resizer
	cfg      ImageConfig
	log      logging.Logger
}

var _ ImageService = (*BlobImageService)(nil)

// NewBlobImageService creates a new BlobImageService storing images in the
// "media" repository created by repoFactory.
// Returns an error if the repository cannot be created or the interpolator is unknown.
func NewBlobImageService(
	ctx context.Context,
	repoFactory blob.RepositoryFactory,
	cfg ImageConfig,
) (*BlobImageService, error) {
	rs, err := newResizer(cfg)
	if err != nil {
		return nil, fmt.Errorf("new resizer: %w", err)
	}

	blobRepo, err := repoFactory(ctx, "media")
	if err != nil {
		return nil, fmt.Errorf("new blob repository: %w", err)
	}

	return &BlobImageService{
		blobRepo: blobRepo,
		resizer:  rs,
		cfg:      cfg,
		log:      logging.GetLogger("svc.imagesvc.blob_image_service"),
	}, nil
}

// blobError maps blob repository errors to image errors.
func blobError(op string, err error) error {
	if errors.Is(err, domain.ErrBlobNotFound) || errors.Is(err, domain.ErrInvalidBlobID) {
		return fmt.Errorf("%s: %w", op, errors.Join(domain.ErrImageNotFound, err))
	}

	return fmt.Errorf("%s: %w", op, errors.Join(domain.ErrStorage, err))
}

// Store implements ImageService.Store.
func (imageSvc *BlobImageService) Store(ctx context.Context, filename string, data []byte) (_ string, err error) {
	log := imageSvc.log.With(logging.Group("image", "filename", filename, "size", len(data)))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "image store failed", "error", err)
		} else {
			log.DebugContext(ctx, "image stored")
		}
	}()

	if _, err := imageSvc.CheckUploadConstraints(filename, int64(len(data)), data); err != nil {
		return "", fmt.Errorf("check upload constraints: %w", err)
	}

	ext, _, err := imageExt(filename)
	if err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	log = log.With("image_name", name)

	if err := imageSvc.blobRepo.Store(ctx, domain.NewBlob(domain.BlobID(name), data)); err != nil {
		return "", blobError("store blob", err)
	}

	return name, nil
}

// Fetch implements ImageService.Fetch.
func (imageSvc *BlobImageService) Fetch(ctx context.Context, name string, width int) (_ *domain.Image, err error) {
	log := imageSvc.log.With(logging.Group("image", "name", name, "width", width))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "image fetch failed", "error", err)
		} else {
			log.DebugContext(ctx, "image fetched")
		}
	}()

	if name == "" {
		return nil, domain.ErrNoImageName
	}

	_, mimeType, err := imageExt(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrImageNotFound, name)
	}

	stored, err := imageSvc.blobRepo.Fetch(ctx, domain.BlobID(name))
	if err != nil {
		return nil, blobError("fetch blob", err)
	}

	img := &domain.Image{Name: name, MIMEType: mimeType, Data: stored.Body}

	if width <= 0 {
		return img, nil
	}

	data, resized, err := imageSvc.resizer.resize(stored.Body, mimeType, width)
	if err != nil {
		return nil, fmt.Errorf("resize image: %w", err)
	}

	log = log.With("image_resized", resized)
	img.Data = data

	return img, nil
}

// Delete implements ImageService.Delete.
func (imageSvc *BlobImageService) Delete(ctx context.Context, name string) (err error) {
	log := imageSvc.log.With(logging.Group("image", "name", name))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "image delete failed", "error", err)
		} else {
			log.DebugContext(ctx, "image deleted")
		}
	}()

	if err := imageSvc.blobRepo.Delete(ctx, domain.BlobID(name)); err != nil {
		return blobError("delete blob", err)
	}

	return nil
}

// MaxSize implements ImageService.MaxSize.
func (imageSvc *BlobImageService) MaxSize() int64 {
	return imageSvc.cfg.MaxSize
}

// CheckUploadConstraints implements ImageService.CheckUploadConstraints.
func (imageSvc *BlobImageService) CheckUploadConstraints(filename string, size int64, data []byte) (string, error) {
	if size > imageSvc.MaxSize() {
		return "", fmt.Errorf("%w: %d bytes", domain.ErrImageTooLarge, size)
	}

	ext, mimeType, err := imageExt(filename)
	if err != nil {
		return "", err
	}

	if data != nil && !hasSignature(data, mimeType) {
		return "", fmt.Errorf("%w: %q", domain.ErrImageTypeMismatch, ext)
	}

	return mimeType, nil
}
