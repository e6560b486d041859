package domain

import "fmt"

var (
	ErrImageTypeNotSupported = fmt.Errorf("%w: image type not supported", ErrValidation)
	ErrImageTypeMismatch     = fmt.Errorf("%w: image ext does not match content type", ErrValidation)
	ErrImageTooLarge         = fmt.Errorf("%w: image too large", ErrValidation)
	ErrImageNotFound         = fmt.Errorf("%w: image", ErrNotFound)
	ErrNoImageName           = fmt.Errorf("%w: no image name", ErrValidation)
)

// Image is a stored image file.
type Image struct {
	Name     string // Generated storage name including extension
	MIMEType string
	Data     []byte
}

// Size returns the size of the image content in bytes.
func (img Image) Size() int64 {
	return int64(len(img.Data))
}
