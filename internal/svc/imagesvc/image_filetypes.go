package imagesvc

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/mkrupp/instalite/internal/domain"
)

const (
	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
)

type encodeFunc func(w io.Writer, img image.Image, quality int) error

//nolint:gochecknoglobals
var (
	imageExtTypes = map[string]string{
		".jpg":  MIMETypeJPEG,
		".jpeg": MIMETypeJPEG,
		".png":  MIMETypePNG,
	}

	imageSignatures = map[string][]byte{
		MIMETypeJPEG: []byte("\xFF\xD8\xFF"),
		MIMETypePNG:  []byte("\x89PNG\r\n\x1A\n"),
	}

	imageDecoders = map[string]func(io.Reader) (image.Image, error){
		MIMETypeJPEG: jpeg.Decode,
		MIMETypePNG:  png.Decode,
	}

	imageEncoders = map[string]encodeFunc{
		MIMETypeJPEG: func(w io.Writer, img image.Image, quality int) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
		},
		MIMETypePNG: func(w io.Writer, img image.Image, _ int) error {
			return png.Encode(w, img)
		},
	}
)

// imageExt returns the lowercased extension of filename and its MIME type.
// Returns ErrImageTypeNotSupported for anything but .jpg, .jpeg and .png.
func imageExt(filename string) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	mimeType, ok := imageExtTypes[ext]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", domain.ErrImageTypeNotSupported, ext)
	}

	return ext, mimeType, nil
}

func hasSignature(data []byte, mimeType string) bool {
	return bytes.HasPrefix(data, imageSignatures[mimeType])
}

func getDecoderByType(mimeType string) (func(io.Reader) (image.Image, error), error) {
	decoder, ok := imageDecoders[mimeType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrImageTypeNotSupported, mimeType)
	}

	return decoder, nil
}

func getEncoderByType(mimeType string) (encodeFunc, error) {
	encoder, ok := imageEncoders[mimeType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrImageTypeNotSupported, mimeType)
	}

	return encoder, nil
}
