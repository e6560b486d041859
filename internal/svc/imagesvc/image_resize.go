package imagesvc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"

	"golang.org/x/image/draw"
)

// ErrUnknownInterpolator is returned when an unsupported interpolation method is specified.
var ErrUnknownInterpolator = errors.New("unknown interpolator")

//nolint:gochecknoglobals
var interpolMap = map[string]draw.Interpolator{
	"nearestneighbor": draw.NearestNeighbor,
	"catmullrom":      draw.CatmullRom,
	"bilinear":        draw.BiLinear,
	"approxbilinear":  draw.ApproxBiLinear,
}

func getInterpolatorByName(name string) (draw.Interpolator, error) {
	interpol, ok := interpolMap[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInterpolator, name)
	}

	return interpol, nil
}

// resizer scales images down to a target width keeping the aspect ratio.
type resizer struct {
	interpol draw.Interpolator
	quality  int
}

func newResizer(cfg ImageConfig) (*resizer, error) {
	interpol, err := getInterpolatorByName(cfg.Interpolator)
	if err != nil {
		return nil, err
	}

	quality := cfg.JPEGQuality
	if quality < 1 || quality > 100 {
		quality = 90
	}

	return &resizer{interpol: interpol, quality: quality}, nil
}

// resize returns data scaled to width. Images already at most width pixels
// wide are returned unchanged with resized == false.
func (rs *resizer) resize(data []byte, mimeType string, width int) (_ []byte, resized bool, err error) {
	decode, err := getDecoderByType(mimeType)
	if err != nil {
		return nil, false, err
	}

	original, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("decode image: %w", err)
	}

	bounds := original.Bounds()
	if width <= 0 || width >= bounds.Dx() {
		return data, false, nil
	}

	height := max(1, bounds.Dy()*width/bounds.Dx())

	bitmap := image.NewRGBA(image.Rect(0, 0, width, height))
	rs.interpol.Scale(bitmap, bitmap.Bounds(), original, bounds, draw.Src, nil)

	encode, err := getEncoderByType(mimeType)
	if err != nil {
		return nil, false, err
	}

	var buf bytes.Buffer
	if err := encode(&buf, bitmap, rs.quality); err != nil {
		return nil, false, fmt.Errorf("encode image: %w", err)
	}

	return buf.Bytes(), true, nil
}
