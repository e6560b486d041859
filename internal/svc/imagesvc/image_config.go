package imagesvc

// ImageConfig holds configuration parameters for the image service.
type ImageConfig struct {
	// MaxSize is the maximum accepted upload size in bytes
	MaxSize int64 `env:"MAX_SIZE" default:"10485760"`

	// Interpolator specifies the image scaling algorithm to use.
	// Valid values are: "nearestneighbor", "catmullrom", "bilinear", "approxbilinear"
	Interpolator string `env:"INTERPOLATOR" default:"catmullrom"`

	// JPEGQuality is the encoder quality for resized JPEG images, 1 to 100
	JPEGQuality int `env:"JPEG_QUALITY" default:"90"`
}
