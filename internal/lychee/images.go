package lychee

import "time"

// Metadata is the embedded image metadata the engine uses.
// Zero values mean the tag was absent.
type Metadata struct {
	Orientation int
	TakenAt     time.Time
	Make        string
	Model       string
	ISO         string
	Aperture    string
	Shutter     string
	Focal       string
}

// ImageInfo describes a decoded image.
type ImageInfo struct {
	Width  int
	Height int
	Type   string // MIME type
}

// ImageProcessor decodes, transforms and encodes images.
type ImageProcessor interface {
	// Inspect returns the dimensions and MIME type of the image at path.
	Inspect(path string) (*ImageInfo, error)

	// Thumbnail writes a size×size center crop of src to dst.
	Thumbnail(src, dst string, size int) error

	// Rotate rotates the image at path in place by a multiple of 90 degrees,
	// counter-clockwise for positive angles, and re-encodes it.
	Rotate(path string, degrees int) error
}

// MetadataReader reads embedded metadata (EXIF) from an image file.
type MetadataReader interface {
	// Read returns the metadata of the file at path. Files without metadata
	// yield an empty Metadata and no error.
	Read(path string) (*Metadata, error)
}
