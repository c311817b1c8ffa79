// Package imgproc implements the image capabilities of the sync engine:
// decoding, square thumbnails, quarter-turn rotation and EXIF reading.
package imgproc

import (
	"fmt"
	"image"
	_ "image/gif" // decoders for DecodeConfig
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"lycheesync/internal/lychee"
)

// DefaultJPEGQuality is the quality used when re-encoding JPEG output.
const DefaultJPEGQuality = 99

// Processor implements lychee.ImageProcessor with disintegration/imaging.
// Images are decoded as stored; the EXIF orientation tag is not applied here.
type Processor struct {
	quality int
}

// NewProcessor creates a Processor that encodes JPEG output at quality.
func NewProcessor(quality int) *Processor {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &Processor{quality: quality}
}

// Inspect returns the dimensions and MIME type of the image at path
// without decoding the pixels.
func (p *Processor) Inspect(path string) (*lychee.ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image header: %w", err)
	}
	return &lychee.ImageInfo{Width: cfg.Width, Height: cfg.Height, Type: "image/" + format}, nil
}

// Thumbnail writes a size×size thumbnail of src to dst. The longer side is
// cropped symmetrically around the center; the square is only scaled down,
// never up. The output format follows dst's extension.
func (p *Processor) Thumbnail(src, dst string, size int) error {
	if size <= 0 {
		return fmt.Errorf("invalid thumbnail size %d", size)
	}

	img, err := imaging.Open(src)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", src, err)
	}

	b := img.Bounds()
	side := min(b.Dx(), b.Dy())
	thumb := imaging.CropCenter(img, side, side)
	if side > size {
		thumb = imaging.Resize(thumb, size, size, imaging.Lanczos)
	}

	return p.writeNew(dst, thumb)
}

// Rotate rotates the image at path by a multiple of 90 degrees,
// counter-clockwise for positive angles, and re-encodes it in place.
// The file keeps its mode and owner.
func (p *Processor) Rotate(path string, degrees int) error {
	var rotate func(image.Image) *image.NRGBA
	switch ((degrees % 360) + 360) % 360 {
	case 0:
		return nil
	case 90:
		rotate = imaging.Rotate90
	case 180:
		rotate = imaging.Rotate180
	case 270:
		rotate = imaging.Rotate270
	default:
		return fmt.Errorf("unsupported rotation %d", degrees)
	}

	img, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return fmt.Errorf("opening %s for writing: %w", path, err)
	}
	if err := imaging.Encode(f, rotate(img), format, imaging.JPEGQuality(p.quality)); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

// writeNew encodes img to dst through a temp file and a rename, so readers
// never see a partial image.
func (p *Processor) writeNew(dst string, img image.Image) error {
	format, err := imaging.FormatFromFilename(dst)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if err := imaging.Encode(tmp, img, format, imaging.JPEGQuality(p.quality)); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("failed to set mode: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Compile-time check that Processor implements lychee.ImageProcessor
var _ lychee.ImageProcessor = (*Processor)(nil)
