package imgproc

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rwcarlsen/goexif/exif"

	"lycheesync/internal/lychee"
)

// ExifReader implements lychee.MetadataReader with rwcarlsen/goexif.
type ExifReader struct{}

// NewExifReader creates an ExifReader.
func NewExifReader() *ExifReader {
	return &ExifReader{}
}

// Read returns the EXIF metadata of the file at path. Formats without EXIF
// and files whose EXIF block cannot be parsed yield an empty Metadata.
func (r *ExifReader) Read(path string) (*lychee.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	md := &lychee.Metadata{}

	// A non-critical error still returns the tags that could be read.
	x, err := exif.Decode(f)
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		return md, nil
	}

	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			md.Orientation = v
		}
	}
	if t, err := x.DateTime(); err == nil {
		md.TakenAt = t
	}
	md.Make = stringTag(x, exif.Make)
	md.Model = stringTag(x, exif.Model)

	if tag, err := x.Get(exif.ISOSpeedRatings); err == nil {
		if v, err := tag.Int(0); err == nil {
			md.ISO = strconv.Itoa(v)
		}
	}
	if num, den, ok := ratTag(x, exif.FNumber); ok {
		md.Aperture = "f/" + strconv.FormatFloat(float64(num)/float64(den), 'f', 1, 64)
	}
	if num, den, ok := ratTag(x, exif.ExposureTime); ok {
		md.Shutter = formatShutter(num, den)
	}
	if num, den, ok := ratTag(x, exif.FocalLength); ok {
		md.Focal = strconv.FormatFloat(float64(num)/float64(den), 'f', -1, 64) + " mm"
	}

	return md, nil
}

func stringTag(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return s
}

func ratTag(x *exif.Exif, name exif.FieldName) (int64, int64, bool) {
	tag, err := x.Get(name)
	if err != nil {
		return 0, 0, false
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return 0, 0, false
	}
	return num, den, true
}

// formatShutter renders an exposure time the way cameras display it:
// "1/250 s" below one second, "2 s" otherwise.
func formatShutter(num, den int64) string {
	if num <= 0 {
		return ""
	}
	if num < den {
		return fmt.Sprintf("1/%d s", (den+num/2)/num)
	}
	return strconv.FormatFloat(float64(num)/float64(den), 'f', -1, 64) + " s"
}

// Compile-time check that ExifReader implements lychee.MetadataReader
var _ lychee.MetadataReader = (*ExifReader)(nil)
