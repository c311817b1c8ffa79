package testutil

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// NewTestImage returns a w×h image whose left half is red and right half
// blue, so crops and rotations can be told apart.
func NewTestImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 255, A: 255}
			if x >= w/2 {
				c = color.NRGBA{B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// WriteTestImage encodes a w×h test image to path, creating parent
// directories. The format follows the extension (.jpg/.jpeg, .png, .gif).
func WriteTestImage(t *testing.T, path string, w, h int) {
	t.Helper()
	writeImageFile(t, path, encodeImage(t, path, w, h))
}

// WriteTestJPEGWithExif writes a JPEG carrying an EXIF block with the given
// orientation and, unless zero, capture time.
func WriteTestJPEGWithExif(t *testing.T, path string, w, h, orientation int, taken time.Time) {
	t.Helper()
	data := encodeImage(t, path, w, h)
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Fatalf("WriteTestJPEGWithExif: %s is not a JPEG path", path)
	}

	segment := exifSegment(orientation, taken)
	out := make([]byte, 0, len(data)+len(segment))
	out = append(out, data[:2]...) // SOI
	out = append(out, segment...)
	out = append(out, data[2:]...)
	writeImageFile(t, path, out)
}

func encodeImage(t *testing.T, path string, w, h int) []byte {
	t.Helper()
	img := NewTestImage(w, h)

	var buf bytes.Buffer
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95})
	case ".png":
		err = png.Encode(&buf, img)
	case ".gif":
		err = gif.Encode(&buf, img, nil)
	default:
		t.Fatalf("encodeImage: unsupported extension %q", filepath.Ext(path))
	}
	if err != nil {
		t.Fatalf("encoding %s: %v", path, err)
	}
	return buf.Bytes()
}

func writeImageFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// exifSegment builds a big-endian APP1 segment with an IFD0 holding
// Orientation and, if taken is set, DateTime.
func exifSegment(orientation int, taken time.Time) []byte {
	be := binary.BigEndian

	entries := 1
	var stamp []byte
	if !taken.IsZero() {
		entries = 2
		stamp = append([]byte(taken.Format("2006:01:02 15:04:05")), 0)
	}

	const ifdOffset = 8
	dataOffset := ifdOffset + 2 + entries*12 + 4

	tiff := make([]byte, dataOffset)
	copy(tiff, "MM")
	be.PutUint16(tiff[2:], 42)
	be.PutUint32(tiff[4:], ifdOffset)
	be.PutUint16(tiff[ifdOffset:], uint16(entries))

	entry := tiff[ifdOffset+2:]
	be.PutUint16(entry[0:], 0x0112) // Orientation
	be.PutUint16(entry[2:], 3)      // SHORT
	be.PutUint32(entry[4:], 1)
	be.PutUint16(entry[8:], uint16(orientation))

	if stamp != nil {
		entry = entry[12:]
		be.PutUint16(entry[0:], 0x0132) // DateTime
		be.PutUint16(entry[2:], 2)      // ASCII
		be.PutUint32(entry[4:], uint32(len(stamp)))
		be.PutUint32(entry[8:], uint32(dataOffset))
		tiff = append(tiff, stamp...)
	}

	payload := append([]byte("Exif\x00\x00"), tiff...)
	segment := []byte{0xFF, 0xE1, 0, 0}
	be.PutUint16(segment[2:], uint16(len(payload)+2))
	return append(segment, payload...)
}
