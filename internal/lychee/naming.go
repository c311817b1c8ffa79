package lychee

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

// albumSeparator joins the path segments of a flattened album name.
const albumSeparator = "_"

// photoExtensions are the recognized image types, matched case-insensitively.
var photoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".png":  true,
}

// AlbumNamer maps a directory path relative to the watch root to an album name.
// Callers must not pass "." (the watch root has no album).
type AlbumNamer interface {
	AlbumName(relPath string) string
}

// FlatNamer joins all path segments with "_" and lowercases the result.
// Distinct directories can collide, e.g. "2024/my_trip" and "2024_my/trip".
type FlatNamer struct{}

func (FlatNamer) AlbumName(relPath string) string { return ResolveAlbumName(relPath) }

// HashedNamer is FlatNamer with a short digest of the raw relative path
// appended, so colliding flat names stay distinct.
type HashedNamer struct{}

func (HashedNamer) AlbumName(relPath string) string {
	sum := sha1.Sum([]byte(filepath.ToSlash(filepath.Clean(relPath))))
	return ResolveAlbumName(relPath) + "-" + hex.EncodeToString(sum[:])[:8]
}

// NewAlbumNamer returns the namer registered under strategy ("flat" or "hashed").
// An empty strategy selects "flat".
func NewAlbumNamer(strategy string) (AlbumNamer, error) {
	switch strategy {
	case "", "flat":
		return FlatNamer{}, nil
	case "hashed":
		return HashedNamer{}, nil
	default:
		return nil, fmt.Errorf("unknown naming strategy: %s", strategy)
	}
}

// ResolveAlbumName flattens a relative directory path into an album name:
// "2024/Trip" becomes "2024_trip".
func ResolveAlbumName(relPath string) string {
	segments := strings.Split(filepath.ToSlash(filepath.Clean(relPath)), "/")
	return strings.ToLower(strings.Join(segments, albumSeparator))
}

// IsPhoto reports whether the file name has a recognized image extension.
func IsPhoto(name string) bool {
	return photoExtensions[strings.ToLower(filepath.Ext(name))]
}

// ManagedName returns the basename a photo gets in the managed tree. It is
// derived from the album name and original name only, so a delete event can
// compute it without a catalog row.
func ManagedName(albumName, originalName string) string {
	sum := md5.Sum([]byte(albumName + "/" + originalName))
	return hex.EncodeToString(sum[:]) + strings.ToLower(filepath.Ext(originalName))
}

// Thumb2xName returns the name of the large thumbnail for a managed name.
func Thumb2xName(url string) string {
	ext := filepath.Ext(url)
	return strings.ToLower(strings.TrimSuffix(url, ext) + "@2x" + ext)
}
