package lychee

import "errors"

// Error kinds returned by the engine. Check them with errors.Is:
//
//	if errors.Is(err, lychee.ErrDuplicateAlbumName) {
//	    // re-resolve the album by name
//	}
var (
	// ErrNotAPhoto is returned when a path is not a recognized image type.
	// It is a classification result, not a failure.
	ErrNotAPhoto = errors.New("not a photo")

	// ErrDuplicateAlbumName is returned by Catalog.CreateAlbum when an album
	// with the same name already exists.
	ErrDuplicateAlbumName = errors.New("album name already exists")

	// ErrDuplicatePhoto is returned by Catalog.InsertPhoto when the album
	// already holds a photo with the same original name.
	ErrDuplicatePhoto = errors.New("photo already exists in album")

	// ErrAlbumNotFound is returned when an operation references an album
	// that no longer exists.
	ErrAlbumNotFound = errors.New("album not found")

	// ErrThumbnailGeneration is returned when a thumbnail cannot be decoded,
	// resized or encoded. It aborts the ingestion of one photo.
	ErrThumbnailGeneration = errors.New("thumbnail generation failed")

	// ErrCatalog wraps any catalog gateway failure.
	ErrCatalog = errors.New("catalog error")

	// ErrFilesystem wraps copy, link, chmod, chown and remove failures.
	ErrFilesystem = errors.New("filesystem error")
)

// ErrorKind returns a short category for err, used as a log attribute.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotAPhoto):
		return "skip"
	case errors.Is(err, ErrThumbnailGeneration):
		return "thumbnail"
	case errors.Is(err, ErrCatalog),
		errors.Is(err, ErrDuplicateAlbumName),
		errors.Is(err, ErrDuplicatePhoto),
		errors.Is(err, ErrAlbumNotFound):
		return "catalog"
	case errors.Is(err, ErrFilesystem):
		return "filesystem"
	default:
		return "other"
	}
}
