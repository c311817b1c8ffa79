package lychee

import "time"

// Catalog is the gateway to the gallery's album and photo records.
// Every mutating method is atomic on its own; callers never assume a
// transaction spanning several calls.
type Catalog interface {
	// Album operations

	// FindAlbumByName returns the album with the given name, or nil if none exists.
	FindAlbumByName(name string) (*Album, error)

	// FindAlbumsByPathPrefix returns albums mirroring strict descendants of relPath.
	FindAlbumsByPathPrefix(relPath string) ([]*Album, error)

	// CreateAlbum inserts a new album. It returns ErrDuplicateAlbumName when
	// another writer created an album with the same name first; callers must
	// re-resolve by name rather than retry.
	CreateAlbum(name, relPath string, public bool) (*Album, error)

	// ListAlbums returns every album ordered by id.
	ListAlbums() ([]*Album, error)

	// AlbumHasPhotos reports whether any photo references the album.
	AlbumHasPhotos(id int64) (bool, error)

	// DeleteAlbum removes the album and all its photo rows, returning the
	// URLs of the removed photos so their managed files can be purged.
	DeleteAlbum(id int64) ([]string, error)

	// Photo operations

	// DeletePhoto removes a photo row. If it was the album's last photo the
	// album row is removed too and albumDeleted is true.
	DeletePhoto(albumID int64, originalName string) (albumDeleted bool, err error)

	// InsertPhoto inserts a photo row and sets photo.ID. It returns
	// ErrDuplicatePhoto if the album already holds the original name and
	// ErrAlbumNotFound if the album no longer exists.
	InsertPhoto(photo *Photo) error

	// PhotoExists reports whether the album holds a photo with the original name.
	PhotoExists(albumID int64, originalName string) (bool, error)

	// FindPhoto returns a photo by album and original name, or nil if none exists.
	FindPhoto(albumID int64, originalName string) (*Photo, error)

	// ListPhotos returns every photo.
	ListPhotos() ([]*Photo, error)

	// ListPhotosByAlbum returns the photos of one album.
	ListPhotosByAlbum(albumID int64) ([]*Photo, error)

	// Maintenance operations

	// AlbumMinMaxIDs returns the smallest and largest album ids, or 0, 0 when empty.
	AlbumMinMaxIDs() (min int64, max int64, err error)

	// RenumberAlbum changes an album id; photos follow the new id.
	RenumberAlbum(oldID, newID int64) error

	// UpdateAlbumTimestamp sets the album's creation timestamp.
	UpdateAlbumTimestamp(id int64, t time.Time) error

	// DeleteAll removes every album and photo row.
	DeleteAll() error

	// Operation records

	CreateOperation(operation, parameters string) (*Operation, error)
	FinishOperation(id int64, status string) error
	ListOperations(limit int) ([]*Operation, error)

	// Close closes the catalog connection.
	Close() error
}
