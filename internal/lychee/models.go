package lychee

import (
	"database/sql"
	"time"
)

// Album is a flat catalog container mirroring one source directory.
type Album struct {
	ID        int64
	Name      string // derived from Path by an AlbumNamer, unique in the catalog
	Path      string // source directory relative to the watch root
	CreatedAt time.Time
	Public    bool
}

// Photo is a catalogued image together with the managed files derived from it.
// URL, ThumbURL and the managed paths are pure functions of the album name
// and OriginalName (see ManagedName).
type Photo struct {
	ID           int64
	AlbumID      int64
	OriginalName string // source basename, stored as the photo title
	Description  string
	Star         bool
	Public       bool

	URL      string // basename under uploads/big
	ThumbURL string // basename under uploads/thumb

	SourcePath  string
	ManagedPath string
	ThumbPath   string
	Thumb2xPath string

	Type     string // MIME type
	Width    int
	Height   int
	Size     int64
	Checksum string // SHA-1 of the source bytes

	TakenAt     time.Time
	Orientation int

	ISO      string
	Aperture string
	Make     string
	Model    string
	Shutter  string
	Focal    string
}

// Operation records one mutating CLI invocation.
type Operation struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Operation  string
	Parameters string
	Status     string
}
