package testutil

import (
	"errors"
	"sync"

	"lycheesync/internal/lychee"
)

// ErrInjected is returned by the fault-injecting wrappers.
var ErrInjected = errors.New("injected failure")

// FaultyImages wraps an ImageProcessor and fails thumbnails of the given size.
type FaultyImages struct {
	lychee.ImageProcessor
	FailThumbnailSize int
	FailRotate        bool
}

func (f *FaultyImages) Thumbnail(src, dst string, size int) error {
	if size == f.FailThumbnailSize {
		return ErrInjected
	}
	return f.ImageProcessor.Thumbnail(src, dst, size)
}

func (f *FaultyImages) Rotate(path string, degrees int) error {
	if f.FailRotate {
		return ErrInjected
	}
	return f.ImageProcessor.Rotate(path, degrees)
}

// FaultyCatalog wraps a Catalog and lets tests intercept selected calls.
type FaultyCatalog struct {
	lychee.Catalog

	mu sync.Mutex
	// BeforeInsert runs before each InsertPhoto; a non-nil error is returned
	// instead of inserting.
	BeforeInsert func(photo *lychee.Photo) error
	// BeforeCreateAlbum runs before each CreateAlbum.
	BeforeCreateAlbum func(name string)
	Inserts           int
}

func (c *FaultyCatalog) InsertPhoto(photo *lychee.Photo) error {
	c.mu.Lock()
	c.Inserts++
	hook := c.BeforeInsert
	c.mu.Unlock()

	if hook != nil {
		if err := hook(photo); err != nil {
			return err
		}
	}
	return c.Catalog.InsertPhoto(photo)
}

func (c *FaultyCatalog) CreateAlbum(name, relPath string, public bool) (*lychee.Album, error) {
	if c.BeforeCreateAlbum != nil {
		c.BeforeCreateAlbum(name)
	}
	return c.Catalog.CreateAlbum(name, relPath, public)
}
