package lychee

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Options carries the configuration the engine consumes.
type Options struct {
	SourceDir  string // watched root, absolute
	LycheePath string // managed tree root, absolute

	// Link materializes photos as symbolic links instead of copies.
	Link bool
	// UID and GID own the managed files; -1 leaves ownership unchanged.
	UID int
	GID int

	PublicAlbum bool

	// PurgeOnPhotoDelete removes the managed files of a deleted photo. When
	// false only the catalog row goes and the files are left as orphans.
	PurgeOnPhotoDelete bool
}

// SyncService is the orchestration layer that keeps the catalog and the
// managed tree in step with the source tree.
type SyncService struct {
	catalog Catalog
	fsmgr   FilesystemManager
	images  ImageProcessor
	meta    MetadataReader
	namer   AlbumNamer
	logger  Logger
	clock   Clock
	opts    Options

	albums *albumCache
}

// NewSyncService creates a new SyncService with the provided dependencies.
func NewSyncService(catalog Catalog, fsmgr FilesystemManager, images ImageProcessor, meta MetadataReader, namer AlbumNamer, logger Logger, clock Clock, opts Options) *SyncService {
	return &SyncService{
		catalog: catalog,
		fsmgr:   fsmgr,
		images:  images,
		meta:    meta,
		namer:   namer,
		logger:  logger,
		clock:   clock,
		opts:    opts,
		albums:  newAlbumCache(),
	}
}

// LoadAlbums fills the album cache from the catalog. The cache is only a
// fast path; a stale entry is corrected on the next failed insert.
func (s *SyncService) LoadAlbums() error {
	albums, err := s.catalog.ListAlbums()
	if err != nil {
		return fmt.Errorf("%w: listing albums: %w", ErrCatalog, err)
	}
	s.albums.reset()
	for _, a := range albums {
		s.albums.put(a.Name, a.ID)
	}
	s.logger.Debug("album cache loaded", "count", len(albums))
	return nil
}

// BigDir returns the directory holding full-size managed images.
func (s *SyncService) BigDir() string {
	return filepath.Join(s.opts.LycheePath, "uploads", "big")
}

// ThumbDir returns the directory holding managed thumbnails.
func (s *SyncService) ThumbDir() string {
	return filepath.Join(s.opts.LycheePath, "uploads", "thumb")
}

// relativeDir returns dir relative to the watch root.
func (s *SyncService) relativeDir(dir string) (string, error) {
	rel, err := filepath.Rel(s.opts.SourceDir, dir)
	if err != nil {
		return "", fmt.Errorf("calculating relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path is outside the watched tree: %s", dir)
	}
	return rel, nil
}

// resolveAlbum returns the album mirroring relPath. When create is true a
// missing album is created; a concurrent creator winning the race is
// resolved by looking the name up again. When create is false a missing
// album yields nil.
func (s *SyncService) resolveAlbum(relPath string, create bool) (*Album, error) {
	name := s.namer.AlbumName(relPath)

	if id, ok := s.albums.get(name); ok {
		return &Album{ID: id, Name: name, Path: relPath}, nil
	}

	album, err := s.catalog.FindAlbumByName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: finding album %s: %w", ErrCatalog, name, err)
	}
	if album == nil && create {
		album, err = s.catalog.CreateAlbum(name, relPath, s.opts.PublicAlbum)
		switch {
		case errors.Is(err, ErrDuplicateAlbumName):
			s.logger.Debug("album created concurrently", "album", name)
			album, err = s.catalog.FindAlbumByName(name)
			if err != nil {
				return nil, fmt.Errorf("%w: re-resolving album %s: %w", ErrCatalog, name, err)
			}
			if album == nil {
				return nil, fmt.Errorf("%w: album %s vanished after duplicate create", ErrCatalog, name)
			}
		case err != nil:
			return nil, fmt.Errorf("%w: creating album %s: %w", ErrCatalog, name, err)
		default:
			s.logger.Info("album created", "album", name, "id", album.ID)
		}
	}
	if album == nil {
		return nil, nil
	}

	s.albums.put(album.Name, album.ID)
	return album, nil
}

// albumCache is the non-authoritative name → id map.
type albumCache struct {
	mu  sync.Mutex
	ids map[string]int64
}

func newAlbumCache() *albumCache {
	return &albumCache{ids: make(map[string]int64)}
}

func (c *albumCache) get(name string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.ids[name]
	return id, ok
}

func (c *albumCache) put(name string, id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids[name] = id
}

func (c *albumCache) evict(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.ids, name)
}

func (c *albumCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = make(map[string]int64)
}
