package lychee

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
)

// ScanSource ingests every image of the source tree that is not yet
// catalogued. It returns the number of photos added.
func (s *SyncService) ScanSource() (int, error) {
	root, err := s.fsmgr.Resolve(s.opts.SourceDir)
	if err != nil {
		return 0, fmt.Errorf("%w: resolving source dir: %w", ErrFilesystem, err)
	}
	if !root.IsDir() {
		return 0, fmt.Errorf("%w: source dir %s is not a directory", ErrFilesystem, root.String())
	}
	return s.IngestTree(root)
}

// ReorderAlbums renumbers album ids so that ascending id matches ascending
// name. New ids start at 1 when the range below the current minimum is free,
// otherwise right after the current maximum.
func (s *SyncService) ReorderAlbums() error {
	albums, err := s.catalog.ListAlbums()
	if err != nil {
		return fmt.Errorf("%w: listing albums: %w", ErrCatalog, err)
	}
	if len(albums) == 0 {
		return nil
	}
	sort.Slice(albums, func(i, j int) bool { return albums[i].Name < albums[j].Name })

	minID, maxID, err := s.catalog.AlbumMinMaxIDs()
	if err != nil {
		return fmt.Errorf("%w: reading album id range: %w", ErrCatalog, err)
	}
	next := maxID + 1
	if int64(len(albums))+1 < minID {
		next = 1
	}

	for _, a := range albums {
		if err := s.catalog.RenumberAlbum(a.ID, next); err != nil {
			return fmt.Errorf("%w: renumbering album %s: %w", ErrCatalog, a.Name, err)
		}
		s.logger.Debug("album renumbered", "album", a.Name, "from", a.ID, "to", next)
		next++
	}
	s.logger.Info("albums reordered", "count", len(albums))
	return s.LoadAlbums()
}

// RefreshAlbumDates sets every album's timestamp to the capture time of its
// newest photo. Empty albums are left alone.
func (s *SyncService) RefreshAlbumDates() error {
	albums, err := s.catalog.ListAlbums()
	if err != nil {
		return fmt.Errorf("%w: listing albums: %w", ErrCatalog, err)
	}
	for _, a := range albums {
		photos, err := s.catalog.ListPhotosByAlbum(a.ID)
		if err != nil {
			return fmt.Errorf("%w: listing photos of %s: %w", ErrCatalog, a.Name, err)
		}
		var newest Photo
		for _, p := range photos {
			if p.TakenAt.After(newest.TakenAt) {
				newest = *p
			}
		}
		if newest.TakenAt.IsZero() {
			continue
		}
		if err := s.catalog.UpdateAlbumTimestamp(a.ID, newest.TakenAt); err != nil {
			return fmt.Errorf("%w: updating album %s: %w", ErrCatalog, a.Name, err)
		}
		s.logger.Debug("album date refreshed", "album", a.Name, "date", newest.TakenAt)
	}
	return nil
}

// Wipe removes every managed file and every catalog row. File removal
// failures are returned after the catalog has been cleared.
func (s *SyncService) Wipe() error {
	names, err := s.fsmgr.ListDir(s.BigDir())
	if err != nil {
		return fmt.Errorf("%w: listing %s: %w", ErrFilesystem, s.BigDir(), err)
	}
	purgeErr := s.purge(names)

	// Thumbnails whose full-size file is already gone.
	thumbs, err := s.fsmgr.ListDir(s.ThumbDir())
	if err != nil {
		return fmt.Errorf("%w: listing %s: %w", ErrFilesystem, s.ThumbDir(), err)
	}
	var errs []error
	if purgeErr != nil {
		errs = append(errs, purgeErr)
	}
	for _, name := range thumbs {
		if !IsPhoto(name) {
			continue
		}
		if err := s.fsmgr.Remove(filepath.Join(s.ThumbDir(), name)); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrFilesystem, err))
		}
	}

	if err := s.catalog.DeleteAll(); err != nil {
		return fmt.Errorf("%w: clearing catalog: %w", ErrCatalog, err)
	}
	s.albums.reset()
	s.logger.Info("catalog and managed tree wiped", "files", len(names))
	return errors.Join(errs...)
}

// RepairReport counts what Repair changed.
type RepairReport struct {
	StaleRows   int
	Ingested    int
	OrphanFiles int
	EmptyAlbums int
}

// Repair reconciles the catalog, the managed tree and the source tree:
// rows whose source or managed file is gone are dropped, source images
// missing from the catalog are ingested, managed files nothing references
// are removed, and albums without photos are deleted.
func (s *SyncService) Repair() (*RepairReport, error) {
	report := &RepairReport{}

	photos, err := s.catalog.ListPhotos()
	if err != nil {
		return nil, fmt.Errorf("%w: listing photos: %w", ErrCatalog, err)
	}
	for _, p := range photos {
		stale, err := s.isStale(p)
		if err != nil {
			return nil, err
		}
		if !stale {
			continue
		}
		if _, err := s.catalog.DeletePhoto(p.AlbumID, p.OriginalName); err != nil {
			return nil, fmt.Errorf("%w: deleting stale photo %s: %w", ErrCatalog, p.OriginalName, err)
		}
		if err := s.purge([]string{p.URL}); err != nil {
			s.logger.Warn("purging stale photo", "url", p.URL, "error", err)
		}
		s.logger.Info("stale photo removed", "photo", p.OriginalName, "url", p.URL)
		report.StaleRows++
	}
	if report.StaleRows > 0 {
		if err := s.LoadAlbums(); err != nil {
			return nil, err
		}
	}

	n, err := s.ScanSource()
	report.Ingested = n
	if err != nil {
		s.logger.Warn("some source images were not ingested", "error", err)
	}

	photos, err = s.catalog.ListPhotos()
	if err != nil {
		return nil, fmt.Errorf("%w: listing photos: %w", ErrCatalog, err)
	}
	referenced := make(map[string]bool, len(photos))
	for _, p := range photos {
		referenced[p.URL] = true
	}
	names, err := s.fsmgr.ListDir(s.BigDir())
	if err != nil {
		return nil, fmt.Errorf("%w: listing %s: %w", ErrFilesystem, s.BigDir(), err)
	}
	for _, name := range names {
		if referenced[name] || !IsPhoto(name) {
			continue
		}
		if err := s.purge([]string{name}); err != nil {
			s.logger.Warn("removing orphan file", "url", name, "error", err)
			continue
		}
		s.logger.Info("orphan file removed", "url", name)
		report.OrphanFiles++
	}

	albums, err := s.catalog.ListAlbums()
	if err != nil {
		return nil, fmt.Errorf("%w: listing albums: %w", ErrCatalog, err)
	}
	for _, a := range albums {
		has, err := s.catalog.AlbumHasPhotos(a.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: checking album %s: %w", ErrCatalog, a.Name, err)
		}
		if has {
			continue
		}
		if _, err := s.removeAlbum(a); err != nil {
			return nil, err
		}
		report.EmptyAlbums++
	}

	return report, nil
}

// isStale reports whether a photo row has lost its source image or its
// managed file. Rows without a recorded source are only checked against the
// managed tree.
func (s *SyncService) isStale(p *Photo) (bool, error) {
	managed, err := s.fsmgr.Exists(filepath.Join(s.BigDir(), p.URL))
	if err != nil {
		return false, fmt.Errorf("%w: checking %s: %w", ErrFilesystem, p.URL, err)
	}
	if !managed {
		return true, nil
	}
	if p.SourcePath == "" {
		return false, nil
	}
	source, err := s.fsmgr.Exists(p.SourcePath)
	if err != nil {
		return false, fmt.Errorf("%w: checking %s: %w", ErrFilesystem, p.SourcePath, err)
	}
	return !source, nil
}
