package lychee

import (
	"errors"
	"fmt"
	"path/filepath"
)

// DeleteSourcePath mirrors the removal of a source path. An image path
// removes one photo (and its album when it was the last one); any other
// path is treated as a directory and removes its album, the albums of its
// subdirectories and every managed file they referenced.
func (s *SyncService) DeleteSourcePath(rawPath string) error {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", rawPath, err)
	}
	if IsPhoto(absPath) {
		return s.deletePhoto(absPath)
	}
	return s.deleteDirectory(absPath)
}

func (s *SyncService) deletePhoto(absPath string) error {
	rel, err := s.relativeDir(filepath.Dir(absPath))
	if err != nil {
		return err
	}
	if rel == "." {
		return nil
	}

	name := filepath.Base(absPath)
	albumName := s.namer.AlbumName(rel)

	album, err := s.resolveAlbum(rel, false)
	if err != nil {
		return err
	}
	if album != nil {
		albumDeleted, err := s.catalog.DeletePhoto(album.ID, name)
		if err != nil {
			return fmt.Errorf("%w: deleting photo %s: %w", ErrCatalog, name, err)
		}
		s.logger.Info("photo removed", "album", albumName, "photo", name)
		if albumDeleted {
			s.albums.evict(albumName)
			s.logger.Info("album removed", "album", albumName, "reason", "empty")
		}
	}

	url := ManagedName(albumName, name)
	if !s.opts.PurgeOnPhotoDelete {
		s.logger.Warn("managed files kept for deleted photo", "url", url)
		return nil
	}
	return s.purge([]string{url})
}

func (s *SyncService) deleteDirectory(absPath string) error {
	rel, err := s.relativeDir(absPath)
	if err != nil {
		return err
	}
	if rel == "." {
		s.logger.Warn("watch root removed", "path", absPath)
		return nil
	}

	var urls []string

	album, err := s.resolveAlbum(rel, false)
	if err != nil {
		return err
	}
	if album != nil {
		removed, err := s.removeAlbum(album)
		if err != nil {
			return err
		}
		urls = append(urls, removed...)
	}

	nested, err := s.catalog.FindAlbumsByPathPrefix(rel)
	if err != nil {
		return fmt.Errorf("%w: finding nested albums: %w", ErrCatalog, err)
	}
	for _, a := range nested {
		removed, err := s.removeAlbum(a)
		if err != nil {
			return err
		}
		urls = append(urls, removed...)
	}

	return s.purge(urls)
}

// removeAlbum deletes an album and its photo rows and returns their URLs.
func (s *SyncService) removeAlbum(album *Album) ([]string, error) {
	urls, err := s.catalog.DeleteAlbum(album.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: deleting album %s: %w", ErrCatalog, album.Name, err)
	}
	s.albums.evict(album.Name)
	s.logger.Info("album removed", "album", album.Name, "photos", len(urls))
	return urls, nil
}

// ManagedFiles returns the full-size image and both thumbnails of url.
func (s *SyncService) ManagedFiles(url string) []string {
	return []string{
		filepath.Join(s.BigDir(), url),
		filepath.Join(s.ThumbDir(), url),
		filepath.Join(s.ThumbDir(), Thumb2xName(url)),
	}
}

// purge removes the managed files of every url. It keeps going after a
// failure and returns all failures joined.
func (s *SyncService) purge(urls []string) error {
	var errs []error
	for _, url := range urls {
		if !IsPhoto(url) {
			continue
		}
		for _, p := range s.ManagedFiles(url) {
			if err := s.fsmgr.Remove(p); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: purging managed files: %w", ErrFilesystem, errors.Join(errs...))
	}
	return nil
}
