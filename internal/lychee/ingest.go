package lychee

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
)

// Ingest turns one source image into managed files and a catalog row.
// Paths without an image extension return ErrNotAPhoto. Replayed events for
// a photo that is already catalogued are a no-op.
func (s *SyncService) Ingest(rawPath string) error {
	if !IsPhoto(rawPath) {
		return fmt.Errorf("%w: %s", ErrNotAPhoto, rawPath)
	}
	path, err := s.fsmgr.Resolve(rawPath)
	if err != nil {
		return fmt.Errorf("%w: resolving %s: %w", ErrFilesystem, rawPath, err)
	}
	if path.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrNotAPhoto, rawPath)
	}
	_, err = s.ingestFile(path)
	return err
}

// IngestTree ingests every image below dir. A failing file is logged and
// the walk continues; the failures are returned joined.
// Returns the number of photos added.
func (s *SyncService) IngestTree(dir *Path) (int, error) {
	files, err := s.fsmgr.FindFiles(dir, true)
	if err != nil {
		return 0, fmt.Errorf("%w: finding files: %w", ErrFilesystem, err)
	}

	added := 0
	var errs []error
	for _, f := range files {
		if !f.IsPhoto() {
			continue
		}
		ok, err := s.ingestFile(f)
		if err != nil {
			s.logger.Error("ingestion failed", "path", f.String(), "kind", ErrorKind(err), "error", err)
			errs = append(errs, err)
			continue
		}
		if ok {
			added++
		}
	}
	return added, errors.Join(errs...)
}

// ingestFile runs the ingestion pipeline for one resolved image file.
// It returns false when the file was skipped.
//
// Ordering: managed files are written before the catalog row, so a failure
// between the two leaves an inert orphan file rather than a row pointing at
// nothing.
func (s *SyncService) ingestFile(path *Path) (bool, error) {
	ignored, err := s.fsmgr.IsIgnored(path, s.opts.SourceDir)
	if err != nil {
		return false, fmt.Errorf("%w: checking ignore rules: %w", ErrFilesystem, err)
	}
	if ignored {
		s.logger.Debug("ignored", "path", path.String())
		return false, nil
	}

	rel, err := s.relativeDir(path.Dir())
	if err != nil {
		return false, err
	}
	if rel == "." {
		s.logger.Debug("photo at watch root has no album", "path", path.String())
		return false, nil
	}

	album, err := s.resolveAlbum(rel, true)
	if err != nil {
		return false, err
	}

	name := path.Name()
	exists, err := s.catalog.PhotoExists(album.ID, name)
	if err != nil {
		return false, fmt.Errorf("%w: checking photo %s: %w", ErrCatalog, name, err)
	}
	if exists {
		s.logger.Debug("photo already synchronized", "album", album.Name, "photo", name)
		return false, nil
	}

	photo, err := s.describePhoto(path, album)
	if err != nil {
		return false, err
	}

	if err := s.materialize(photo); err != nil {
		return false, err
	}

	if _, _, err := s.GenerateThumbnails(photo); err != nil {
		if perr := s.purge([]string{photo.URL}); perr != nil {
			s.logger.Warn("cleanup after thumbnail failure incomplete", "url", photo.URL, "error", perr)
		}
		return false, err
	}

	if err := s.CorrectOrientation(photo); err != nil {
		s.logger.Warn("orientation not corrected", "path", path.String(), "error", err)
	}

	if err := s.insertPhoto(photo, rel); err != nil {
		s.logger.Warn("managed files left without catalog row", "url", photo.URL)
		return false, err
	}
	if photo.ID == 0 {
		return false, nil
	}

	s.logger.Info("photo added", "album", album.Name, "photo", name, "url", photo.URL)
	return true, nil
}

// insertPhoto registers photo, re-resolving the album once if the cached id
// turned out to be stale. A concurrent insert of the same photo is not an
// error; photo.ID stays 0 in that case.
func (s *SyncService) insertPhoto(photo *Photo, rel string) error {
	err := s.catalog.InsertPhoto(photo)
	if errors.Is(err, ErrAlbumNotFound) {
		name := s.namer.AlbumName(rel)
		s.logger.Debug("cached album is stale", "album", name, "id", photo.AlbumID)
		s.albums.evict(name)

		album, rerr := s.resolveAlbum(rel, true)
		if rerr != nil {
			return rerr
		}
		photo.AlbumID = album.ID
		err = s.catalog.InsertPhoto(photo)
	}
	if errors.Is(err, ErrDuplicatePhoto) {
		s.logger.Debug("photo inserted concurrently", "photo", photo.OriginalName)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: inserting photo %s: %w", ErrCatalog, photo.OriginalName, err)
	}
	return nil
}

// describePhoto builds the photo descriptor from stat data, image
// dimensions, embedded metadata and the source checksum.
func (s *SyncService) describePhoto(path *Path, album *Album) (*Photo, error) {
	name := path.Name()
	url := ManagedName(album.Name, name)

	info, err := s.images.Inspect(path.String())
	if err != nil {
		return nil, fmt.Errorf("%w: inspecting %s: %w", ErrThumbnailGeneration, path.String(), err)
	}

	meta, err := s.meta.Read(path.String())
	if err != nil {
		s.logger.Debug("no readable metadata", "path", path.String(), "error", err)
		meta = &Metadata{}
	}

	checksum, err := s.checksum(path)
	if err != nil {
		return nil, err
	}

	takenAt := meta.TakenAt
	if takenAt.IsZero() {
		takenAt = s.clock.Now()
	}

	return &Photo{
		AlbumID:      album.ID,
		OriginalName: name,
		Public:       s.opts.PublicAlbum,
		URL:          url,
		ThumbURL:     url,
		SourcePath:   path.String(),
		ManagedPath:  filepath.Join(s.BigDir(), url),
		ThumbPath:    filepath.Join(s.ThumbDir(), url),
		Thumb2xPath:  filepath.Join(s.ThumbDir(), Thumb2xName(url)),
		Type:         info.Type,
		Width:        info.Width,
		Height:       info.Height,
		Size:         path.Info().Size(),
		Checksum:     checksum,
		TakenAt:      takenAt,
		Orientation:  meta.Orientation,
		ISO:          meta.ISO,
		Aperture:     meta.Aperture,
		Make:         meta.Make,
		Model:        meta.Model,
		Shutter:      meta.Shutter,
		Focal:        meta.Focal,
	}, nil
}

// checksum returns the hex SHA-1 of the file's bytes.
func (s *SyncService) checksum(path *Path) (string, error) {
	r, err := s.fsmgr.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: opening %s: %w", ErrFilesystem, path.String(), err)
	}
	defer r.Close()

	h := sha1.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("%w: reading %s: %w", ErrFilesystem, path.String(), err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// materialize copies or links the source into uploads/big and adjusts
// ownership and permissions so the gallery can serve it.
func (s *SyncService) materialize(photo *Photo) error {
	if err := s.fsmgr.MkdirAll(s.BigDir()); err != nil {
		return fmt.Errorf("%w: creating %s: %w", ErrFilesystem, s.BigDir(), err)
	}

	if s.opts.Link {
		if err := s.fsmgr.Symlink(photo.SourcePath, photo.ManagedPath); err != nil {
			return fmt.Errorf("%w: linking %s: %w", ErrFilesystem, photo.ManagedPath, err)
		}
	} else {
		if err := s.fsmgr.CopyFile(photo.SourcePath, photo.ManagedPath); err != nil {
			return fmt.Errorf("%w: copying %s: %w", ErrFilesystem, photo.ManagedPath, err)
		}
	}

	if err := s.fsmgr.Lchown(photo.ManagedPath, s.opts.UID, s.opts.GID); err != nil {
		return fmt.Errorf("%w: chown %s: %w", ErrFilesystem, photo.ManagedPath, err)
	}

	if s.opts.Link {
		// The gallery reads through the link, so the source must be world-readable.
		if err := s.fsmgr.AddMode(photo.SourcePath, 0o004); err != nil {
			return fmt.Errorf("%w: chmod %s: %w", ErrFilesystem, photo.SourcePath, err)
		}
		return nil
	}
	if err := s.fsmgr.AddMode(photo.ManagedPath, 0o770); err != nil {
		return fmt.Errorf("%w: chmod %s: %w", ErrFilesystem, photo.ManagedPath, err)
	}
	return nil
}
