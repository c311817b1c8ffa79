package lychee

import "fmt"

// Thumbnail edge lengths in pixels.
const (
	ThumbSize   = 200
	Thumb2xSize = 400
)

// GenerateThumbnails writes the small and the @2x square thumbnails of
// photo under uploads/thumb and returns their paths. The source image is
// never modified. A failure removes any thumbnail already written.
func (s *SyncService) GenerateThumbnails(photo *Photo) (string, string, error) {
	if err := s.fsmgr.MkdirAll(s.ThumbDir()); err != nil {
		return "", "", fmt.Errorf("%w: creating %s: %w", ErrFilesystem, s.ThumbDir(), err)
	}

	if err := s.images.Thumbnail(photo.SourcePath, photo.ThumbPath, ThumbSize); err != nil {
		return "", "", fmt.Errorf("%w: %s: %w", ErrThumbnailGeneration, photo.ThumbPath, err)
	}

	if err := s.images.Thumbnail(photo.SourcePath, photo.Thumb2xPath, Thumb2xSize); err != nil {
		if rerr := s.fsmgr.Remove(photo.ThumbPath); rerr != nil {
			s.logger.Warn("removing partial thumbnail", "path", photo.ThumbPath, "error", rerr)
		}
		return "", "", fmt.Errorf("%w: %s: %w", ErrThumbnailGeneration, photo.Thumb2xPath, err)
	}

	s.logger.Debug("thumbnails written", "thumb", photo.ThumbPath, "thumb2x", photo.Thumb2xPath)
	return photo.ThumbPath, photo.Thumb2xPath, nil
}
