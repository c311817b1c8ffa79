package lychee

import "fmt"

// EXIF orientation codes that need a quarter turn.
const (
	OrientationRotate90CW  = 6
	OrientationRotate90CCW = 8
)

// rotationFor returns the counter-clockwise rotation in degrees that makes
// an image with the given orientation code upright. Mirrored and 180°
// codes are not handled and return 0.
func rotationFor(orientation int) int {
	switch orientation {
	case OrientationRotate90CW:
		return -90
	case OrientationRotate90CCW:
		return 90
	default:
		return 0
	}
}

// CorrectOrientation rotates the managed image and both thumbnails upright.
// Re-encoding drops the embedded orientation tag, which is what we want once
// the pixels are rotated. In link mode the managed image is the user's
// source file and is left alone; only the thumbnails are rotated.
func (s *SyncService) CorrectOrientation(photo *Photo) error {
	degrees := rotationFor(photo.Orientation)
	if degrees == 0 {
		return nil
	}

	targets := []string{photo.ThumbPath, photo.Thumb2xPath}
	if s.opts.Link {
		s.logger.Debug("leaving linked source unrotated", "path", photo.SourcePath)
	} else {
		targets = append([]string{photo.ManagedPath}, targets...)
	}

	for _, target := range targets {
		if err := s.images.Rotate(target, degrees); err != nil {
			return fmt.Errorf("rotating %s: %w", target, err)
		}
	}

	if !s.opts.Link {
		photo.Width, photo.Height = photo.Height, photo.Width
		photo.Orientation = 1
	}
	s.logger.Debug("orientation corrected", "path", photo.ManagedPath, "degrees", degrees)
	return nil
}
