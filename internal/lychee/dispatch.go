package lychee

import (
	"context"
	"errors"
	"fmt"
)

// Dispatch applies one filesystem event. A move is a delete of the old
// path followed by an ingestion of the new one; between the two the photo
// is briefly absent from the catalog.
func (s *SyncService) Dispatch(ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while handling %s: %v", ev, r)
		}
	}()

	switch ev.Kind {
	case EventCreated:
		return s.ingestPath(ev.Path)
	case EventDeleted:
		return s.DeleteSourcePath(ev.Path)
	case EventMoved:
		delErr := s.DeleteSourcePath(ev.Path)
		return errors.Join(delErr, s.ingestPath(ev.ToPath))
	default:
		return fmt.Errorf("unknown event kind: %d", ev.Kind)
	}
}

// ingestPath ingests a created image, or every image below a created directory.
func (s *SyncService) ingestPath(rawPath string) error {
	path, err := s.fsmgr.Resolve(rawPath)
	if err != nil {
		if !IsPhoto(rawPath) {
			// Gone again before we got to it; nothing to mirror.
			return nil
		}
		return fmt.Errorf("%w: resolving %s: %w", ErrFilesystem, rawPath, err)
	}

	if path.IsDir() {
		n, err := s.IngestTree(path)
		if n > 0 {
			s.logger.Info("directory ingested", "path", path.String(), "photos", n)
		}
		return err
	}
	if !path.IsPhoto() {
		s.logger.Debug("not a photo", "path", path.String())
		return nil
	}
	_, err = s.ingestFile(path)
	return err
}

// Run handles events one at a time until ctx is cancelled or events is
// closed. A failing event is logged and never stops the loop; an event in
// flight when ctx is cancelled is finished first.
func (s *SyncService) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.handle(ev)
		}
	}
}

func (s *SyncService) handle(ev Event) {
	s.logger.Debug("event", "event", ev.String())
	if err := s.Dispatch(ev); err != nil {
		s.logger.Error("event failed", "event", ev.String(), "kind", ErrorKind(err), "error", err)
	}
}
