// Package watch turns fsnotify notifications for a source tree into
// lychee sync events.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"lycheesync/internal/config"
	"lycheesync/internal/lychee"
)

// Options tunes how raw notifications are coalesced.
type Options struct {
	// Settle is how long a created file must go without writes before
	// Created is emitted.
	Settle time.Duration
	// MoveWindow is how long a rename waits for the create of its new name.
	// An unpaired rename becomes Deleted. A paired file still waits to
	// settle before Moved is emitted.
	MoveWindow time.Duration
}

// Watcher watches a directory tree recursively and emits Created, Deleted
// and Moved events. Writes to settled files and permission changes are
// dropped.
type Watcher struct {
	root   string
	opts   Options
	logger lychee.Logger

	fsw    *fsnotify.Watcher
	events chan lychee.Event

	// Owned by the Run goroutine.
	creates map[string]pendingCreate
	renames []pendingRename

	closeOnce sync.Once
}

// pendingCreate is a file waiting to settle. A non-empty from means the
// create completed a rename and is emitted as Moved.
type pendingCreate struct {
	deadline time.Time
	from     string
}

type pendingRename struct {
	path     string
	deadline time.Time
}

// New creates a Watcher for root and registers every non-hidden directory
// below it. Events are produced once Run is called.
func New(root string, opts Options, logger lychee.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving watch root: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:    abs,
		opts:    opts,
		logger:  logger,
		fsw:     fsw,
		events:  make(chan lychee.Event, 100),
		creates: make(map[string]pendingCreate),
	}
	if err := w.addTree(abs); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// NewFromConfig creates a Watcher for root using the [watch] settings.
func NewFromConfig(root string, cfg config.WatchConfig, logger lychee.Logger) (*Watcher, error) {
	return New(root, Options{Settle: cfg.Settle.Duration, MoveWindow: cfg.MoveWindow.Duration}, logger)
}

// Events returns the channel of sync events. It is closed when Run returns.
func (w *Watcher) Events() <-chan lychee.Event {
	return w.events
}

// Close stops the underlying notifier. A running Run returns shortly after.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.fsw.Close()
	})
	return err
}

// Run converts notifications until ctx is cancelled or the watcher is
// closed. Pending creates are dropped on shutdown; the next start-up scan
// picks them up.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)
	defer w.Close()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		var due <-chan time.Time
		if next, ok := w.nextDeadline(); ok {
			timer.Reset(time.Until(next))
			due = timer.C
		}

		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev, time.Now())

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Error("watch queue overflowed; events were lost, run maintenance repair", "error", err)
				continue
			}
			w.logger.Warn("watch error", "error", err)

		case now := <-due:
			w.flush(ctx, now)
		}

		if due != nil && !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event, now time.Time) {
	path := ev.Name
	switch {
	case ev.Has(fsnotify.Create):
		w.created(ctx, path, now)

	case ev.Has(fsnotify.Write):
		if pc, ok := w.creates[path]; ok {
			pc.deadline = now.Add(w.opts.Settle)
			w.creates[path] = pc
		}

	case ev.Has(fsnotify.Remove):
		w.dropCreate(ctx, path)
		w.emit(ctx, lychee.Deleted(path))

	case ev.Has(fsnotify.Rename):
		w.dropCreate(ctx, path)
		w.unwatchTree(path)
		if w.renamePending(path) {
			return
		}
		w.renames = append(w.renames, pendingRename{path: path, deadline: now.Add(w.opts.MoveWindow)})
	}
}

func (w *Watcher) created(ctx context.Context, path string, now time.Time) {
	info, err := os.Lstat(path)
	if err != nil {
		// Already gone; a Remove follows.
		return
	}

	if info.IsDir() && !isHidden(filepath.Base(path)) {
		if err := w.addTree(path); err != nil {
			w.logger.Warn("watching new directory", "path", path, "error", err)
		}
	}

	var taken pendingRename
	if len(w.renames) > 0 {
		taken = w.renames[0]
		w.renames = w.renames[1:]
	}
	from := taken.path

	if info.IsDir() {
		// Files written before the watch was added are found by walking
		// the directory when the event is handled.
		if from != "" {
			w.emit(ctx, lychee.Moved(from, path))
		} else {
			w.emit(ctx, lychee.Created(path))
		}
		return
	}

	if pc, ok := w.creates[path]; ok && pc.from != "" {
		// Already paired; a rename taken for this create goes back to the queue.
		if from != "" {
			w.renames = append([]pendingRename{taken}, w.renames...)
		}
		from = pc.from
	}
	w.creates[path] = pendingCreate{deadline: now.Add(w.opts.Settle), from: from}
}

// dropCreate forgets a file that disappeared before settling. A rename it
// was paired with becomes a plain delete.
func (w *Watcher) dropCreate(ctx context.Context, path string) {
	pc, ok := w.creates[path]
	if !ok {
		return
	}
	delete(w.creates, path)
	if pc.from != "" {
		w.emit(ctx, lychee.Deleted(pc.from))
	}
}

func (w *Watcher) renamePending(path string) bool {
	for _, r := range w.renames {
		if r.path == path {
			return true
		}
	}
	return false
}

// unwatchTree drops the watches of path and everything below it. A renamed
// directory keeps its watches under the old names; the create of the new
// name registers the tree again.
func (w *Watcher) unwatchTree(path string) {
	prefix := path + string(filepath.Separator)
	for _, watched := range w.fsw.WatchList() {
		if watched == path || strings.HasPrefix(watched, prefix) {
			_ = w.fsw.Remove(watched)
		}
	}
}

// flush emits every create that has settled and every rename whose move
// window closed without a matching create.
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	for len(w.renames) > 0 && !w.renames[0].deadline.After(now) {
		w.emit(ctx, lychee.Deleted(w.renames[0].path))
		w.renames = w.renames[1:]
	}

	var settled []string
	for path, pc := range w.creates {
		if !pc.deadline.After(now) {
			settled = append(settled, path)
		}
	}
	slices.Sort(settled)
	for _, path := range settled {
		pc := w.creates[path]
		delete(w.creates, path)
		if pc.from != "" {
			w.emit(ctx, lychee.Moved(pc.from, path))
		} else {
			w.emit(ctx, lychee.Created(path))
		}
	}
}

func (w *Watcher) nextDeadline() (time.Time, bool) {
	var next time.Time
	for _, pc := range w.creates {
		if next.IsZero() || pc.deadline.Before(next) {
			next = pc.deadline
		}
	}
	if len(w.renames) > 0 {
		if d := w.renames[0].deadline; next.IsZero() || d.Before(next) {
			next = d
		}
	}
	return next, !next.IsZero()
}

func (w *Watcher) emit(ctx context.Context, ev lychee.Event) {
	w.logger.Debug("watch event", "event", ev.String())
	select {
	case w.events <- ev:
	case <-ctx.Done():
	}
}

// addTree watches dir and every non-hidden directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p != dir && errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
