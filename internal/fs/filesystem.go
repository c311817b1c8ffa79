package fs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"lycheesync/internal/lychee"
)

// OSFilesystemManager is the real filesystem implementation of lychee.FilesystemManager.
type OSFilesystemManager struct {
	ignore []string // patterns from config, applied in addition to the ignore file

	mu       sync.Mutex
	matchers map[string]cachedMatcher // keyed by tree root
}

type cachedMatcher struct {
	matcher *IgnoreMatcher
	modTime time.Time
}

// NewOSFilesystemManager creates a filesystem manager that operates on the
// real filesystem, ignoring paths that match patterns.
func NewOSFilesystemManager(patterns []string) *OSFilesystemManager {
	return &OSFilesystemManager{
		ignore:   patterns,
		matchers: make(map[string]cachedMatcher),
	}
}

// Resolve validates a raw path and returns a Path object.
// Symlinks are followed; the resolved target must be a regular file or directory.
func (m *OSFilesystemManager) Resolve(rawPath string) (*lychee.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}

	mode := info.Mode()
	if mode&os.ModeDevice != 0 {
		return nil, fmt.Errorf("device files not supported: %s", absPath)
	}
	if mode&os.ModeNamedPipe != 0 {
		return nil, fmt.Errorf("named pipes not supported: %s", absPath)
	}
	if mode&os.ModeSocket != 0 {
		return nil, fmt.Errorf("sockets not supported: %s", absPath)
	}

	return lychee.NewPath(absPath, info.IsDir(), info), nil
}

// Open opens a file for reading.
func (m *OSFilesystemManager) Open(path *lychee.Path) (io.ReadCloser, error) {
	if path.IsDir() {
		return nil, fmt.Errorf("cannot open directory as file: %s", path.String())
	}
	return os.Open(path.String())
}

// FindFiles discovers regular files under the given directory path.
// Hidden directories are not descended into.
func (m *OSFilesystemManager) FindFiles(path *lychee.Path, recursive bool) ([]*lychee.Path, error) {
	if !path.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path.String())
	}

	var paths []*lychee.Path

	if !recursive {
		entries, err := os.ReadDir(path.String())
		if err != nil {
			return nil, fmt.Errorf("reading directory: %w", err)
		}
		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
			}
			paths = append(paths, lychee.NewPath(filepath.Join(path.String(), entry.Name()), false, info))
		}
		return paths, nil
	}

	root := path.String()
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		paths = append(paths, lychee.NewPath(p, false, info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}
	return paths, nil
}

// IsIgnored reports whether path matches the ignore rules of the tree rooted at root:
// hidden names, configured patterns and the patterns of root's ignore file.
func (m *OSFilesystemManager) IsIgnored(path *lychee.Path, root string) (bool, error) {
	rel, err := filepath.Rel(root, path.String())
	if err != nil {
		return false, fmt.Errorf("calculating relative path: %w", err)
	}
	matcher, err := m.matcherFor(root)
	if err != nil {
		return false, err
	}
	return matcher.Match(rel), nil
}

// matcherFor returns the matcher of root, re-reading the ignore file when it changed.
func (m *OSFilesystemManager) matcherFor(root string) (*IgnoreMatcher, error) {
	ignoreFile := filepath.Join(root, IgnoreFileName)

	var modTime time.Time
	if info, err := os.Stat(ignoreFile); err == nil {
		modTime = info.ModTime()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if cached, ok := m.matchers[root]; ok && cached.modTime.Equal(modTime) {
		return cached.matcher, nil
	}

	filePatterns, err := ParseIgnoreFile(ignoreFile)
	if err != nil {
		return nil, err
	}
	patterns := append(append([]string{}, m.ignore...), filePatterns...)
	matcher := NewIgnoreMatcher(patterns)
	m.matchers[root] = cachedMatcher{matcher: matcher, modTime: modTime}
	return matcher, nil
}

// CopyFile copies src to dst using atomic write (temp file + rename) so the
// gallery never serves a half-written image. The source permission bits are kept.
func (m *OSFilesystemManager) CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}

	// Temp file in the destination directory so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, in)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != info.Size() {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", info.Size(), written)
	}
	if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to set mode: %w", err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Symlink creates dst pointing at src, replacing whatever was at dst.
func (m *OSFilesystemManager) Symlink(src, dst string) error {
	if err := m.Remove(dst); err != nil {
		return err
	}
	if err := os.Symlink(src, dst); err != nil {
		return fmt.Errorf("creating symlink: %w", err)
	}
	return nil
}

// Remove removes a file or link. A missing file is not an error.
func (m *OSFilesystemManager) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// Exists reports whether something exists at path. Links are not followed.
func (m *OSFilesystemManager) Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}

// ListDir returns the names of the non-directory entries of dir.
// A missing dir yields no entries.
func (m *OSFilesystemManager) ListDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// MkdirAll creates dir and its parents.
func (m *OSFilesystemManager) MkdirAll(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return nil
}

// Compile-time check that OSFilesystemManager implements lychee.FilesystemManager interface
var _ lychee.FilesystemManager = (*OSFilesystemManager)(nil)
