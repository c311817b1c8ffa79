package lychee

import (
	"io"
	"io/fs"
)

// FilesystemManager abstracts access to both the watched source tree and the
// managed tree served by the gallery.
type FilesystemManager interface {
	// Resolve validates a raw path and returns a Path object.
	// It resolves the path to an absolute path, stats it, and validates
	// it's a regular file or directory (not a device, pipe or socket).
	Resolve(rawPath string) (*Path, error)

	// Open opens a file for reading.
	Open(path *Path) (io.ReadCloser, error)

	// FindFiles discovers regular files under the given directory path.
	FindFiles(path *Path, recursive bool) ([]*Path, error)

	// IsIgnored reports whether path matches the ignore rules of the tree rooted at root.
	IsIgnored(path *Path, root string) (bool, error)

	// CopyFile copies src to dst atomically (temp file + rename), preserving the mode.
	CopyFile(src, dst string) error

	// Symlink creates dst pointing at src, replacing an existing link.
	Symlink(src, dst string) error

	// Lchown changes ownership of path without following links. Negative ids are left unchanged.
	Lchown(path string, uid, gid int) error

	// AddMode adds permission bits to the file at path.
	AddMode(path string, bits fs.FileMode) error

	// Remove removes a file. A missing file is not an error.
	Remove(path string) error

	// Exists reports whether something exists at path (links are not followed).
	Exists(path string) (bool, error)

	// ListDir returns the names of the entries of dir. A missing dir yields no entries.
	ListDir(dir string) ([]string, error)

	// MkdirAll creates dir and its parents.
	MkdirAll(dir string) error
}
