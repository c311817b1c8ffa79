//go:build unix

package fs

import (
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// Lchown changes ownership of path without following links.
// Negative ids are left unchanged.
func (m *OSFilesystemManager) Lchown(path string, uid, gid int) error {
	if uid < 0 && gid < 0 {
		return nil
	}
	if err := unix.Lchown(path, uid, gid); err != nil {
		return &os.PathError{Op: "lchown", Path: path, Err: err}
	}
	return nil
}

// AddMode adds permission bits to the file at path, following links.
func (m *OSFilesystemManager) AddMode(path string, bits fs.FileMode) error {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return &os.PathError{Op: "stat", Path: path, Err: err}
	}

	mode := uint32(st.Mode)&0o7777 | uint32(bits.Perm())
	if err := unix.Chmod(path, mode); err != nil {
		return &os.PathError{Op: "chmod", Path: path, Err: err}
	}
	return nil
}
