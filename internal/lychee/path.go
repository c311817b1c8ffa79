package lychee

import (
	"io/fs"
	"path/filepath"
)

// Path is a source-tree entry that FilesystemManager.Resolve (or FindFiles)
// has already stat'ed: absolute, existing, and a regular file or directory.
type Path struct {
	abs   string
	isDir bool
	info  fs.FileInfo
}

// NewPath wraps an absolute path and its stat result. Only FilesystemManager
// implementations should call it.
func NewPath(abs string, isDir bool, info fs.FileInfo) *Path {
	return &Path{abs: abs, isDir: isDir, info: info}
}

func (p *Path) String() string { return p.abs }

func (p *Path) IsDir() bool { return p.isDir }

// Info returns the stat result captured at resolution time.
func (p *Path) Info() fs.FileInfo { return p.info }

// Name is the basename, which becomes the photo title.
func (p *Path) Name() string { return filepath.Base(p.abs) }

// Dir is the directory that determines the photo's album.
func (p *Path) Dir() string { return filepath.Dir(p.abs) }

// IsPhoto reports whether p is a file with a recognized image extension.
func (p *Path) IsPhoto() bool { return !p.isDir && IsPhoto(p.abs) }
