package fs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreFileName is the per-tree ignore file, read from the watch root.
const IgnoreFileName = ".lycheeignore"

type matchKind int

const (
	matchBase matchKind = iota // pattern without '/': basename
	matchPath                  // pattern with '/': full relative path
	matchDir                   // pattern ending in '/': any directory segment
)

type ignorePattern struct {
	pattern string
	kind    matchKind
}

// IgnoreMatcher checks relative paths against ignore patterns.
// Names starting with '.' are always ignored, at any depth; this also covers
// the ignore file itself and editor temp files.
type IgnoreMatcher struct {
	patterns []ignorePattern
}

// NewIgnoreMatcher creates an IgnoreMatcher from raw pattern strings.
// Blank lines and lines starting with '#' are skipped.
func NewIgnoreMatcher(rawPatterns []string) *IgnoreMatcher {
	var patterns []ignorePattern
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		switch {
		case strings.HasSuffix(raw, "/"):
			patterns = append(patterns, ignorePattern{pattern: strings.TrimSuffix(raw, "/"), kind: matchDir})
		case strings.Contains(raw, "/"):
			patterns = append(patterns, ignorePattern{pattern: raw, kind: matchPath})
		default:
			patterns = append(patterns, ignorePattern{pattern: raw, kind: matchBase})
		}
	}
	return &IgnoreMatcher{patterns: patterns}
}

// Match reports whether the given path, relative to the tree root, is ignored.
func (m *IgnoreMatcher) Match(relativePath string) bool {
	if relativePath == "" || relativePath == "." {
		return false
	}

	normalized := filepath.ToSlash(relativePath)
	segments := strings.Split(normalized, "/")
	for _, seg := range segments {
		if isHidden(seg) {
			return true
		}
	}

	basename := segments[len(segments)-1]
	dirs := segments[:len(segments)-1]

	for _, p := range m.patterns {
		switch p.kind {
		case matchBase:
			if match(p.pattern, basename) {
				return true
			}
		case matchPath:
			if match(p.pattern, normalized) {
				return true
			}
		case matchDir:
			for _, d := range dirs {
				if match(p.pattern, d) {
					return true
				}
			}
		}
	}
	return false
}

// match is filepath.Match with bad patterns treated as non-matching.
func match(pattern, name string) bool {
	ok, err := filepath.Match(pattern, name)
	return err == nil && ok
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// ParseIgnoreFile reads an ignore file and returns the raw pattern strings.
// Returns nil and no error if the file does not exist.
func ParseIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		patterns = append(patterns, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return patterns, nil
}
