package lychee_test

import (
	"errors"
	"fmt"
	"testing"

	"lycheesync/internal/lychee"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"skip", fmt.Errorf("%w: a.txt", lychee.ErrNotAPhoto), "skip"},
		{"thumbnail", fmt.Errorf("%w: decode", lychee.ErrThumbnailGeneration), "thumbnail"},
		{"catalog", fmt.Errorf("%w: insert: boom", lychee.ErrCatalog), "catalog"},
		{"duplicate album", fmt.Errorf("create: %w", lychee.ErrDuplicateAlbumName), "catalog"},
		{"filesystem", fmt.Errorf("%w: copy", lychee.ErrFilesystem), "filesystem"},
		{"joined", errors.Join(nil, fmt.Errorf("%w: copy", lychee.ErrFilesystem)), "filesystem"},
		{"other", errors.New("boom"), "other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lychee.ErrorKind(tt.err); got != tt.want {
				t.Errorf("ErrorKind() = %q, want %q", got, tt.want)
			}
		})
	}
}
