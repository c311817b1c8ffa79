package lychee_test

import (
	"testing"

	"lycheesync/internal/fs"
	"lycheesync/internal/lychee"
	"lycheesync/internal/testutil"
)

func findAlbum(t *testing.T, env *testutil.Env, name string) *lychee.Album {
	t.Helper()
	album, err := env.Store.FindAlbumByName(name)
	if err != nil {
		t.Fatalf("FindAlbumByName(%q) error = %v", name, err)
	}
	return album
}

func mustAlbum(t *testing.T, env *testutil.Env, name string) *lychee.Album {
	t.Helper()
	album := findAlbum(t, env, name)
	if album == nil {
		t.Fatalf("album %q not found", name)
	}
	return album
}

func mustPhoto(t *testing.T, env *testutil.Env, albumName, originalName string) *lychee.Photo {
	t.Helper()
	album := mustAlbum(t, env, albumName)
	photo, err := env.Store.FindPhoto(album.ID, originalName)
	if err != nil {
		t.Fatalf("FindPhoto(%q) error = %v", originalName, err)
	}
	if photo == nil {
		t.Fatalf("photo %q not found in album %q", originalName, albumName)
	}
	return photo
}

func countAlbums(t *testing.T, env *testutil.Env) int {
	t.Helper()
	albums, err := env.Store.ListAlbums()
	if err != nil {
		t.Fatalf("ListAlbums() error = %v", err)
	}
	return len(albums)
}

func countPhotos(t *testing.T, env *testutil.Env) int {
	t.Helper()
	photos, err := env.Store.ListPhotos()
	if err != nil {
		t.Fatalf("ListPhotos() error = %v", err)
	}
	return len(photos)
}

func mustIngest(t *testing.T, env *testutil.Env, path string) {
	t.Helper()
	if err := env.Service.Ingest(path); err != nil {
		t.Fatalf("Ingest(%s) error = %v", path, err)
	}
}

// assertManaged checks that all three managed files of url exist (or not).
func assertManaged(t *testing.T, env *testutil.Env, url string, want bool) {
	t.Helper()
	big, thumb, thumb2x := env.ManagedFiles(url)
	for _, p := range []string{big, thumb, thumb2x} {
		if got := testutil.Exists(t, p); got != want {
			t.Errorf("exists(%s) = %v, want %v", p, got, want)
		}
	}
}

func resolve(t *testing.T, path string) *lychee.Path {
	t.Helper()
	p, err := fs.NewOSFilesystemManager(nil).Resolve(path)
	if err != nil {
		t.Fatalf("Resolve(%s) error = %v", path, err)
	}
	return p
}
