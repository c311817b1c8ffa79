package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"lycheesync/internal/database"
	"lycheesync/internal/fs"
	"lycheesync/internal/imgproc"
	"lycheesync/internal/lychee"
)

// EnvConfig adjusts a test environment before the service is built.
type EnvConfig struct {
	Options lychee.Options
	Namer   lychee.AlbumNamer
	Ignore  []string
}

// Env is a sync service wired to real temp directories, the real image
// processor and an in-memory catalog, with fault hooks around both.
type Env struct {
	SourceDir  string
	LycheePath string

	Store   *database.SQLiteCatalog
	Catalog *FaultyCatalog
	Images  *FaultyImages
	Logger  *RecordingLogger
	Clock   *StubClock
	Service *lychee.SyncService
}

// NewEnv builds an Env with copy mode, unchanged ownership and purging on.
func NewEnv(t *testing.T, configure ...func(*EnvConfig)) *Env {
	t.Helper()

	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "lychee")
	for _, d := range []string{src, dst} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("creating %s: %v", d, err)
		}
	}

	cfg := EnvConfig{
		Options: lychee.Options{
			SourceDir:          src,
			LycheePath:         dst,
			UID:                -1,
			GID:                -1,
			PurgeOnPhotoDelete: true,
		},
		Namer: lychee.FlatNamer{},
	}
	for _, c := range configure {
		c(&cfg)
	}

	env := &Env{
		SourceDir:  src,
		LycheePath: dst,
		Store:      NewTestCatalog(t),
		Logger:     NewRecordingLogger(),
		Clock:      FixedClock(),
	}
	env.Catalog = &FaultyCatalog{Catalog: env.Store}
	env.Images = &FaultyImages{ImageProcessor: imgproc.NewProcessor(imgproc.DefaultJPEGQuality)}
	env.Service = lychee.NewSyncService(
		env.Catalog,
		fs.NewOSFilesystemManager(cfg.Ignore),
		env.Images,
		imgproc.NewExifReader(),
		cfg.Namer,
		env.Logger,
		env.Clock,
		cfg.Options,
	)
	if err := env.Service.LoadAlbums(); err != nil {
		t.Fatalf("LoadAlbums() error = %v", err)
	}
	return env
}

// Src returns the absolute path of rel inside the source tree.
func (e *Env) Src(rel string) string {
	return filepath.Join(e.SourceDir, filepath.FromSlash(rel))
}

// AddPhoto writes a w×h test image at rel inside the source tree.
func (e *Env) AddPhoto(t *testing.T, rel string, w, h int) string {
	t.Helper()
	p := e.Src(rel)
	WriteTestImage(t, p, w, h)
	return p
}

// ManagedFiles returns the full-size, thumbnail and @2x paths of url.
func (e *Env) ManagedFiles(url string) (big, thumb, thumb2x string) {
	return filepath.Join(e.LycheePath, "uploads", "big", url),
		filepath.Join(e.LycheePath, "uploads", "thumb", url),
		filepath.Join(e.LycheePath, "uploads", "thumb", lychee.Thumb2xName(url))
}

// Exists reports whether something is at path, without following links.
func Exists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Lstat(path)
	if err == nil {
		return true
	}
	if os.IsNotExist(err) {
		return false
	}
	t.Fatalf("lstat %s: %v", path, err)
	return false
}
