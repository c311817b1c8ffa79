package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"lycheesync/internal/config"
	"lycheesync/internal/database"
	"lycheesync/internal/fs"
	"lycheesync/internal/imgproc"
	"lycheesync/internal/lychee"
	"lycheesync/internal/watch"
)

// SyncApp is the application layer between the CLI and SyncService.
// It constructs all dependencies from config, exposes the high-level
// operations and manages the catalog lifecycle on Close.
type SyncApp struct {
	cfg     *config.Config
	catalog *database.SQLiteCatalog
	fsmgr   *fs.OSFilesystemManager
	service *lychee.SyncService
	logger  lychee.Logger
	logFile io.Closer
	op      *operation
	runID   string
}

// NewSyncApp creates a fully wired SyncApp from the given config.
// command names the CLI command being run (e.g. "run", "repair").
// The caller must call Close when done.
func NewSyncApp(cfg *config.Config, command string) (*SyncApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	sourceDir, err := filepath.Abs(cfg.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("resolving source_dir: %w", err)
	}
	lycheePath, err := filepath.Abs(cfg.LycheePath)
	if err != nil {
		return nil, fmt.Errorf("resolving lychee_path: %w", err)
	}

	namer, err := lychee.NewAlbumNamer(cfg.Naming)
	if err != nil {
		return nil, err
	}

	uid, gid, err := resolveOwner(cfg.Owner)
	if err != nil {
		return nil, fmt.Errorf("resolving owner: %w", err)
	}

	catalog, err := database.NewCatalogFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating catalog: %w", err)
	}

	if err := catalog.CheckMigrations(); err != nil {
		catalog.Close()
		return nil, fmt.Errorf("catalog schema out of date: %w", err)
	}

	runID := uuid.New().String()
	slogger, logFile, err := newLogger(cfg.LogDir, runID, cfg.Verbose)
	if err != nil {
		catalog.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	fsmgr := fs.NewOSFilesystemManager(cfg.Filesystem.Ignore)
	svc := lychee.NewSyncService(
		catalog,
		fsmgr,
		imgproc.NewProcessor(imgproc.DefaultJPEGQuality),
		imgproc.NewExifReader(),
		namer,
		logger,
		lychee.RealClock{},
		lychee.Options{
			SourceDir:          sourceDir,
			LycheePath:         lycheePath,
			Link:               cfg.Link,
			UID:                uid,
			GID:                gid,
			PublicAlbum:        cfg.PublicAlbum,
			PurgeOnPhotoDelete: cfg.PurgeOnPhotoDelete,
		},
	)

	if err := svc.LoadAlbums(); err != nil {
		catalog.Close()
		logFile.Close()
		return nil, err
	}

	return &SyncApp{
		cfg:     cfg,
		catalog: catalog,
		fsmgr:   fsmgr,
		service: svc,
		logger:  logger,
		logFile: logFile,
		op:      &operation{name: command},
		runID:   runID,
	}, nil
}

// RunID identifies this invocation in the log file.
func (a *SyncApp) RunID() string {
	return a.runID
}

// persistOperation records the command in the history. Only catalog-mutating
// commands call it.
func (a *SyncApp) persistOperation(parameters string) error {
	return a.op.begin(a.catalog, parameters)
}

// track records the outcome of a mutating operation.
func (a *SyncApp) track(err error) error {
	return a.op.observe(err)
}

// Run synchronizes the source tree until ctx is cancelled. With
// scan_on_start the tree is scanned once after the watches are in place,
// so nothing created during the scan is missed.
func (a *SyncApp) Run(ctx context.Context) error {
	if err := a.persistOperation(a.cfg.SourceDir); err != nil {
		return err
	}

	w, err := watch.NewFromConfig(a.cfg.SourceDir, a.cfg.Watch, a.logger)
	if err != nil {
		return a.track(fmt.Errorf("starting watcher: %w", err))
	}

	a.logger.Info("watching", "source", a.cfg.SourceDir, "lychee", a.cfg.LycheePath, "link", a.cfg.Link)

	if a.cfg.ScanOnStart {
		n, err := a.service.ScanSource()
		if err != nil {
			a.logger.Warn("initial scan incomplete", "kind", lychee.ErrorKind(err), "error", err)
		}
		a.logger.Info("initial scan finished", "photos", n)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx)
	})
	g.Go(func() error {
		return a.service.Run(gctx, w.Events())
	})

	err = g.Wait()
	a.logger.Info("stopped")
	return a.track(err)
}

// Scan ingests every uncatalogued image of the source tree once.
func (a *SyncApp) Scan() (int, error) {
	if err := a.persistOperation(a.cfg.SourceDir); err != nil {
		return 0, err
	}
	n, err := a.service.ScanSource()
	return n, a.track(err)
}

// ReorderAlbums renumbers album ids in name order.
func (a *SyncApp) ReorderAlbums() error {
	if err := a.persistOperation(""); err != nil {
		return err
	}
	return a.track(a.service.ReorderAlbums())
}

// RefreshAlbumDates sets album dates from their newest photo.
func (a *SyncApp) RefreshAlbumDates() error {
	if err := a.persistOperation(""); err != nil {
		return err
	}
	return a.track(a.service.RefreshAlbumDates())
}

// Repair reconciles the catalog with both trees.
func (a *SyncApp) Repair() (*lychee.RepairReport, error) {
	if err := a.persistOperation(""); err != nil {
		return nil, err
	}
	report, err := a.service.Repair()
	return report, a.track(err)
}

// Wipe removes every managed file and catalog row.
func (a *SyncApp) Wipe() error {
	if err := a.persistOperation(a.cfg.LycheePath); err != nil {
		return err
	}
	return a.track(a.service.Wipe())
}

// History returns the most recent operation records.
func (a *SyncApp) History(limit int) ([]*lychee.Operation, error) {
	return a.catalog.ListOperations(limit)
}

// Close finalizes the operation record and closes all resources.
func (a *SyncApp) Close() error {
	var firstErr error

	if err := a.op.finish(a.catalog); err != nil {
		firstErr = err
	}

	if err := a.catalog.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing catalog: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}

// MigrateDatabase applies pending migrations to the configured catalog.
func MigrateDatabase(cfg *config.Config) error {
	catalog, err := database.NewCatalogFromConfig(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer catalog.Close()
	return catalog.Migrate()
}

// DatabaseStatus reports the schema version of the configured catalog.
func DatabaseStatus(cfg *config.Config) (string, error) {
	catalog, err := database.NewCatalogFromConfig(cfg.Database)
	if err != nil {
		return "", fmt.Errorf("opening catalog: %w", err)
	}
	defer catalog.Close()

	status, err := catalog.MigrationStatus()
	if err != nil {
		return "", err
	}
	return status.String(), nil
}
