package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"lycheesync/internal/database/migrations"
	"lycheesync/internal/lychee"
)

// SQLiteCatalog implements the lychee.Catalog interface using SQLite.
type SQLiteCatalog struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewSQLiteCatalog opens a catalog connection.
// path can be a file path or ":memory:" for an in-memory catalog.
func NewSQLiteCatalog(path string) (*SQLiteCatalog, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteCatalogFromDB(db, path), nil
}

// NewSQLiteCatalogFromDB wraps an existing connection opened with OpenConnection.
func NewSQLiteCatalogFromDB(db *sql.DB, path string) *SQLiteCatalog {
	return &SQLiteCatalog{db: db, path: path, now: time.Now}
}

// OpenConnection opens and configures a SQLite connection.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer. Also keeps ":memory:" on a single database.
	db.SetMaxOpenConns(1)

	// SQLite leaves foreign keys off by default.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// isConstraint reports whether err is a SQLite constraint violation of the given kind.
func isConstraint(err error, code sqlite3.ErrNoExtended) bool {
	var serr sqlite3.Error
	return errors.As(err, &serr) && serr.ExtendedCode == code
}

// escapeLike escapes LIKE wildcards; directory names often contain "_".
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Album operations

const albumColumns = "id, title, path, sysstamp, public"

func scanAlbum(row interface{ Scan(...any) error }) (*lychee.Album, error) {
	var (
		a        lychee.Album
		sysstamp int64
	)
	if err := row.Scan(&a.ID, &a.Name, &a.Path, &sysstamp, &a.Public); err != nil {
		return nil, err
	}
	a.CreatedAt = time.Unix(sysstamp, 0)
	return &a, nil
}

func (s *SQLiteCatalog) queryAlbums(query string, args ...any) ([]*lychee.Album, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var albums []*lychee.Album
	for rows.Next() {
		a, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		albums = append(albums, a)
	}
	return albums, rows.Err()
}

func (s *SQLiteCatalog) FindAlbumByName(name string) (*lychee.Album, error) {
	row := s.db.QueryRow("SELECT "+albumColumns+" FROM lychee_albums WHERE title = ?", name)
	album, err := scanAlbum(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding album by name: %w", err)
	}
	return album, nil
}

func (s *SQLiteCatalog) FindAlbumsByPathPrefix(relPath string) ([]*lychee.Album, error) {
	// Strict descendants only: the prefix itself does not match "prefix/%".
	pattern := escapeLike(filepath.ToSlash(relPath)) + "/%"
	albums, err := s.queryAlbums("SELECT "+albumColumns+` FROM lychee_albums WHERE path LIKE ? ESCAPE '\' ORDER BY id`, pattern)
	if err != nil {
		return nil, fmt.Errorf("finding albums by path prefix: %w", err)
	}
	return albums, nil
}

func (s *SQLiteCatalog) CreateAlbum(name, relPath string, public bool) (*lychee.Album, error) {
	created := s.now().Truncate(time.Second)
	res, err := s.db.Exec(
		"INSERT INTO lychee_albums (title, path, sysstamp, public) VALUES (?, ?, ?, ?)",
		name, filepath.ToSlash(relPath), created.Unix(), public,
	)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintUnique) {
			return nil, fmt.Errorf("creating album %s: %w", name, lychee.ErrDuplicateAlbumName)
		}
		return nil, fmt.Errorf("creating album: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading album id: %w", err)
	}
	return &lychee.Album{ID: id, Name: name, Path: filepath.ToSlash(relPath), CreatedAt: created, Public: public}, nil
}

func (s *SQLiteCatalog) ListAlbums() ([]*lychee.Album, error) {
	albums, err := s.queryAlbums("SELECT " + albumColumns + " FROM lychee_albums ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing albums: %w", err)
	}
	return albums, nil
}

func (s *SQLiteCatalog) AlbumHasPhotos(id int64) (bool, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM lychee_photos WHERE album = ?", id).Scan(&n); err != nil {
		return false, fmt.Errorf("counting album photos: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteCatalog) DeleteAlbum(id int64) ([]string, error) {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, "SELECT url FROM lychee_photos WHERE album = ? ORDER BY id", id)
	if err != nil {
		return nil, fmt.Errorf("listing album photos: %w", err)
	}
	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning photo url: %w", err)
		}
		urls = append(urls, url)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing album photos: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM lychee_photos WHERE album = ?", id); err != nil {
		return nil, fmt.Errorf("deleting album photos: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM lychee_albums WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("deleting album: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return urls, nil
}

// Photo operations

const photoColumns = `id, album, title, description, url, thumbUrl, source_path, public, star,
	type, width, height, size, checksum, takestamp, orientation,
	iso, aperture, make, model, shutter, focal`

func scanPhoto(row interface{ Scan(...any) error }) (*lychee.Photo, error) {
	var (
		p         lychee.Photo
		takestamp int64
	)
	err := row.Scan(&p.ID, &p.AlbumID, &p.OriginalName, &p.Description, &p.URL, &p.ThumbURL, &p.SourcePath,
		&p.Public, &p.Star, &p.Type, &p.Width, &p.Height, &p.Size, &p.Checksum, &takestamp, &p.Orientation,
		&p.ISO, &p.Aperture, &p.Make, &p.Model, &p.Shutter, &p.Focal)
	if err != nil {
		return nil, err
	}
	p.TakenAt = time.Unix(takestamp, 0)
	return &p, nil
}

func (s *SQLiteCatalog) queryPhotos(query string, args ...any) ([]*lychee.Photo, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []*lychee.Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

func (s *SQLiteCatalog) DeletePhoto(albumID int64, originalName string) (bool, error) {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM lychee_photos WHERE album = ? AND title = ?", albumID, originalName); err != nil {
		return false, fmt.Errorf("deleting photo: %w", err)
	}

	var remaining int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM lychee_photos WHERE album = ?", albumID).Scan(&remaining); err != nil {
		return false, fmt.Errorf("counting album photos: %w", err)
	}

	albumDeleted := false
	if remaining == 0 {
		res, err := tx.ExecContext(ctx, "DELETE FROM lychee_albums WHERE id = ?", albumID)
		if err != nil {
			return false, fmt.Errorf("deleting empty album: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("deleting empty album: %w", err)
		}
		albumDeleted = n > 0
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing transaction: %w", err)
	}
	return albumDeleted, nil
}

func (s *SQLiteCatalog) InsertPhoto(photo *lychee.Photo) error {
	res, err := s.db.Exec(`
		INSERT INTO lychee_photos (
			title, description, url, public, type, width, height, size,
			iso, aperture, make, model, shutter, focal, takestamp, star,
			thumbUrl, album, checksum, orientation, source_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		photo.OriginalName, photo.Description, photo.URL, photo.Public, photo.Type,
		photo.Width, photo.Height, photo.Size,
		photo.ISO, photo.Aperture, photo.Make, photo.Model, photo.Shutter, photo.Focal,
		photo.TakenAt.Unix(), photo.Star,
		photo.ThumbURL, photo.AlbumID, photo.Checksum, photo.Orientation, photo.SourcePath,
	)
	if err != nil {
		switch {
		case isConstraint(err, sqlite3.ErrConstraintUnique):
			return fmt.Errorf("inserting photo %s: %w", photo.OriginalName, lychee.ErrDuplicatePhoto)
		case isConstraint(err, sqlite3.ErrConstraintForeignKey):
			return fmt.Errorf("inserting photo %s into album %d: %w", photo.OriginalName, photo.AlbumID, lychee.ErrAlbumNotFound)
		}
		return fmt.Errorf("inserting photo: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading photo id: %w", err)
	}
	photo.ID = id
	return nil
}

func (s *SQLiteCatalog) PhotoExists(albumID int64, originalName string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM lychee_photos WHERE album = ? AND title = ?)",
		albumID, originalName,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking photo: %w", err)
	}
	return exists, nil
}

func (s *SQLiteCatalog) FindPhoto(albumID int64, originalName string) (*lychee.Photo, error) {
	row := s.db.QueryRow("SELECT "+photoColumns+" FROM lychee_photos WHERE album = ? AND title = ?", albumID, originalName)
	photo, err := scanPhoto(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding photo: %w", err)
	}
	return photo, nil
}

func (s *SQLiteCatalog) ListPhotos() ([]*lychee.Photo, error) {
	photos, err := s.queryPhotos("SELECT " + photoColumns + " FROM lychee_photos ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing photos: %w", err)
	}
	return photos, nil
}

func (s *SQLiteCatalog) ListPhotosByAlbum(albumID int64) ([]*lychee.Photo, error) {
	photos, err := s.queryPhotos("SELECT "+photoColumns+" FROM lychee_photos WHERE album = ? ORDER BY id", albumID)
	if err != nil {
		return nil, fmt.Errorf("listing album photos: %w", err)
	}
	return photos, nil
}

// Maintenance operations

func (s *SQLiteCatalog) AlbumMinMaxIDs() (int64, int64, error) {
	var minID, maxID sql.NullInt64
	if err := s.db.QueryRow("SELECT MIN(id), MAX(id) FROM lychee_albums").Scan(&minID, &maxID); err != nil {
		return 0, 0, fmt.Errorf("reading album id range: %w", err)
	}
	return minID.Int64, maxID.Int64, nil
}

func (s *SQLiteCatalog) RenumberAlbum(oldID, newID int64) error {
	res, err := s.db.Exec("UPDATE lychee_albums SET id = ? WHERE id = ?", newID, oldID)
	if err != nil {
		return fmt.Errorf("renumbering album %d: %w", oldID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("renumbering album %d: %w", oldID, err)
	}
	if n == 0 {
		return fmt.Errorf("renumbering album %d: %w", oldID, lychee.ErrAlbumNotFound)
	}
	return nil
}

func (s *SQLiteCatalog) UpdateAlbumTimestamp(id int64, t time.Time) error {
	if _, err := s.db.Exec("UPDATE lychee_albums SET sysstamp = ? WHERE id = ?", t.Unix(), id); err != nil {
		return fmt.Errorf("updating album timestamp: %w", err)
	}
	return nil
}

func (s *SQLiteCatalog) DeleteAll() error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM lychee_photos"); err != nil {
		return fmt.Errorf("deleting photos: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM lychee_albums"); err != nil {
		return fmt.Errorf("deleting albums: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Operation tracking

func (s *SQLiteCatalog) CreateOperation(operation string, parameters string) (*lychee.Operation, error) {
	started := s.now()
	res, err := s.db.Exec(
		"INSERT INTO sync_operations (started_at, operation, parameters, status) VALUES (?, ?, ?, 'running')",
		started, operation, parameters,
	)
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading operation id: %w", err)
	}
	return &lychee.Operation{ID: id, StartedAt: started, Operation: operation, Parameters: parameters, Status: "running"}, nil
}

func (s *SQLiteCatalog) FinishOperation(id int64, status string) error {
	_, err := s.db.Exec(
		"UPDATE sync_operations SET finished_at = ?, status = ? WHERE id = ?",
		sql.NullTime{Time: s.now(), Valid: true}, status, id,
	)
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}

// ListOperations returns the most recent operations first.
func (s *SQLiteCatalog) ListOperations(limit int) ([]*lychee.Operation, error) {
	rows, err := s.db.Query(
		"SELECT id, started_at, finished_at, operation, parameters, status FROM sync_operations ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []*lychee.Operation
	for rows.Next() {
		var op lychee.Operation
		if err := rows.Scan(&op.ID, &op.StartedAt, &op.FinishedAt, &op.Operation, &op.Parameters, &op.Status); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		ops = append(ops, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

// Path returns the database file path (or ":memory:" for in-memory catalogs).
func (s *SQLiteCatalog) Path() string {
	return s.path
}

// CheckMigrations verifies the catalog schema is up-to-date.
func (s *SQLiteCatalog) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Migrate applies pending schema migrations.
func (s *SQLiteCatalog) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// MigrationStatus reports the schema version relative to the binary.
func (s *SQLiteCatalog) MigrationStatus() (migrations.Status, error) {
	return migrations.ReadStatus(s.db)
}

// Close closes the database connection.
func (s *SQLiteCatalog) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteCatalog implements lychee.Catalog
var _ lychee.Catalog = (*SQLiteCatalog)(nil)
