package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sitearchive/internal/model"
)

// FileName is the name of the history database inside its directory.
const FileName = "sitearchive.db"

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("archive run not found")

// ArchiveDB provides SQLite-based storage for archive history.
//
// Design decision: We use a single database for every archived site rather
// than one file per site. Listing sites and comparing runs then needs no
// directory scanning.
type ArchiveDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures ArchiveDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates an ArchiveDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ArchiveDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc creates it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	adb := &ArchiveDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := adb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return adb, nil
}

// Path returns the database file path.
func (adb *ArchiveDB) Path() string {
	return adb.dbPath
}

// Close closes the database connection.
func (adb *ArchiveDB) Close() error {
	return adb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (adb *ArchiveDB) createTables() error {
	schema := `
	-- One row per archive run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site TEXT NOT NULL,
		root_url TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		status TEXT NOT NULL,
		visits INTEGER DEFAULT 0,
		pages INTEGER DEFAULT 0,
		master_pages INTEGER DEFAULT 0,
		chunks INTEGER DEFAULT 0,
		failures INTEGER DEFAULT 0,
		master_path TEXT,
		archive_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_site ON runs(site);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- One row per archived page of a run
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		url TEXT NOT NULL,
		slug TEXT NOT NULL,
		level INTEGER NOT NULL,
		tiles INTEGER NOT NULL,
		first_page INTEGER NOT NULL,
		width INTEGER,
		height INTEGER,
		image_path TEXT,
		document_path TEXT,
		image_hash TEXT,
		captured_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);
	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
	`

	_, err := adb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveArchive stores a finished run and its pages in one transaction and
// returns the run ID.
func (adb *ArchiveDB) SaveArchive(ctx context.Context, archive *model.Archive) (int64, error) {
	// Error is not serialized; keep its text.
	stored := *archive
	if stored.Error != nil && stored.ErrorMessage == "" {
		stored.ErrorMessage = stored.Error.Error()
	}

	archiveJSON, err := json.Marshal(&stored)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize archive: %w", err)
	}

	tx, err := adb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after Commit
	}()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (site, root_url, started_at, finished_at, status, visits, pages,
		master_pages, chunks, failures, master_path, archive_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		stored.Site,
		stored.RootURL,
		formatTimestamp(stored.StartedAt),
		formatTimestamp(stored.FinishedAt),
		stored.Status(),
		stored.Visits,
		len(stored.Pages),
		stored.MasterPages,
		len(stored.Chunks),
		len(stored.Failures),
		stored.MasterPath,
		string(archiveJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO pages (run_id, seq, url, slug, level, tiles, first_page, width, height,
		image_path, document_path, image_hash, captured_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range stored.Pages {
		if _, err := stmt.ExecContext(ctx,
			runID, p.Seq, p.URL, p.Slug, p.Level, p.Tiles, p.FirstPage, p.Width, p.Height,
			p.ImagePath, p.DocumentPath, p.ImageHash, formatTimestamp(p.CapturedAt),
		); err != nil {
			return 0, fmt.Errorf("failed to save page %s: %w", p.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// SiteSummary describes an archived site.
type SiteSummary struct {
	Site    string
	Runs    int
	LastRun time.Time
}

// ListSites returns every archived site, most recently archived first.
func (adb *ArchiveDB) ListSites(ctx context.Context) ([]SiteSummary, error) {
	rows, err := adb.db.QueryContext(ctx, `
	SELECT site, COUNT(*), MAX(started_at)
	FROM runs
	GROUP BY site
	ORDER BY MAX(started_at) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []SiteSummary
	for rows.Next() {
		var s SiteSummary
		var last string
		if err := rows.Scan(&s.Site, &s.Runs, &last); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		s.LastRun = parseTimestamp(last)
		sites = append(sites, s)
	}
	return sites, rows.Err()
}

// RunSummary contains summary information about a run.
// This is used for displaying history without loading the full archive.
type RunSummary struct {
	ID          int64
	Site        string
	RootURL     string
	StartedAt   time.Time
	FinishedAt  time.Time
	Status      string
	Visits      int
	Pages       int
	MasterPages int
	Chunks      int
	Failures    int
}

// ListRuns returns the runs of a site, newest first.
func (adb *ArchiveDB) ListRuns(ctx context.Context, site string) ([]RunSummary, error) {
	rows, err := adb.db.QueryContext(ctx, `
	SELECT id, site, root_url, started_at, finished_at, status, visits, pages,
		master_pages, chunks, failures
	FROM runs
	WHERE site = ?
	ORDER BY started_at DESC, id DESC
	`, site)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var started string
		var finished sql.NullString
		if err := rows.Scan(&r.ID, &r.Site, &r.RootURL, &started, &finished, &r.Status,
			&r.Visits, &r.Pages, &r.MasterPages, &r.Chunks, &r.Failures); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = parseTimestamp(started)
		if finished.Valid {
			r.FinishedAt = parseTimestamp(finished.String)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun loads a stored run by ID.
func (adb *ArchiveDB) GetRun(ctx context.Context, id int64) (*model.Archive, error) {
	var archiveJSON string
	err := adb.db.QueryRowContext(ctx, `SELECT archive_json FROM runs WHERE id = ?`, id).Scan(&archiveJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var archive model.Archive
	if err := json.Unmarshal([]byte(archiveJSON), &archive); err != nil {
		return nil, fmt.Errorf("failed to parse run: %w", err)
	}
	return &archive, nil
}

// ListPages returns the pages of a run in visitation order.
func (adb *ArchiveDB) ListPages(ctx context.Context, runID int64) ([]model.PageRecord, error) {
	rows, err := adb.db.QueryContext(ctx, `
	SELECT seq, url, slug, level, tiles, first_page, width, height,
		image_path, document_path, image_hash, captured_at
	FROM pages
	WHERE run_id = ?
	ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var pages []model.PageRecord
	for rows.Next() {
		var p model.PageRecord
		var captured string
		if err := rows.Scan(&p.Seq, &p.URL, &p.Slug, &p.Level, &p.Tiles, &p.FirstPage,
			&p.Width, &p.Height, &p.ImagePath, &p.DocumentPath, &p.ImageHash, &captured); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		p.CapturedAt = parseTimestamp(captured)
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// PageCapture is one capture of a URL in the history.
type PageCapture struct {
	RunID      int64
	CapturedAt time.Time
	ImageHash  string
	Tiles      int
}

// PageHistory returns every capture of url, newest first. Comparing image
// hashes of consecutive captures shows when the rendered page changed.
func (adb *ArchiveDB) PageHistory(ctx context.Context, url string) ([]PageCapture, error) {
	rows, err := adb.db.QueryContext(ctx, `
	SELECT run_id, captured_at, image_hash, tiles
	FROM pages
	WHERE url = ?
	ORDER BY captured_at DESC, run_id DESC
	`, url)
	if err != nil {
		return nil, fmt.Errorf("failed to get page history: %w", err)
	}
	defer rows.Close()

	var captures []PageCapture
	for rows.Next() {
		var c PageCapture
		var captured string
		if err := rows.Scan(&c.RunID, &captured, &c.ImageHash, &c.Tiles); err != nil {
			return nil, fmt.Errorf("failed to scan capture: %w", err)
		}
		c.CapturedAt = parseTimestamp(captured)
		captures = append(captures, c)
	}
	return captures, rows.Err()
}

// formatTimestamp stores times in UTC with a fixed width so that string
// ordering in SQL matches time ordering.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
