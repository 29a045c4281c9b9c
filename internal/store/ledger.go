
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"sitescribe/internal/models"
)

// Ledger records saved articles in SQLite so that a later run can skip them
// even when the output directory was moved or cleaned.
type Ledger struct {
	db *sql.DB
}

// Entry is one ledger row.
type Entry struct {
	URL     string
	Path    string
	RunID   uuid.UUID
	SavedAt time.Time
}

// NewLedger opens or creates the ledger database at dbPath.
func NewLedger(dbPath string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}
	return l, nil
}

func (l *Ledger) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saved_articles (
		url TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		run_id TEXT NOT NULL,
		saved_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_saved_articles_run ON saved_articles(run_id);
	`
	_, err := l.db.Exec(schema)
	return err
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record stores a saved article. Saving the same URL again updates its row.
func (l *Ledger) Record(runID uuid.UUID, url, path string) error {
	query := `
		INSERT INTO saved_articles (url, path, run_id, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			path = excluded.path,
			run_id = excluded.run_id,
			saved_at = excluded.saved_at
	`
	_, err := l.db.Exec(query, url, path, runID.String(), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record %s: %w", url, err)
	}
	return nil
}

// URLs returns every recorded URL.
func (l *Ledger) URLs() (models.LinkSet, error) {
	rows, err := l.db.Query(`SELECT url FROM saved_articles`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	out := models.NewLinkSet()
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		out.Add(u)
	}
	return out, rows.Err()
}

// Run returns the entries recorded by one run, oldest first.
func (l *Ledger) Run(runID uuid.UUID) ([]Entry, error) {
	rows, err := l.db.Query(`
		SELECT url, path, run_id, saved_at FROM saved_articles
		WHERE run_id = ?
		ORDER BY saved_at, url
	`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e        Entry
			id, when string
		)
		if err := rows.Scan(&e.URL, &e.Path, &id, &when); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		if e.RunID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("bad run id %q: %w", id, err)
		}
		if e.SavedAt, err = time.Parse(time.RFC3339, when); err != nil {
			return nil, fmt.Errorf("bad timestamp %q: %w", when, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
