package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bitdegree/heirloom/pkg/tree"

	_ "modernc.org/sqlite"
)

// assignmentsKey is the metadata row holding palette assignments.
const assignmentsKey = "palette_assignments"

// SQLite is a file-backed store, the default for local single-user use.
// Change notification watches the database file, so writes from another
// process are observed too.
type SQLite struct {
	db   *sql.DB
	path string
}

// NewSQLite opens (or creates) the database at path and applies the schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := &SQLite{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS people (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		generation INTEGER NOT NULL DEFAULT 0,
		x REAL NOT NULL DEFAULT 0,
		y REAL NOT NULL DEFAULT 0,
		birth_date DATETIME,
		bio TEXT NOT NULL DEFAULT '',
		photo_name TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS parent_edges (
		parent_id TEXT NOT NULL,
		child_id TEXT NOT NULL,
		PRIMARY KEY (parent_id, child_id),
		FOREIGN KEY (parent_id) REFERENCES people(id) ON DELETE CASCADE,
		FOREIGN KEY (child_id) REFERENCES people(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS partner_edges (
		a_id TEXT NOT NULL,
		b_id TEXT NOT NULL,
		PRIMARY KEY (a_id, b_id),
		FOREIGN KEY (a_id) REFERENCES people(id) ON DELETE CASCADE,
		FOREIGN KEY (b_id) REFERENCES people(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_parent_edges_child ON parent_edges(child_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Name identifies the backend.
func (s *SQLite) Name() string { return "sqlite" }

// Load reads the full tree snapshot. Returns ErrNotFound for an empty
// people table so callers can distinguish "never saved" from an empty save.
func (s *SQLite) Load(ctx context.Context) (tree.Snapshot, error) {
	var snap tree.Snapshot

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, generation, x, y, birth_date, bio, photo_name
		FROM people ORDER BY name, id
	`)
	if err != nil {
		return snap, fmt.Errorf("query people: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int)
	for rows.Next() {
		var rec tree.Record
		var born sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Generation, &rec.X, &rec.Y, &born, &rec.Bio, &rec.PhotoName); err != nil {
			return snap, fmt.Errorf("scan person: %w", err)
		}
		if born.Valid {
			t := born.Time
			rec.BirthDate = &t
		}
		index[rec.ID] = len(snap.People)
		snap.People = append(snap.People, rec)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("iterate people: %w", err)
	}
	if len(snap.People) == 0 {
		return snap, ErrNotFound
	}

	if err := s.loadEdges(ctx, &snap, index); err != nil {
		return snap, err
	}
	return snap, nil
}

func (s *SQLite) loadEdges(ctx context.Context, snap *tree.Snapshot, index map[string]int) error {
	parents, err := s.db.QueryContext(ctx,
		`SELECT parent_id, child_id FROM parent_edges ORDER BY parent_id, child_id`)
	if err != nil {
		return fmt.Errorf("query parent edges: %w", err)
	}
	defer parents.Close()

	for parents.Next() {
		var parentID, childID string
		if err := parents.Scan(&parentID, &childID); err != nil {
			return fmt.Errorf("scan parent edge: %w", err)
		}
		if i, ok := index[childID]; ok {
			snap.People[i].Parents = append(snap.People[i].Parents, parentID)
		}
	}
	if err := parents.Err(); err != nil {
		return fmt.Errorf("iterate parent edges: %w", err)
	}

	partners, err := s.db.QueryContext(ctx,
		`SELECT a_id, b_id FROM partner_edges ORDER BY a_id, b_id`)
	if err != nil {
		return fmt.Errorf("query partner edges: %w", err)
	}
	defer partners.Close()

	for partners.Next() {
		var aID, bID string
		if err := partners.Scan(&aID, &bID); err != nil {
			return fmt.Errorf("scan partner edge: %w", err)
		}
		if i, ok := index[aID]; ok {
			snap.People[i].Partners = append(snap.People[i].Partners, bID)
		}
	}
	return partners.Err()
}

// Save replaces the stored tree in a single transaction.
func (s *SQLite) Save(ctx context.Context, snap tree.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"parent_edges", "partner_edges", "people"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, rec := range snap.People {
		var born any
		if rec.BirthDate != nil {
			born = rec.BirthDate.UTC()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO people (id, name, generation, x, y, birth_date, bio, photo_name)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.Name, rec.Generation, rec.X, rec.Y, born, rec.Bio, rec.PhotoName); err != nil {
			return fmt.Errorf("insert person %s: %w", rec.ID, err)
		}
	}

	for _, rec := range snap.People {
		for _, parentID := range rec.Parents {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO parent_edges (parent_id, child_id) VALUES (?, ?)`,
				parentID, rec.ID); err != nil {
				return fmt.Errorf("insert parent edge: %w", err)
			}
		}
		for _, partnerID := range rec.Partners {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO partner_edges (a_id, b_id) VALUES (?, ?)`,
				rec.ID, partnerID); err != nil {
				return fmt.Errorf("insert partner edge: %w", err)
			}
		}
	}

	return tx.Commit()
}

// LoadAssignments reads the palette assignments from the metadata table.
func (s *SQLite) LoadAssignments(ctx context.Context) (map[int]string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM metadata WHERE key = ?`, assignmentsKey).Scan(&value)
	if err == sql.ErrNoRows {
		return map[int]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	assignments := make(map[int]string)
	if err := json.Unmarshal([]byte(value), &assignments); err != nil {
		return nil, fmt.Errorf("decode assignments: %w", err)
	}
	return assignments, nil
}

// StoreAssignments upserts the palette assignments into the metadata table.
func (s *SQLite) StoreAssignments(ctx context.Context, assignments map[int]string) error {
	value, err := json.Marshal(assignments)
	if err != nil {
		return fmt.Errorf("encode assignments: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		assignmentsKey, string(value))
	return err
}

// Watch signals whenever the database file (or its WAL) changes on disk.
// Rapid bursts of writes are debounced into a single signal.
func (s *SQLite) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", s.path, err)
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer watcher.Close()
		const debounce = 100 * time.Millisecond
		var timer *time.Timer
		var timerC <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !s.isStoreFile(ev.Name) || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(debounce)
					timerC = timer.C
				} else {
					timer.Reset(debounce)
				}
			case <-timerC:
				select {
				case ch <- struct{}{}:
				default:
				}
			case <-watcher.Errors:
				// Watch errors are non-fatal; the next poll-triggered
				// reload catches up.
			}
		}
	}()
	return ch, nil
}

func (s *SQLite) isStoreFile(name string) bool {
	base := filepath.Base(s.path)
	got := filepath.Base(name)
	return got == base || got == base+"-wal"
}

// Close closes the underlying database.
func (s *SQLite) Close() error { return s.db.Close() }

// Ensure SQLite implements Store.
var _ Store = (*SQLite)(nil)
