package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pbaille/wanderword/internal/domain"
)

//go:embed schema.sql
var schema string

// Store is the persistent journey cache and favorites list
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// CachedEntry describes one row of the journey cache
type CachedEntry struct {
	Word      string    `json:"word"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// busyTimeoutMS is how long a writer waits on a locked database file
const busyTimeoutMS = 5000

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// dsn adds the busy timeout and WAL journal to file-backed paths
func dsn(dbPath string) string {
	if dbPath == ":memory:" {
		return dbPath
	}
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_busy_timeout=%d&_journal_mode=WAL", dbPath, sep, busyTimeoutMS)
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached journey for key. A row that no longer decodes
// into a valid journey is reported as an error, not as a miss.
func (s *Store) Get(ctx context.Context, key string) (domain.Journey, bool, error) {
	var record string
	err := s.db.QueryRowContext(ctx,
		"SELECT record FROM journeys WHERE word = ?",
		key,
	).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Journey{}, false, nil
	}
	if err != nil {
		return domain.Journey{}, false, fmt.Errorf("get journey: %w", err)
	}

	var j domain.Journey
	if err := json.Unmarshal([]byte(record), &j); err != nil {
		return domain.Journey{}, false, fmt.Errorf("decode journey %q: %w", key, err)
	}
	if err := j.Validate(); err != nil {
		return domain.Journey{}, false, fmt.Errorf("cached journey %q: %w", key, err)
	}
	j.Source = ""

	return j, true, nil
}

// Set stores j under key, replacing any previous record
func (s *Store) Set(ctx context.Context, key string, j domain.Journey) error {
	j.Source = ""
	record, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("encode journey: %w", err)
	}

	now := s.now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO journeys (word, record, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(word) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at
	`, key, string(record), now, now)
	if err != nil {
		return fmt.Errorf("save journey: %w", err)
	}
	return nil
}

// List returns cached words, most recently updated first
func (s *Store) List(ctx context.Context) ([]CachedEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT word, created_at, updated_at FROM journeys ORDER BY updated_at DESC, word",
	)
	if err != nil {
		return nil, fmt.Errorf("list journeys: %w", err)
	}
	defer rows.Close()

	var entries []CachedEntry
	for rows.Next() {
		var e CachedEntry
		if err := rows.Scan(&e.Word, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan journey: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Delete removes one cached journey. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM journeys WHERE word = ?", key); err != nil {
		return fmt.Errorf("delete journey: %w", err)
	}
	return nil
}

// Clear drops every cached journey and reports how many were removed
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM journeys")
	if err != nil {
		return 0, fmt.Errorf("clear journeys: %w", err)
	}
	return res.RowsAffected()
}
