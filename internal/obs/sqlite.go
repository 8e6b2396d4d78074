package obs

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteSink persists samples so the external analysis scripts can query a
// run after the fact. Inserts are serialized with a mutex; the driver is the
// cgo-free modernc build.
type SQLiteSink struct {
	mu sync.Mutex
	db *sql.DB
}

func NewSQLiteSink(path string) (*SQLiteSink, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir failed: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite failed: %w", err)
	}
	s := &SQLiteSink{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSink) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS samples (
			id INTEGER PRIMARY KEY,
			request_id INTEGER NOT NULL,
			variant TEXT NOT NULL,
			method TEXT NOT NULL,
			path TEXT NOT NULL,
			status INTEGER NOT NULL,
			service_ns INTEGER NOT NULL,
			ts INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_samples_variant ON samples(variant);`,
		`CREATE INDEX IF NOT EXISTS idx_samples_ts ON samples(ts);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema failed: %w", err)
		}
	}
	return nil
}

func (s *SQLiteSink) Record(sample Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// A failed insert must not disturb request handling; the sample is lost
	// and that is acceptable for a measurement sidecar.
	_, _ = s.db.Exec(
		"INSERT INTO samples (request_id, variant, method, path, status, service_ns, ts) VALUES (?, ?, ?, ?, ?, ?, ?)",
		sample.RequestID, sample.Variant, sample.Method, sample.Path,
		sample.Status, int64(sample.ServiceTime), sample.Timestamp.Unix(),
	)
}

// Count reports how many samples are stored, for tests and summaries.
func (s *SQLiteSink) Count() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM samples").Scan(&n)
	return n, err
}

func (s *SQLiteSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
