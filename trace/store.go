package trace

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store is a durable SQLite-backed recorder. Uses WAL mode with a single
// writer connection so concurrent handle goroutines never trip over
// SQLITE_BUSY.
type Store struct {
	db *sql.DB
}

// Open creates or opens a trace database at the given path. Idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("trace: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace: connect: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("trace: execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace: apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Record appends one operation row.
func (s *Store) Record(rec Record) error {
	var detail any
	if rec.Detail != nil {
		b, err := json.Marshal(rec.Detail)
		if err != nil {
			return fmt.Errorf("trace: marshal detail: %w", err)
		}
		detail = string(b)
	}
	_, err := s.db.Exec(
		`INSERT INTO ops (session, handle, seq, op, detail) VALUES (?, ?, ?, ?, ?)`,
		rec.Session, rec.Handle, rec.Seq, string(rec.Op), detail,
	)
	if err != nil {
		return fmt.Errorf("trace: insert op: %w", err)
	}
	return nil
}

// Session reads every record of one session, ordered by seq.
func (s *Store) Session(ctx context.Context, session string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session, handle, seq, op, detail FROM ops WHERE session = ? ORDER BY seq, id`,
		session,
	)
	if err != nil {
		return nil, fmt.Errorf("trace: query session: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Sessions lists the distinct session tokens in the store.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT session FROM ops ORDER BY session`)
	if err != nil {
		return nil, fmt.Errorf("trace: query sessions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sess string
		if err := rows.Scan(&sess); err != nil {
			return nil, fmt.Errorf("trace: scan session: %w", err)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// All reads every record in the store, ordered by session then seq.
func (s *Store) All(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session, handle, seq, op, detail FROM ops ORDER BY session, seq, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("trace: query all: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var rec Record
		var op string
		var detail sql.NullString
		if err := rows.Scan(&rec.Session, &rec.Handle, &rec.Seq, &op, &detail); err != nil {
			return nil, fmt.Errorf("trace: scan op: %w", err)
		}
		rec.Op = Op(op)
		if detail.Valid {
			if err := json.Unmarshal([]byte(detail.String), &rec.Detail); err != nil {
				return nil, fmt.Errorf("trace: decode detail: %w", err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
