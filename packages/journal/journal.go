// Package journal persists observed flows in SQLite so that scripts can be
// rebuilt after the capturing process has exited.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/abdul-hamid-achik/locustgen/packages/flow"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS flows (
	id          TEXT PRIMARY KEY,
	seq         INTEGER NOT NULL,
	captured_at INTEGER NOT NULL,
	method      TEXT NOT NULL,
	scheme      TEXT NOT NULL,
	host        TEXT NOT NULL,
	fields      BLOB NOT NULL,
	body        BLOB
);
CREATE INDEX IF NOT EXISTS flows_seq ON flows (seq);
CREATE INDEX IF NOT EXISTS flows_host ON flows (host);
`

// fields is the msgpack encoded part of a journaled flow.
type fields struct {
	Path   []string     `msgpack:"p"`
	Query  []flow.Field `msgpack:"q"`
	Header []flow.Field `msgpack:"h"`
}

// Filter narrows the flows returned by Flows. Empty slices match everything.
type Filter struct {
	Hosts []string
	Seqs  []int
}

// Journal is an append-only store of flows.
type Journal struct {
	db           *sql.DB
	path         string
	queryTimeout time.Duration
}

// Open opens (creating if needed) the journal at location, which is a file
// path optionally prefixed with "sqlite://" or "sqlite:".
func Open(location string) (*Journal, error) {
	path, err := parseLocation(location)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}

	return &Journal{
		db:           db,
		path:         path,
		queryTimeout: 30 * time.Second,
	}, nil
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.path
}

// Close closes the journal.
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Append stores f.
func (j *Journal) Append(ctx context.Context, f *flow.Flow) error {
	ctx, cancel := context.WithTimeout(ctx, j.queryTimeout)
	defer cancel()

	blob, err := msgpack.Marshal(&fields{Path: f.Path, Query: f.Query, Header: f.Header})
	if err != nil {
		return fmt.Errorf("failed to encode flow %d: %w", f.Seq, err)
	}

	id := f.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	capturedAt := f.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now()
	}

	_, err = j.db.ExecContext(ctx,
		`INSERT INTO flows (id, seq, captured_at, method, scheme, host, fields, body) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), f.Seq, capturedAt.UnixNano(), f.Method, f.Scheme, f.Host, blob, f.Body,
	)
	if err != nil {
		return fmt.Errorf("failed to append flow %d: %w", f.Seq, err)
	}
	return nil
}

// NextSeq returns the sequence number following the highest one stored, so
// that a new capture session continues the numbering.
func (j *Journal) NextSeq(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, j.queryTimeout)
	defer cancel()

	var last sql.NullInt64
	if err := j.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM flows`).Scan(&last); err != nil {
		return 0, fmt.Errorf("query failed: %w", err)
	}
	if !last.Valid {
		return 0, nil
	}
	return int(last.Int64) + 1, nil
}

// Flows returns the stored flows matching filter in sequence order.
func (j *Journal) Flows(ctx context.Context, filter Filter) ([]*flow.Flow, error) {
	ctx, cancel := context.WithTimeout(ctx, j.queryTimeout)
	defer cancel()

	query := `SELECT id, seq, captured_at, method, scheme, host, fields, body FROM flows`
	var (
		where []string
		args  []any
	)
	if len(filter.Hosts) > 0 {
		where = append(where, "host IN ("+placeholders(len(filter.Hosts))+")")
		for _, h := range filter.Hosts {
			args = append(args, h)
		}
	}
	if len(filter.Seqs) > 0 {
		where = append(where, "seq IN ("+placeholders(len(filter.Seqs))+")")
		for _, s := range filter.Seqs {
			args = append(args, s)
		}
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq, rowid"

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var flows []*flow.Flow
	for rows.Next() {
		var (
			id         string
			capturedAt int64
			blob       []byte
			f          flow.Flow
		)
		if err := rows.Scan(&id, &f.Seq, &capturedAt, &f.Method, &f.Scheme, &f.Host, &blob, &f.Body); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		if f.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid flow id %q: %w", id, err)
		}
		f.CapturedAt = time.Unix(0, capturedAt)

		var decoded fields
		if err := msgpack.Unmarshal(blob, &decoded); err != nil {
			return nil, fmt.Errorf("failed to decode flow %d: %w", f.Seq, err)
		}
		f.Path, f.Query, f.Header = decoded.Path, decoded.Query, decoded.Header

		flows = append(flows, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return flows, nil
}

// Count returns the number of stored flows.
func (j *Journal) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, j.queryTimeout)
	defer cancel()

	var n int
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM flows`).Scan(&n); err != nil {
		return 0, fmt.Errorf("query failed: %w", err)
	}
	return n, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// parseLocation accepts:
// - sqlite://path/to/flows.db
// - sqlite:./flows.db
// - path/to/flows.db
func parseLocation(location string) (string, error) {
	location = strings.TrimSpace(location)
	location = strings.TrimPrefix(location, "sqlite://")
	location = strings.TrimPrefix(location, "sqlite:")
	if location == "" {
		return "", fmt.Errorf("journal path is required")
	}
	return location, nil
}
