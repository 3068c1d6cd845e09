// Package sqlexec submits scripts to a database as statement batches.
//
// A Session pins one connection so that session state (search_path, temp tables,
// ATTACH, USE) carries over from one script to the next.
package sqlexec

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lockplane/sqlbatch/internal/database"
)

// Notification reports that one statement of a batch completed with a row count.
type Notification struct {
	RowsAffected int64
}

// Session is a single connection used for a whole batch run.
type Session struct {
	db       *sql.DB
	conn     *sql.Conn
	dialect  database.Type
	onNotice database.NoticeHandler
}

// Open connects to url and pins one connection for the session.
func Open(ctx context.Context, dialect database.Type, url string, opts database.Options) (*Session, error) {
	db, err := database.Open(ctx, dialect, url, opts)
	if err != nil {
		return nil, err
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	session := NewSession(db, conn, dialect)
	session.onNotice = opts.OnNotice
	return session, nil
}

// NewSession wraps an already acquired connection. Close releases conn and db.
func NewSession(db *sql.DB, conn *sql.Conn, dialect database.Type) *Session {
	return &Session{db: db, conn: conn, dialect: dialect}
}

// ExecBatch runs every statement of script in order. It returns one notification
// per statement that reported a row count, in completion order. Execution stops
// at the first failing statement; notifications gathered before it are returned
// along with the error, which is a *BatchError for server-reported failures.
func (s *Session) ExecBatch(ctx context.Context, script string) ([]Notification, error) {
	if s.dialect == database.TypeSQLServer {
		return s.execMSSQL(ctx, script)
	}

	var notes []Notification

	for _, seg := range Split(s.dialect, script) {
		rows, counted, err := s.execSegment(ctx, seg)
		if err != nil {
			return notes, translate(err, seg)
		}
		if counted {
			notes = append(notes, Notification{RowsAffected: rows})
		}
	}

	return notes, nil
}

func (s *Session) execSegment(ctx context.Context, seg Segment) (int64, bool, error) {
	switch classify(s.dialect, seg.SQL) {
	case kindQuery:
		n, err := s.countRows(ctx, seg.SQL)
		return n, err == nil, err

	case kindModify:
		result, err := s.conn.ExecContext(ctx, seg.SQL)
		if err != nil {
			return 0, false, err
		}
		n, err := result.RowsAffected()
		if err != nil {
			// The statement ran; the driver just cannot count
			return 0, false, nil
		}
		return n, true, nil

	default:
		_, err := s.conn.ExecContext(ctx, seg.SQL)
		return 0, false, err
	}
}

func (s *Session) countRows(ctx context.Context, query string) (int64, error) {
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rows.Close() }()

	var n int64
	for rows.Next() {
		n++
	}
	if err := rows.Err(); err != nil {
		return n, err
	}
	return n, nil
}

// Close releases the pinned connection and the underlying pool.
func (s *Session) Close() error {
	return errors.Join(s.conn.Close(), s.db.Close())
}
