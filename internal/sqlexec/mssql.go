package sqlexec

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/golang-sql/sqlexp"
	mssql "github.com/microsoft/go-mssqldb"

	"github.com/lockplane/sqlbatch/internal/database"
)

// mssqlInfoClass is the highest severity SQL Server uses for informational
// messages (PRINT, "Changed database context", ...). They are not errors.
const mssqlInfoClass = 10

// batchMessages is the message stream of one SQL Server batch.
type batchMessages interface {
	Message(ctx context.Context) any
	Next() bool
	NextResultSet() bool
	Err() error
}

type rowsMessages struct {
	ret  *sqlexp.ReturnMessage
	rows *sql.Rows
}

func (m rowsMessages) Message(ctx context.Context) any { return m.ret.Message(ctx) }
func (m rowsMessages) Next() bool                      { return m.rows.Next() }
func (m rowsMessages) NextResultSet() bool             { return m.rows.NextResultSet() }
func (m rowsMessages) Err() error                      { return m.rows.Err() }

// execMSSQL sends script as a single batch. SQL Server keeps executing after most
// statement errors, so every row count and every error of the batch is reported.
func (s *Session) execMSSQL(ctx context.Context, script string) ([]Notification, error) {
	ret := &sqlexp.ReturnMessage{}
	rows, err := s.conn.QueryContext(ctx, script, ret)
	if err != nil {
		return nil, translate(err, Segment{SQL: script, StartLine: 1})
	}
	defer func() { _ = rows.Close() }()

	return drainMessages(ctx, rowsMessages{ret: ret, rows: rows}, s.onNotice)
}

func drainMessages(ctx context.Context, msgs batchMessages, onNotice database.NoticeHandler) ([]Notification, error) {
	var (
		notes      []Notification
		serverErrs []ServerError
		otherErr   error
	)

	notify := func(severity, message string) {
		if onNotice != nil {
			onNotice(severity, message)
		}
	}

	for more := true; more; {
		if err := ctx.Err(); err != nil {
			return notes, err
		}

		switch m := msgs.Message(ctx).(type) {
		case sqlexp.MsgNotice:
			notify("INFO", noticeText(m.Message))
		case sqlexp.MsgNext:
			for msgs.Next() {
			}
		case sqlexp.MsgRowsAffected:
			notes = append(notes, Notification{RowsAffected: m.Count})
		case sqlexp.MsgError:
			var msErr mssql.Error
			if !errors.As(m.Error, &msErr) {
				if otherErr == nil {
					otherErr = m.Error
				}
				continue
			}
			errs, infos := fromMSSQL(msErr)
			for _, info := range infos {
				notify("INFO", info.Message)
			}
			// The final error of a batch may repeat the earlier ones in All
			if len(errs) >= len(serverErrs) && slices.Equal(errs[:len(serverErrs)], serverErrs) {
				serverErrs = errs
			} else {
				serverErrs = append(serverErrs, errs...)
			}
		case sqlexp.MsgNextResultSet:
			more = msgs.NextResultSet()
		}
	}

	if len(serverErrs) > 0 {
		return notes, &BatchError{Errors: serverErrs}
	}
	if otherErr != nil {
		return notes, otherErr
	}
	return notes, msgs.Err()
}

// fromMSSQL splits a SQL Server error into real errors and informational messages.
func fromMSSQL(e mssql.Error) (errs, infos []ServerError) {
	entries := e.All
	if len(entries) == 0 {
		entries = []mssql.Error{e}
	}

	for _, entry := range entries {
		se := ServerError{
			Code:    strconv.Itoa(int(entry.Number)),
			Level:   int(entry.Class),
			State:   int(entry.State),
			Line:    int(entry.LineNo),
			Message: entry.Message,
		}
		if entry.Class <= mssqlInfoClass {
			infos = append(infos, se)
		} else {
			errs = append(errs, se)
		}
	}
	return errs, infos
}

func noticeText(message any) string {
	switch m := message.(type) {
	case mssql.Error:
		return m.Message
	case fmt.Stringer:
		return m.String()
	default:
		return fmt.Sprint(m)
	}
}
