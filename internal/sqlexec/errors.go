package sqlexec

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"
	"modernc.org/sqlite"
)

// Severity levels follow the SQL Server scale, which SQL Server errors carry
// natively: 15 for syntax errors, 16 for ordinary statement errors, 20 and up for
// fatal session errors.
const (
	levelSyntax = 15
	levelError  = 16
	levelFatal  = 20
	levelPanic  = 21
)

// ServerError is one structured error reported by the database for a batch.
type ServerError struct {
	Code    string
	Level   int
	State   int
	Line    int
	Message string
}

// Header renders the "Msg ..." line that precedes the message text in output files.
func (e ServerError) Header() string {
	return fmt.Sprintf("Msg %s, Level %d, State %d, Line %d", e.Code, e.Level, e.State, e.Line)
}

// BatchError is returned when the server rejected or aborted a batch. Any other
// error from ExecBatch is a transport or driver failure.
type BatchError struct {
	Errors []ServerError
}

func (e *BatchError) Error() string {
	messages := make([]string, len(e.Errors))
	for i, se := range e.Errors {
		messages[i] = se.Header() + ": " + se.Message
	}
	return strings.Join(messages, "; ")
}

// translate converts a driver error raised by seg into a *BatchError when the
// driver exposes structured details, and returns it unchanged otherwise.
func translate(err error, seg Segment) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &BatchError{Errors: []ServerError{fromPostgres(pqErr, seg)}}
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return &BatchError{Errors: []ServerError{fromMySQL(mysqlErr, seg)}}
	}

	var msErr mssql.Error
	if errors.As(err, &msErr) {
		errs, _ := fromMSSQL(msErr)
		if len(errs) > 0 {
			return &BatchError{Errors: errs}
		}
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return &BatchError{Errors: []ServerError{fromSQLite(sqliteErr, seg)}}
	}

	return err
}

func fromPostgres(e *pq.Error, seg Segment) ServerError {
	level := levelError
	switch {
	case e.Severity == "FATAL":
		level = levelFatal
	case e.Severity == "PANIC":
		level = levelPanic
	case e.Code == "42601":
		level = levelSyntax
	}

	line := seg.StartLine
	if pos, err := strconv.Atoi(e.Position); err == nil && pos > 0 {
		line = seg.StartLine + lineAtRune(seg.SQL, pos-1) - 1
	}

	return ServerError{
		Code:    string(e.Code),
		Level:   level,
		State:   1,
		Line:    line,
		Message: e.Message,
	}
}

// mysqlErrParse is ER_PARSE_ERROR
const mysqlErrParse = 1064

var mysqlLinePattern = regexp.MustCompile(`at line (\d+)`)

func fromMySQL(e *mysql.MySQLError, seg Segment) ServerError {
	level := levelError
	if e.Number == mysqlErrParse {
		level = levelSyntax
	}

	line := seg.StartLine
	if m := mysqlLinePattern.FindStringSubmatch(e.Message); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			line = seg.StartLine + n - 1
		}
	}

	return ServerError{
		Code:    strconv.Itoa(int(e.Number)),
		Level:   level,
		State:   1,
		Line:    line,
		Message: e.Message,
	}
}

func fromSQLite(e *sqlite.Error, seg Segment) ServerError {
	level := levelError
	if strings.Contains(e.Error(), "syntax error") {
		level = levelSyntax
	}

	return ServerError{
		Code:    strconv.Itoa(e.Code()),
		Level:   level,
		State:   1,
		Line:    seg.StartLine,
		Message: e.Error(),
	}
}

// lineAtRune returns the 1-based line holding the rune at offset in s.
func lineAtRune(s string, offset int) int {
	line := 1
	for i, r := range []rune(s) {
		if i >= offset {
			break
		}
		if r == '\n' {
			line++
		}
	}
	return line
}
