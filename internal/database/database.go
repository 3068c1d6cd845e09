// Package database opens connections to execution targets.
//
// The connection descriptor of a target is a URL or file path; its scheme decides which
// database/sql driver is used.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Type identifies the database dialect behind a target.
type Type string

const (
	TypeSQLServer Type = "sqlserver"
	TypePostgres  Type = "postgres"
	TypeSQLite    Type = "sqlite"
	TypeLibSQL    Type = "libsql"
	TypeMySQL     Type = "mysql"
)

// Types lists every supported database type.
var Types = []Type{TypeSQLServer, TypePostgres, TypeSQLite, TypeLibSQL, TypeMySQL}

// pingTimeout bounds the connectivity check done when opening a target.
const pingTimeout = 5 * time.Second

// ParseType converts a configured type name into a Type.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql":
		return TypePostgres, nil
	case "sqlite", "sqlite3":
		return TypeSQLite, nil
	case "libsql", "turso":
		return TypeLibSQL, nil
	case "mysql":
		return TypeMySQL, nil
	case "sqlserver", "mssql":
		return TypeSQLServer, nil
	default:
		return "", fmt.Errorf("unsupported database type: %s", name)
	}
}

// DetectType infers the database type from a connection descriptor.
// Anything not recognised as another dialect is treated as a postgres URL.
func DetectType(url string) Type {
	lower := strings.ToLower(strings.TrimSpace(url))

	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return TypePostgres
	case strings.HasPrefix(lower, "libsql://"):
		return TypeLibSQL
	case strings.HasPrefix(lower, "mysql://"):
		return TypeMySQL
	case strings.HasPrefix(lower, "sqlserver://"), strings.HasPrefix(lower, "mssql://"):
		return TypeSQLServer
	case strings.Contains(lower, "server=") && strings.Contains(lower, ";"):
		// ADO style: Server=(local);Database=TEST;User Id=sa;Password=sa;
		return TypeSQLServer
	case strings.HasPrefix(lower, "sqlite://"), strings.HasPrefix(lower, "file:"), lower == ":memory:":
		return TypeSQLite
	case strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".sqlite3"):
		return TypeSQLite
	}

	return TypePostgres
}

// SQLDriverName returns the database/sql driver registered for the type.
func (t Type) SQLDriverName() string {
	switch t {
	case TypeSQLite:
		return "sqlite"
	case TypeLibSQL:
		return "libsql"
	case TypeMySQL:
		return "mysql"
	case TypeSQLServer:
		return "sqlserver"
	default:
		return "postgres"
	}
}

// DSN converts a target URL into the data source name the driver expects.
func (t Type) DSN(url string) string {
	switch t {
	case TypeSQLite:
		if strings.HasPrefix(strings.ToLower(url), "sqlite://") {
			return url[len("sqlite://"):]
		}
		return url
	case TypeMySQL:
		// go-sql-driver takes user:pass@tcp(host:port)/db without a scheme
		if strings.HasPrefix(strings.ToLower(url), "mysql://") {
			return url[len("mysql://"):]
		}
		return url
	case TypeSQLServer:
		if strings.HasPrefix(strings.ToLower(url), "mssql://") {
			return "sqlserver://" + url[len("mssql://"):]
		}
		return url
	default:
		return url
	}
}

// NoticeHandler receives server notices (postgres RAISE NOTICE, SQL Server PRINT
// and other informational messages).
type NoticeHandler func(severity, message string)

// Options tune how a connection is opened.
type Options struct {
	// OnNotice, when set, receives postgres notices and SQL Server info messages.
	// Other dialects ignore it.
	OnNotice NoticeHandler
}

// Open opens a database handle for url and pings it.
func Open(ctx context.Context, dbType Type, url string, opts Options) (*sql.DB, error) {
	db, err := openDB(dbType, url, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func openDB(dbType Type, url string, opts Options) (*sql.DB, error) {
	if dbType != TypePostgres || opts.OnNotice == nil {
		return sql.Open(dbType.SQLDriverName(), dbType.DSN(url))
	}

	connector, err := pq.NewConnector(url)
	if err != nil {
		return nil, err
	}
	handler := opts.OnNotice
	return sql.OpenDB(pq.ConnectorWithNoticeHandler(connector, func(notice *pq.Error) {
		handler(notice.Severity, notice.Message)
	})), nil
}
