package sqlexec

import (
	"testing"

	"github.com/lockplane/sqlbatch/internal/database"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		dialect  database.Type
		sql      string
		expected statementKind
	}{
		{"pg select", database.TypePostgres, "SELECT * FROM t", kindQuery},
		{"pg select into", database.TypePostgres, "SELECT * INTO t2 FROM t", kindModify},
		{"pg insert", database.TypePostgres, "INSERT INTO t VALUES (1)", kindModify},
		{"pg cte insert", database.TypePostgres, "WITH x AS (SELECT 1) INSERT INTO t SELECT * FROM x", kindModify},
		{"pg update", database.TypePostgres, "UPDATE t SET a = 1", kindModify},
		{"pg delete", database.TypePostgres, "DELETE FROM t", kindModify},
		{"pg create table as", database.TypePostgres, "CREATE TABLE t2 AS SELECT * FROM t", kindModify},
		{"pg ddl", database.TypePostgres, "CREATE TABLE t (id int)", kindOther},
		{"pg unparseable falls back to keywords", database.TypePostgres, "SELEC 1", kindOther},
		{"sqlite select", database.TypeSQLite, "select 1", kindQuery},
		{"sqlite parenthesised select", database.TypeSQLite, "(SELECT 1) UNION (SELECT 2)", kindQuery},
		{"sqlite replace", database.TypeSQLite, "REPLACE INTO t VALUES (1)", kindModify},
		{"sqlite pragma", database.TypeSQLite, "PRAGMA foreign_keys = ON", kindOther},
		{"mysql use", database.TypeMySQL, "USE test", kindOther},
		{"mysql commented insert", database.TypeMySQL, "/* x */ INSERT INTO t VALUES (1)", kindModify},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.dialect, tt.sql); got != tt.expected {
				t.Errorf("classify(%s, %q) = %d, want %d", tt.dialect, tt.sql, got, tt.expected)
			}
		})
	}
}
