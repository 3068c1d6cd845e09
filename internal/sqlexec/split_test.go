package sqlexec

import (
	"reflect"
	"strings"
	"testing"
	"unicode"

	"github.com/lockplane/sqlbatch/internal/database"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		expected []Segment
	}{
		{
			name:     "single statement without terminator",
			script:   "SELECT 1",
			expected: []Segment{{SQL: "SELECT 1", StartLine: 1}},
		},
		{
			name: "line numbers skip comments and blank lines",
			script: "-- header\nCREATE TABLE t (id INTEGER, name TEXT);\n" +
				"INSERT INTO t VALUES (1, 'a;b');\n/* block ; comment */\n" +
				"INSERT INTO t VALUES (2, \"x\");\n",
			expected: []Segment{
				{SQL: "CREATE TABLE t (id INTEGER, name TEXT)", StartLine: 2},
				{SQL: "INSERT INTO t VALUES (1, 'a;b')", StartLine: 3},
				{SQL: "INSERT INTO t VALUES (2, \"x\")", StartLine: 5},
			},
		},
		{
			name:   "doubled quotes",
			script: "INSERT INTO t VALUES ('it''s; fine');",
			expected: []Segment{
				{SQL: "INSERT INTO t VALUES ('it''s; fine')", StartLine: 1},
			},
		},
		{
			name:   "backtick identifiers",
			script: "SELECT `a;b` FROM t;",
			expected: []Segment{
				{SQL: "SELECT `a;b` FROM t", StartLine: 1},
			},
		},
		{
			name:   "trigger body",
			script: "CREATE TRIGGER trg AFTER INSERT ON t BEGIN\n  UPDATE t SET name = 'x';\nEND;\nSELECT 1;",
			expected: []Segment{
				{SQL: "CREATE TRIGGER trg AFTER INSERT ON t BEGIN\n  UPDATE t SET name = 'x';\nEND", StartLine: 1},
				{SQL: "SELECT 1", StartLine: 4},
			},
		},
		{
			name:   "semicolon in line comment",
			script: "SELECT 1; -- trailing; comment\nSELECT 2;",
			expected: []Segment{
				{SQL: "SELECT 1", StartLine: 1},
				{SQL: "SELECT 2", StartLine: 2},
			},
		},
		{
			name:   "backslash is an ordinary character",
			script: "INSERT INTO t VALUES ('C:\\');\nINSERT INTO t VALUES ('x');",
			expected: []Segment{
				{SQL: "INSERT INTO t VALUES ('C:\\')", StartLine: 1},
				{SQL: "INSERT INTO t VALUES ('x')", StartLine: 2},
			},
		},
		{
			name:     "comments only",
			script:   "-- nothing here\n/* or here */\n;\n",
			expected: nil,
		},
		{
			name:     "empty",
			script:   "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitStatements(tt.script, false)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("splitStatements(%q) =\n%#v\nwant\n%#v", tt.script, got, tt.expected)
			}
		})
	}
}

func TestSplitPostgres(t *testing.T) {
	script := "CREATE TABLE t (id int);\n\nINSERT INTO t VALUES (1), (2);\n" +
		"DO $$ BEGIN RAISE NOTICE 'a;b'; END $$;\n-- comment\nSELECT * FROM t;\n"

	got := Split(database.TypePostgres, script)

	expectedLines := []int{1, 3, 4, 6}
	if len(got) != len(expectedLines) {
		t.Fatalf("Expected %d segments, got %d: %#v", len(expectedLines), len(got), got)
	}
	for i, seg := range got {
		if seg.StartLine != expectedLines[i] {
			t.Errorf("segment %d (%q) StartLine = %d, want %d", i, seg.SQL, seg.StartLine, expectedLines[i])
		}
	}
	if got[3].SQL != "SELECT * FROM t" {
		t.Errorf("Expected leading comment to be trimmed, got %q", got[3].SQL)
	}
}

func TestSplitStatementsMySQLBackslashEscapes(t *testing.T) {
	script := "INSERT INTO t VALUES ('it\\'s; fine');\nINSERT INTO t VALUES ('C:\\\\');\nSELECT 1;"

	got := Split(database.TypeMySQL, script)
	expected := []Segment{
		{SQL: "INSERT INTO t VALUES ('it\\'s; fine')", StartLine: 1},
		{SQL: "INSERT INTO t VALUES ('C:\\\\')", StartLine: 2},
		{SQL: "SELECT 1", StartLine: 3},
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Split(mysql) =\n%#v\nwant\n%#v", got, expected)
	}
}

func TestSplitPostgresKeepsInvalidStatements(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		expected []Segment
	}{
		{
			name:     "lone syntax error",
			script:   "SELEC 1;\n",
			expected: []Segment{{SQL: "SELEC 1", StartLine: 1}},
		},
		{
			name:   "syntax error before a valid statement",
			script: "selct 1; select 2;",
			expected: []Segment{
				{SQL: "selct 1", StartLine: 1},
				{SQL: "select 2", StartLine: 1},
			},
		},
		{
			name:   "syntax error between inserts",
			script: "INSERT INTO t VALUES (1);\nSELEC 1;\nINSERT INTO t VALUES (2);",
			expected: []Segment{
				{SQL: "INSERT INTO t VALUES (1)", StartLine: 1},
				{SQL: "SELEC 1", StartLine: 2},
				{SQL: "INSERT INTO t VALUES (2)", StartLine: 3},
			},
		},
		{
			name:   "backslash in standard string",
			script: "INSERT INTO t VALUES ('C:\\');\nINSERT INTO t VALUES ('x');",
			expected: []Segment{
				{SQL: "INSERT INTO t VALUES ('C:\\')", StartLine: 1},
				{SQL: "INSERT INTO t VALUES ('x')", StartLine: 2},
			},
		},
		{
			name: "sql-standard function body",
			script: "CREATE FUNCTION f() RETURNS int LANGUAGE sql\nBEGIN ATOMIC\n  SELECT CASE WHEN true THEN 1 END;\nEND;\nSELECT f();",
			expected: []Segment{
				{SQL: "CREATE FUNCTION f() RETURNS int LANGUAGE sql\nBEGIN ATOMIC\n  SELECT CASE WHEN true THEN 1 END;\nEND", StartLine: 1},
				{SQL: "SELECT f()", StartLine: 5},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(database.TypePostgres, tt.script)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Split(postgres, %q) =\n%#v\nwant\n%#v", tt.script, got, tt.expected)
			}
		})
	}
}

// compactSQL drops comments, whitespace and semicolons so that a script can be
// compared with the concatenation of its segments.
func compactSQL(sql string) string {
	return strings.Map(func(r rune) rune {
		if r == ';' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, stripComments(sql))
}

func TestSplitCoversWholeScript(t *testing.T) {
	scripts := []string{
		"SELEC 1;\n",
		"selct 1; select 2;",
		"-- lead\nINSERT INTO t VALUES (1);\nSELEC 1;\n/* mid */ INSERT INTO t VALUES (2);\nSELECT 'a;b' trailing",
		"CREATE TABLE t (id int);\nDO $$ BEGIN RAISE NOTICE 'x;y'; END $$;\nUPDATE t SET id = 2 WHERE id = 1",
		"INSERT INTO t VALUES ('C:\\');\nINSERT INTO t VALUES ('x');",
	}

	for _, dialect := range []database.Type{database.TypePostgres, database.TypeSQLite, database.TypeMySQL} {
		for _, script := range scripts {
			var joined strings.Builder
			for _, seg := range Split(dialect, script) {
				joined.WriteString(seg.SQL)
			}
			if got, want := compactSQL(joined.String()), compactSQL(script); got != want {
				t.Errorf("Split(%s, %q) lost text:\n got %q\nwant %q", dialect, script, got, want)
			}
		}
	}
}

func TestSplitOtherDialectsUseGenericSplitter(t *testing.T) {
	script := "SELECT 1;\nSELECT 2;"
	for _, dialect := range []database.Type{database.TypeSQLite, database.TypeLibSQL, database.TypeMySQL} {
		if got := Split(dialect, script); len(got) != 2 {
			t.Errorf("Split(%s) returned %d segments, want 2", dialect, len(got))
		}
	}
}

func TestIsBlank(t *testing.T) {
	tests := []struct {
		sql   string
		blank bool
	}{
		{"", true},
		{"  ;\n", true},
		{"-- only a comment", true},
		{"/* block */", true},
		{"SELECT 1", false},
		{"-- c\nSELECT 1", false},
	}

	for _, tt := range tests {
		if got := isBlank(tt.sql); got != tt.blank {
			t.Errorf("isBlank(%q) = %v, want %v", tt.sql, got, tt.blank)
		}
	}
}
