package sqlexec

import (
	"regexp"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/lockplane/sqlbatch/internal/database"
)

// statementKind decides how a segment is submitted and whether it reports a row count.
type statementKind int

const (
	// kindOther runs with Exec and reports nothing (DDL, SET, transaction control).
	kindOther statementKind = iota
	// kindModify runs with Exec and reports RowsAffected.
	kindModify
	// kindQuery runs with Query and reports the number of rows returned.
	kindQuery
)

func classify(dialect database.Type, sql string) statementKind {
	if dialect == database.TypePostgres {
		if kind, ok := classifyPostgres(sql); ok {
			return kind
		}
	}
	return classifyKeyword(sql)
}

// classifyPostgres inspects the parse tree. ok is false when the statement does not
// parse, in which case the server gets to report the problem.
func classifyPostgres(sql string) (statementKind, bool) {
	tree, err := pg_query.Parse(sql)
	if err != nil || len(tree.Stmts) != 1 {
		return kindOther, false
	}

	node := tree.Stmts[0].Stmt
	switch {
	case node.GetSelectStmt() != nil:
		if node.GetSelectStmt().IntoClause != nil {
			// SELECT INTO creates a table; the command tag still carries the count
			return kindModify, true
		}
		return kindQuery, true
	case node.GetInsertStmt() != nil, node.GetUpdateStmt() != nil,
		node.GetDeleteStmt() != nil, node.GetMergeStmt() != nil:
		return kindModify, true
	case node.GetCreateTableAsStmt() != nil:
		return kindModify, true
	default:
		return kindOther, true
	}
}

var leadingKeywordPattern = regexp.MustCompile(`^[\s(]*([A-Za-z]+)`)

func classifyKeyword(sql string) statementKind {
	match := leadingKeywordPattern.FindStringSubmatch(trimLeadingComments(sql))
	if match == nil {
		return kindOther
	}

	switch strings.ToUpper(match[1]) {
	case "SELECT", "WITH", "VALUES", "TABLE":
		return kindQuery
	case "INSERT", "UPDATE", "DELETE", "REPLACE", "MERGE", "UPSERT":
		return kindModify
	default:
		return kindOther
	}
}
