package sqlexec

import (
	"regexp"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/lockplane/sqlbatch/internal/database"
)

// Segment is one statement of a script, in the order it appears.
type Segment struct {
	SQL string
	// StartLine is the 1-based script line of the statement's first token.
	StartLine int
}

// Split cuts a script into statements for dialect. Empty and comment-only
// statements are dropped.
func Split(dialect database.Type, script string) []Segment {
	if dialect == database.TypePostgres {
		if segments, err := splitPostgres(script); err == nil {
			return segments
		}
		// The scanner rejects unterminated literals; let the server report those.
	}
	return splitStatements(script, dialect == database.TypeMySQL)
}

// splitPostgres cuts on top-level semicolon tokens from the postgres scanner,
// which understands dollar quoting, nested comments and E'' strings. Every token
// lands in a segment, so statements the parser would reject still reach the server.
func splitPostgres(script string) ([]Segment, error) {
	result, err := pg_query.Scan(script)
	if err != nil {
		return nil, err
	}

	var segments []Segment
	first := -1
	atomicDepth := 0
	prev := ""

	flush := func(end int) {
		if first >= 0 {
			text := strings.TrimSpace(script[first:end])
			if !isBlank(text) {
				segments = append(segments, Segment{
					SQL:       text,
					StartLine: 1 + strings.Count(script[:first], "\n"),
				})
			}
		}
		first = -1
	}

	for _, tok := range result.Tokens {
		text := script[tok.Start:tok.End]
		if strings.HasPrefix(text, "--") || strings.HasPrefix(text, "/*") {
			continue
		}

		word := strings.ToUpper(text)
		switch {
		case text == ";" && atomicDepth == 0:
			flush(int(tok.Start))
			prev = ""
			continue
		case word == "ATOMIC" && prev == "BEGIN":
			atomicDepth++
		case atomicDepth > 0 && word == "CASE":
			atomicDepth++
		case atomicDepth > 0 && word == "END":
			atomicDepth--
		}

		if first < 0 {
			first = int(tok.Start)
		}
		prev = word
	}
	flush(len(script))
	return segments, nil
}

var createTriggerPattern = regexp.MustCompile(`(?i)^\s*CREATE\s+(TEMP\s+|TEMPORARY\s+)?TRIGGER\b`)

var endKeywordPattern = regexp.MustCompile(`(?i)\bEND\s*$`)

// splitStatements splits SQL on semicolons outside of quotes and comments while
// preserving line numbers for error reporting. Semicolons inside a CREATE TRIGGER
// body only terminate the statement after its closing END. backslashEscapes turns
// on MySQL's backslash escapes inside quoted strings.
func splitStatements(sql string, backslashEscapes bool) []Segment {
	var segments []Segment
	var current strings.Builder
	currentLine := 1
	startLine := 1
	seenContent := false

	inSingleQuote := false
	inDoubleQuote := false
	inBacktick := false
	inLineComment := false
	inBlockComment := false

	flush := func() {
		text := strings.TrimSpace(trimLeadingComments(current.String()))
		if !isBlank(text) {
			segments = append(segments, Segment{SQL: text, StartLine: startLine})
		}
		current.Reset()
		seenContent = false
	}

	runes := []rune(sql)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		inQuote := inSingleQuote || inDoubleQuote || inBacktick

		if ch == '\n' {
			currentLine++
			inLineComment = false
		}

		if !inQuote && !inLineComment && !inBlockComment && i+1 < len(runes) {
			if ch == '-' && runes[i+1] == '-' {
				inLineComment = true
			} else if ch == '/' && runes[i+1] == '*' {
				inBlockComment = true
				current.WriteString("/*")
				i++
				continue
			}
		}
		if inBlockComment {
			current.WriteRune(ch)
			if ch == '*' && i+1 < len(runes) && runes[i+1] == '/' {
				current.WriteRune('/')
				i++
				inBlockComment = false
			}
			continue
		}

		if backslashEscapes && ch == '\\' && (inSingleQuote || inDoubleQuote) && i+1 < len(runes) {
			current.WriteRune(ch)
			current.WriteRune(runes[i+1])
			if runes[i+1] == '\n' {
				currentLine++
			}
			i++
			continue
		}

		if !inLineComment {
			switch {
			case ch == '\'' && !inDoubleQuote && !inBacktick:
				inSingleQuote = !inSingleQuote
			case ch == '"' && !inSingleQuote && !inBacktick:
				inDoubleQuote = !inDoubleQuote
			case ch == '`' && !inSingleQuote && !inDoubleQuote:
				inBacktick = !inBacktick
			}
		}

		if ch == ';' && !inQuote && !inLineComment {
			body := stripComments(current.String())
			if !createTriggerPattern.MatchString(body) || endKeywordPattern.MatchString(strings.TrimSpace(body)) {
				flush()
				continue
			}
		}

		if !seenContent && !inLineComment && !isSpace(ch) {
			startLine = currentLine
			seenContent = true
		}
		current.WriteRune(ch)
	}

	flush()
	return segments
}

var (
	lineCommentPattern  = regexp.MustCompile(`--[^\n]*`)
	blockCommentPattern = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// trimLeadingComments drops whitespace and comments before the first token.
func trimLeadingComments(sql string) string {
	for {
		sql = strings.TrimLeft(sql, " \t\r\n")
		switch {
		case strings.HasPrefix(sql, "--"):
			idx := strings.IndexByte(sql, '\n')
			if idx < 0 {
				return ""
			}
			sql = sql[idx+1:]
		case strings.HasPrefix(sql, "/*"):
			idx := strings.Index(sql, "*/")
			if idx < 0 {
				return ""
			}
			sql = sql[idx+2:]
		default:
			return sql
		}
	}
}

func stripComments(sql string) string {
	sql = blockCommentPattern.ReplaceAllString(sql, " ")
	return lineCommentPattern.ReplaceAllString(sql, " ")
}

// isBlank reports whether sql holds nothing but whitespace, comments and semicolons.
func isBlank(sql string) bool {
	return strings.Trim(stripComments(sql), " \t\r\n;") == ""
}

func isSpace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}
