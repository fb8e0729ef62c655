package comment

import "strings"

// Annotate returns sql with the rendered comment spliced in at its end.
//
//	Annotate("select id from posts", "/*app=blog*/")
//	// returns "select id from posts /*app=blog*/"
//
//	Annotate("update posts set id = 1;", "/*app=blog*/")
//	// returns "update posts set id = 1 /*app=blog*/;"
//
// The comment goes right before a trailing ';' when the statement has one, and
// at the very end otherwise. Whitespace between the statement and its ';' is
// dropped so exactly one space precedes the comment. A comment already ending
// the statement is kept and the new one follows it. Every other byte of sql,
// including non-UTF8 runs, is kept in its original order.
//
// An empty comment returns sql unchanged.
func Annotate(sql, comment string) string {
	if comment == "" {
		return sql
	}

	at := splicePoint(sql)
	head := sql[:at]
	if at < len(sql) {
		head = trimSpaceRight(head)
	}

	var b strings.Builder
	b.Grow(len(head) + len(comment) + 1 + len(sql) - at)
	b.WriteString(head)
	b.WriteByte(' ')
	b.WriteString(comment)
	b.WriteString(sql[at:])
	return b.String()
}

// Annotated reports whether sql already ends with comment, ignoring a
// trailing ';' and surrounding whitespace.
func Annotated(sql, comment string) bool {
	if comment == "" {
		return false
	}
	return strings.HasSuffix(trimSpaceRight(sql[:splicePoint(sql)]), comment)
}

// Trailing returns the /* ... */ block ending sql, ignoring a trailing ';' and
// surrounding whitespace.
func Trailing(sql string) (string, bool) {
	body := trimSpaceRight(sql[:splicePoint(sql)])
	if !strings.HasSuffix(body, commentEnd) {
		return "", false
	}
	start := strings.LastIndex(body[:len(body)-len(commentEnd)], commentStart)
	if start < 0 {
		return "", false
	}
	return body[start:], true
}

// splicePoint returns the index of the trailing ';' of sql, or len(sql) when
// the last non-whitespace byte is not a terminator.
func splicePoint(sql string) int {
	trimmed := trimSpaceRight(sql)
	if strings.HasSuffix(trimmed, ";") {
		return len(trimmed) - 1
	}
	return len(sql)
}

// trimSpaceRight drops trailing ASCII whitespace. It works on bytes, so
// invalid UTF-8 before the whitespace is left alone.
func trimSpaceRight(s string) string {
	i := len(s)
	for i > 0 {
		switch s[i-1] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			i--
		default:
			return s[:i]
		}
	}
	return s[:i]
}
