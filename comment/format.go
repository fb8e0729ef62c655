package comment

import (
	"net/url"
	"strings"
)

const (
	commentStart = "/*"
	commentEnd   = "*/"

	hexDigits = "0123456789ABCDEF"
)

// Format renders components as a single SQL block comment:
//
//	Format(Components{{"app", "blog"}, {"controller", "posts"}})
//	// returns "/*app=blog,controller=posts*/"
//
// An empty list renders as the empty string, which Annotate treats as
// "nothing to append".
func Format(components Components) string {
	if len(components) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(commentStart)
	for i, c := range components {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(c.Name)
		b.WriteByte('=')
		writeEscaped(&b, c.Value)
	}
	b.WriteString(commentEnd)
	return b.String()
}

// needsEscape reports whether byte c at position i of a value of length n
// must be percent-escaped.
func needsEscape(c byte, i, n int) bool {
	switch c {
	case '%', '*', ',', '?':
		return true
	case '/':
		// joined with the closing "*/" it would read as "/*"
		return i == n-1
	}
	return false
}

func writeEscaped(b *strings.Builder, v string) {
	n := len(v)
	for i := 0; i < n; i++ {
		c := v[i]
		if !needsEscape(c, i, n) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0x0F])
	}
}

// Parse decodes the annotation at the end of sql.
//
// It returns false when sql does not end with a comment in the
// /*name=value,...*/ format, for example when the trailing comment is free
// text written by someone else. Only the last comment is decoded when several
// have accumulated.
func Parse(sql string) (Components, bool) {
	block, ok := Trailing(sql)
	if !ok {
		return nil, false
	}

	body := block[len(commentStart) : len(block)-len(commentEnd)]
	if body == "" {
		return Components{}, true
	}

	var out Components
	for _, pair := range strings.Split(strings.TrimSuffix(body, ","), ",") {
		name, value, found := strings.Cut(pair, "=")
		if !found || !validName(name) || strings.Contains(value, "*") {
			return nil, false
		}
		decoded, err := url.PathUnescape(value)
		if err != nil {
			return nil, false
		}
		out = append(out, Component{Name: name, Value: decoded})
	}
	return out, true
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		default:
			return false
		}
	}
	return true
}
