package locust

import (
	"fmt"
	"strings"
)

// substitution replaces a literal occurrence of text with a Python expression.
type substitution struct {
	text string
	expr string
}

// pyString quotes s as a single-quoted Python string literal.
func pyString(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '\'':
			sb.WriteString(`\'`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&sb, `\x%02x`, r)
				continue
			}
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}

// pyExpr renders s as a Python string expression in which every occurrence of
// a substitution text is replaced by its expression, for example
// "http://example.com/a" becomes "self.user.host + '/a'".
func pyExpr(s string, subs []substitution) string {
	var (
		parts   []string
		literal strings.Builder
	)

	flush := func() {
		if literal.Len() > 0 {
			parts = append(parts, pyString(literal.String()))
			literal.Reset()
		}
	}

outer:
	for i := 0; i < len(s); {
		for _, sub := range subs {
			if sub.text != "" && strings.HasPrefix(s[i:], sub.text) {
				flush()
				parts = append(parts, sub.expr)
				i += len(sub.text)
				continue outer
			}
		}
		literal.WriteByte(s[i])
		i++
	}
	flush()

	if len(parts) == 0 {
		return "''"
	}
	return strings.Join(parts, " + ")
}
