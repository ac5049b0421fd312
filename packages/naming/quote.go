package naming

import "strings"

const upperhex = "0123456789ABCDEF"

// Quote percent-encodes s the way Python's urllib.parse.quote does: letters,
// digits, "_.-~" and any byte listed in safe are kept, everything else is
// encoded byte by byte from its UTF-8 form.
func Quote(s, safe string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) || (c < 0x80 && strings.IndexByte(safe, c) >= 0) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(upperhex[c>>4])
		sb.WriteByte(upperhex[c&15])
	}

	return sb.String()
}

// QuotePlus mirrors urllib.parse.quote_plus: spaces become '+' and '/' is
// encoded.
func QuotePlus(s string) string {
	return strings.ReplaceAll(Quote(s, " "), " ", "+")
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '_' || c == '.' || c == '-' || c == '~':
		return true
	}
	return false
}
