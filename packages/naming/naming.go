package naming

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	nonWordPattern    = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
	wordPattern       = regexp.MustCompile(`[\p{L}\p{N}_]`)
	underscorePattern = regexp.MustCompile(`_{2,}`)
)

// Fallback is returned by Identifier when no candidate has a word character.
const Fallback = "root"

// Sanitize replaces every run of non-word characters with a single underscore,
// prefixes an underscore when the result would start with a digit and
// collapses repeated underscores. Input without any word character yields "".
func Sanitize(s string) string {
	if !wordPattern.MatchString(s) {
		return ""
	}
	result := nonWordPattern.ReplaceAllString(s, "_")

	if r := []rune(result)[0]; unicode.IsDigit(r) {
		result = "_" + result
	}

	return underscorePattern.ReplaceAllString(result, "_")
}

// Identifier returns the first candidate that sanitizes to a non-empty
// identifier, or Fallback.
func Identifier(candidates ...string) string {
	for _, c := range candidates {
		if name := Sanitize(c); name != "" {
			return name
		}
	}
	return Fallback
}

// TaskName builds the method name of a generated task. The sequence number is
// zero padded so that tasks sort in capture order.
func TaskName(seq int, method string, segments []string, host string) string {
	quoted := make([]string, len(segments))
	for i, s := range segments {
		quoted[i] = Quote(s, "")
	}

	name := Identifier(strings.Join(quoted, "_"), host)

	verb := Sanitize(strings.ToUpper(method))
	if verb == "" {
		verb = "REQUEST"
	}

	full := fmt.Sprintf("task_%06d_%s_%s", seq, verb, name)
	return underscorePattern.ReplaceAllString(full, "_")
}

// HostFile returns the host fragment used in generated file names.
func HostFile(host string) string {
	if name := Sanitize(host); name != "" {
		return name
	}
	return "host"
}
