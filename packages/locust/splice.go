package locust

import (
	"errors"
	"fmt"
	"strings"
)

// AnchorMarker is the line that follows the last task of every generated
// script. New tasks are inserted right before it.
const AnchorMarker = "    ### Additional tasks can go here ###"

const taskDecorator = "    @task("

// ErrAnchorNotFound is returned when a script lacks the anchor marker or a
// rendered task lacks its decorator.
var ErrAnchorNotFound = errors.New("anchor not found")

// anchorIndex returns the offset of the last anchor line in script, or -1.
// The last occurrence is used so that marker text inside a captured body
// cannot shadow the real anchor.
func anchorIndex(script string) int {
	i := strings.LastIndex(script, "\n"+AnchorMarker+"\n")
	if i < 0 {
		return -1
	}
	return i + 1
}

// ExtractTask returns the task method of a rendered single-task script: the
// text from its @task decorator line up to the anchor line.
func ExtractTask(code string) (string, error) {
	end := anchorIndex(code)
	if end < 0 {
		return "", fmt.Errorf("extract task: %w: missing %q", ErrAnchorNotFound, strings.TrimSpace(AnchorMarker))
	}

	start := strings.Index(code, "\n"+taskDecorator)
	if start < 0 || start+1 > end {
		return "", fmt.Errorf("extract task: %w: missing task decorator", ErrAnchorNotFound)
	}

	return code[start+1 : end], nil
}

// Splice inserts task before the anchor line of script. Everything from the
// anchor on is kept unchanged.
func Splice(script, task string) (string, error) {
	i := anchorIndex(script)
	if i < 0 {
		return "", fmt.Errorf("splice: %w: missing %q", ErrAnchorNotFound, strings.TrimSpace(AnchorMarker))
	}

	var sb strings.Builder
	sb.Grow(len(script) + len(task))
	sb.WriteString(script[:i])
	sb.WriteString(task)
	sb.WriteString(script[i:])
	return sb.String(), nil
}
