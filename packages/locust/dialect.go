package locust

import (
	"fmt"
	"strings"
)

// Dialect selects the generation of the Locust API a script targets.
type Dialect string

const (
	// DialectModern targets Locust 1.0 and later (HttpUser, SequentialTaskSet).
	DialectModern Dialect = "modern"
	// DialectLegacy targets Locust before 1.0 (HttpLocust, TaskSet).
	DialectLegacy Dialect = "legacy"
)

// ParseDialect parses a dialect name. An empty name selects DialectModern.
func ParseDialect(name string) (Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(name))) {
	case "", DialectModern:
		return DialectModern, nil
	case DialectLegacy:
		return DialectLegacy, nil
	default:
		return "", fmt.Errorf("unknown dialect %q (expected %q or %q)", name, DialectModern, DialectLegacy)
	}
}

// HostExpr is the Python expression that yields the target host at runtime.
func (d Dialect) HostExpr() string {
	if d == DialectLegacy {
		return "self.locust.host"
	}
	return "self.user.host"
}

func (d Dialect) String() string {
	return string(d)
}
