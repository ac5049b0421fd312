package flow

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Field is a single name/value pair. Order of fields is preserved.
type Field struct {
	Name  string `json:"name" msgpack:"n"`
	Value string `json:"value" msgpack:"v"`
}

// Flow is one observed request.
type Flow struct {
	ID         uuid.UUID
	Seq        int
	Method     string
	Scheme     string
	Host       string
	Path       []string
	Query      []Field
	Header     []Field
	Body       []byte
	CapturedAt time.Time
}

// New builds a Flow from the parts of an HTTP request. The host is the
// hostname without port. Header fields are ordered by name so that the
// same request always yields the same flow.
func New(method string, u *url.URL, header http.Header, body []byte) *Flow {
	f := &Flow{
		ID:         uuid.New(),
		Method:     strings.ToUpper(method),
		CapturedAt: time.Now(),
	}
	if f.Method == "" {
		f.Method = http.MethodGet
	}

	if u != nil {
		f.Scheme = u.Scheme
		f.Host = u.Hostname()
		f.Path = SplitPath(u.EscapedPath())
		f.Query = ParseQuery(u.RawQuery)
	}
	if f.Scheme == "" {
		f.Scheme = "http"
	}
	if f.Host == "" && header != nil {
		f.Host = hostname(header.Get("Host"))
	}

	keys := make([]string, 0, len(header))
	for k := range header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range header[k] {
			f.Header = append(f.Header, Field{Name: k, Value: v})
		}
	}

	if len(body) > 0 {
		f.Body = append([]byte(nil), body...)
	}

	return f
}

// SplitPath splits an escaped URL path into decoded, non-empty segments.
func SplitPath(escaped string) []string {
	var segments []string
	for _, part := range strings.Split(escaped, "/") {
		if part == "" {
			continue
		}
		if decoded, err := url.PathUnescape(part); err == nil {
			part = decoded
		}
		segments = append(segments, part)
	}
	return segments
}

// ParseQuery parses a raw query string keeping the original field order,
// which url.ParseQuery does not.
func ParseQuery(raw string) []Field {
	var fields []Field
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		name, value, _ := strings.Cut(pair, "=")
		if decoded, err := url.QueryUnescape(name); err == nil {
			name = decoded
		}
		if decoded, err := url.QueryUnescape(value); err == nil {
			value = decoded
		}
		fields = append(fields, Field{Name: name, Value: value})
	}
	return fields
}

// Origin returns scheme://host.
func (f *Flow) Origin() string {
	return f.Scheme + "://" + f.Host
}

// HeaderValue returns the first value of the named header, matched
// case-insensitively.
func (f *Flow) HeaderValue(name string) (string, bool) {
	for _, h := range f.Header {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// DeleteHeader removes every field with the given name.
func (f *Flow) DeleteHeader(name string) {
	kept := f.Header[:0]
	for _, h := range f.Header {
		if !strings.EqualFold(h.Name, name) {
			kept = append(kept, h)
		}
	}
	f.Header = kept
}

func hostname(hostport string) string {
	if hostport == "" {
		return ""
	}
	u := url.URL{Host: hostport}
	return u.Hostname()
}
