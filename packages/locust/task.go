package locust

import (
	"strings"

	"github.com/abdul-hamid-achik/locustgen/packages/flow"
	"github.com/abdul-hamid-achik/locustgen/packages/naming"
)

// Entry is a dictionary item of a generated task. Key and Value are Python
// expressions.
type Entry struct {
	Key   string
	Value string
}

// Task describes one generated task method. Every string except Name and
// Body holds a ready-to-print Python expression.
type Task struct {
	Name    string
	Method  string
	URL     string
	Headers []Entry
	Params  []Entry
	Body    string
	HasBody bool
}

// excludedHeaders never make it into a generated task: the target host is
// supplied at runtime and cookies are managed by the Locust client session.
var excludedHeaders = []string{"Host", "Cookie"}

// Task builds the intermediate representation of f. It is a pure function
// of f and the renderer configuration.
func (r *Renderer) Task(f *flow.Flow) *Task {
	subs := r.substitutions(f.Origin())

	quoted := make([]string, len(f.Path))
	for i, s := range f.Path {
		quoted[i] = naming.Quote(s, "")
	}
	url := f.Origin() + "/" + strings.Join(quoted, "/")

	t := &Task{
		Name:    naming.TaskName(f.Seq, f.Method, f.Path, f.Host),
		Method:  pyString(f.Method),
		URL:     pyExpr(url, subs),
		Headers: headerEntries(f.Header, subs),
		Params:  paramEntries(f.Query, subs),
	}

	if len(f.Body) > 0 {
		t.HasBody = true
		t.Body = strings.ToValidUTF8(string(f.Body), "\uFFFD")
	}

	return t
}

// substitutions lists the three spellings of the captured origin that are
// swapped for the runtime host: literal, quote_plus encoded and quote encoded.
func (r *Renderer) substitutions(origin string) []substitution {
	host := r.dialect.HostExpr()
	return []substitution{
		{text: origin, expr: host},
		{text: naming.QuotePlus(origin), expr: "quote_plus(" + host + ")"},
		{text: naming.Quote(origin, "/"), expr: "quote(" + host + ")"},
	}
}

func isExcludedHeader(name string) bool {
	for _, h := range excludedHeaders {
		if strings.EqualFold(h, name) {
			return true
		}
	}
	return false
}

// headerEntries merges repeated header names, matched case-insensitively,
// into one comma separated value.
func headerEntries(fields []flow.Field, subs []substitution) []Entry {
	var (
		names  []string
		values = make(map[string][]string)
		first  = make(map[string]string)
	)
	for _, h := range fields {
		if isExcludedHeader(h.Name) {
			continue
		}
		key := strings.ToLower(h.Name)
		if _, ok := first[key]; !ok {
			first[key] = h.Name
			names = append(names, key)
		}
		values[key] = append(values[key], h.Value)
	}

	entries := make([]Entry, 0, len(names))
	for _, key := range names {
		entries = append(entries, Entry{
			Key:   pyString(first[key]),
			Value: pyExpr(strings.Join(values[key], ", "), subs),
		})
	}
	return entries
}

// paramEntries renders repeated query names as a Python list.
func paramEntries(fields []flow.Field, subs []substitution) []Entry {
	var (
		names  []string
		values = make(map[string][]string)
	)
	for _, q := range fields {
		if _, ok := values[q.Name]; !ok {
			names = append(names, q.Name)
		}
		values[q.Name] = append(values[q.Name], q.Value)
	}

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		vs := values[name]
		exprs := make([]string, len(vs))
		for i, v := range vs {
			exprs[i] = pyExpr(v, subs)
		}

		value := exprs[0]
		if len(exprs) > 1 {
			value = "[" + strings.Join(exprs, ", ") + "]"
		}
		entries = append(entries, Entry{Key: pyExpr(name, subs), Value: value})
	}
	return entries
}
