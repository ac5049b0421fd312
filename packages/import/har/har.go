// Package har converts HTTP Archive (HAR) exports into captured flows.
package har

import (
	_ "embed"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"

	"github.com/abdul-hamid-achik/locustgen/packages/flow"
)

//go:embed schema.json
var schemaJSON []byte

// ErrInvalidHAR is returned when a document does not validate against the
// HAR schema.
var ErrInvalidHAR = errors.New("invalid HAR document")

// Converter converts HAR documents to flows.
type Converter struct {
	methods map[string]bool
}

// Option is a functional option for Converter.
type Option func(*Converter)

// WithMethods keeps only entries using one of the given methods.
func WithMethods(methods []string) Option {
	return func(c *Converter) {
		if len(methods) == 0 {
			return
		}
		c.methods = make(map[string]bool, len(methods))
		for _, m := range methods {
			c.methods[strings.ToUpper(m)] = true
		}
	}
}

// NewConverter creates a new HAR converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ConvertFile reads and converts a HAR file.
func (c *Converter) ConvertFile(path string) ([]*flow.Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return c.Convert(data)
}

// Convert converts a HAR document. Entries keep their document order.
func (c *Converter) Convert(data []byte) ([]*flow.Flow, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	var flows []*flow.Flow
	var convErr error
	i := 0
	gjson.GetBytes(data, "log.entries").ForEach(func(_, entry gjson.Result) bool {
		f, err := c.entry(entry)
		if err != nil {
			convErr = fmt.Errorf("entry %d: %w", i, err)
			return false
		}
		i++
		if f != nil {
			flows = append(flows, f)
		}
		return true
	})
	if convErr != nil {
		return nil, convErr
	}

	return flows, nil
}

// Validate checks data against the HAR schema.
func Validate(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("%w: malformed JSON", ErrInvalidHAR)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidHAR, strings.Join(errs, "; "))
}

func (c *Converter) entry(entry gjson.Result) (*flow.Flow, error) {
	req := entry.Get("request")
	method := strings.ToUpper(req.Get("method").String())
	if c.methods != nil && !c.methods[method] {
		return nil, nil
	}

	u, err := url.Parse(req.Get("url").String())
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("invalid URL %q: missing host", u.String())
	}

	header := http.Header{}
	req.Get("headers").ForEach(func(_, h gjson.Result) bool {
		name := h.Get("name").String()
		// HTTP/2 pseudo headers such as :authority
		if name == "" || strings.HasPrefix(name, ":") {
			return true
		}
		header.Add(name, h.Get("value").String())
		return true
	})

	body, err := postData(req.Get("postData"))
	if err != nil {
		return nil, err
	}

	f := flow.New(method, u, header, body)
	if started := entry.Get("startedDateTime"); started.Exists() {
		if t, err := time.Parse(time.RFC3339Nano, started.String()); err == nil {
			f.CapturedAt = t
		}
	}
	return f, nil
}

func postData(pd gjson.Result) ([]byte, error) {
	if !pd.Exists() {
		return nil, nil
	}

	if text := pd.Get("text"); text.Exists() && text.String() != "" {
		if pd.Get("encoding").String() == "base64" {
			data, err := base64.StdEncoding.DecodeString(text.String())
			if err != nil {
				return nil, fmt.Errorf("invalid base64 postData: %w", err)
			}
			return data, nil
		}
		return []byte(text.String()), nil
	}

	values := url.Values{}
	var names []string
	pd.Get("params").ForEach(func(_, p gjson.Result) bool {
		name := p.Get("name").String()
		if _, seen := values[name]; !seen {
			names = append(names, name)
		}
		values.Add(name, p.Get("value").String())
		return true
	})
	if len(names) == 0 {
		return nil, nil
	}

	var parts []string
	for _, name := range names {
		for _, v := range values[name] {
			parts = append(parts, url.QueryEscape(name)+"="+url.QueryEscape(v))
		}
	}
	return []byte(strings.Join(parts, "&")), nil
}
