package locust

import (
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/locustgen/packages/flow"
)

const (
	defaultMinWait = 1 * time.Second
	defaultMaxWait = 3 * time.Second
)

// Renderer turns flows into Locust code.
type Renderer struct {
	dialect Dialect
	minWait time.Duration
	maxWait time.Duration
}

// Option is a functional option for Renderer.
type Option func(*Renderer)

// WithDialect sets the Locust API generation to target.
func WithDialect(d Dialect) Option {
	return func(r *Renderer) {
		if d != "" {
			r.dialect = d
		}
	}
}

// WithWait sets the wait time range of the generated user class.
func WithWait(minWait, maxWait time.Duration) Option {
	return func(r *Renderer) {
		if minWait > 0 {
			r.minWait = minWait
		}
		if maxWait > 0 {
			r.maxWait = maxWait
		}
	}
}

// NewRenderer creates a Renderer. Defaults are the modern dialect and a
// wait time between one and three seconds.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		dialect: DialectModern,
		minWait: defaultMinWait,
		maxWait: defaultMaxWait,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.maxWait < r.minWait {
		r.maxWait = r.minWait
	}
	return r
}

// Dialect returns the configured dialect.
func (r *Renderer) Dialect() Dialect {
	return r.dialect
}

// Code renders a complete script holding the single task for f.
func (r *Renderer) Code(f *flow.Flow) (string, error) {
	data := scriptData{
		Version:   TemplateVersion,
		Task:      r.Task(f),
		Anchor:    AnchorMarker,
		MinWait:   seconds(r.minWait),
		MaxWait:   seconds(r.maxWait),
		MinWaitMs: r.minWait.Milliseconds(),
		MaxWaitMs: r.maxWait.Milliseconds(),
	}

	var sb strings.Builder
	if err := scripts.ExecuteTemplate(&sb, string(r.dialect), data); err != nil {
		return "", fmt.Errorf("failed to render %s script: %w", r.dialect, err)
	}
	return sb.String(), nil
}

// TaskBody renders only the task method for f, ready to be spliced into an
// existing script.
func (r *Renderer) TaskBody(f *flow.Flow) (string, error) {
	code, err := r.Code(f)
	if err != nil {
		return "", err
	}
	return ExtractTask(code)
}

// Tasks concatenates the task methods of flows.
func (r *Renderer) Tasks(flows []*flow.Flow) (string, error) {
	var sb strings.Builder
	for _, f := range flows {
		body, err := r.TaskBody(f)
		if err != nil {
			return "", err
		}
		sb.WriteString(body)
	}
	return sb.String(), nil
}

// Script renders one script holding a task per flow, in the given order.
func (r *Renderer) Script(flows []*flow.Flow) (string, error) {
	if len(flows) == 0 {
		return "", fmt.Errorf("no flows to render")
	}

	script, err := r.Code(flows[0])
	if err != nil {
		return "", err
	}
	for _, f := range flows[1:] {
		body, err := r.TaskBody(f)
		if err != nil {
			return "", err
		}
		if script, err = Splice(script, body); err != nil {
			return "", err
		}
	}
	return script, nil
}
