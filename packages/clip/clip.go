// Package clip copies rendered tasks and scripts to the system clipboard.
//
// Clipboard failures never abort the caller: they are logged and reported
// through the boolean result.
package clip

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/sirupsen/logrus"

	"github.com/abdul-hamid-achik/locustgen/packages/flow"
	"github.com/abdul-hamid-achik/locustgen/packages/locust"
)

// ErrUnsupported is returned when no clipboard utility is available.
var ErrUnsupported = errors.New("clipboard not supported on this system")

// Copier writes text to a clipboard.
type Copier interface {
	WriteAll(text string) error
}

// System is the system clipboard.
type System struct{}

func (System) WriteAll(text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	return clipboard.WriteAll(text)
}

// Clipper renders flows and copies the result.
type Clipper struct {
	copier   Copier
	renderer *locust.Renderer
	log      logrus.FieldLogger
}

// Option is a functional option for Clipper.
type Option func(*Clipper)

// WithCopier replaces the system clipboard.
func WithCopier(c Copier) Option {
	return func(cl *Clipper) {
		cl.copier = c
	}
}

// WithRenderer sets the renderer.
func WithRenderer(r *locust.Renderer) Option {
	return func(cl *Clipper) {
		cl.renderer = r
	}
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(cl *Clipper) {
		cl.log = log
	}
}

func New(opts ...Option) *Clipper {
	cl := &Clipper{
		copier:   System{},
		renderer: locust.NewRenderer(),
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

// Task copies the task bodies of flows, ready to paste into an existing
// task container.
func (cl *Clipper) Task(flows []*flow.Flow) (string, bool, error) {
	if len(flows) == 0 {
		return "", false, fmt.Errorf("no flows selected")
	}
	text, err := cl.renderer.Tasks(flows)
	if err != nil {
		return "", false, err
	}
	return text, cl.copy(text, "task", len(flows)), nil
}

// Code copies a complete script containing one task per flow.
func (cl *Clipper) Code(flows []*flow.Flow) (string, bool, error) {
	text, err := cl.renderer.Script(flows)
	if err != nil {
		return "", false, err
	}
	return text, cl.copy(text, "code", len(flows)), nil
}

func (cl *Clipper) copy(text, kind string, n int) bool {
	if err := cl.copier.WriteAll(text); err != nil {
		cl.log.WithError(err).WithField("kind", kind).Error("failed to copy to clipboard")
		return false
	}
	cl.log.WithFields(logrus.Fields{"kind": kind, "flows": n}).Info("copied to clipboard")
	return true
}
