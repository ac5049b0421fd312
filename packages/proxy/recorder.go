// Package proxy records requests passing through an intercepting proxy and
// turns them into load test scripts.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	mitm "github.com/lqqyt2423/go-mitmproxy/proxy"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/locustgen/packages/export"
	"github.com/abdul-hamid-achik/locustgen/packages/flow"
	"github.com/abdul-hamid-achik/locustgen/packages/journal"
	"github.com/abdul-hamid-achik/locustgen/packages/locust"
)

// DefaultPrefix is used when no filename prefix is configured.
const DefaultPrefix = "test"

// ErrFiltered is returned by Observe for flows rejected by the host
// allow-list or the path exclusions.
var ErrFiltered = errors.New("flow filtered")

// Recorder is a go-mitmproxy addon that accumulates one script per host.
type Recorder struct {
	mitm.BaseAddon

	listen            string
	insecure          bool
	streamLargeBodies int64
	prefix            string
	outputDir         string
	hosts             []string
	exclude           []string
	journal           *journal.Journal
	log               logrus.FieldLogger
	registry          *locust.Registry
	preserveSeq       bool

	mutex    sync.Mutex
	seq      int
	recorded int
	skipped  int
	ctx      context.Context
	every    rate.Sometimes
}

// Option is a functional option for Recorder
type Option func(*Recorder)

// WithListen sets the proxy listen address
func WithListen(addr string) Option {
	return func(r *Recorder) {
		r.listen = addr
	}
}

// WithInsecure skips upstream certificate verification
func WithInsecure(insecure bool) Option {
	return func(r *Recorder) {
		r.insecure = insecure
	}
}

// WithStreamLargeBodies sets the size above which bodies are streamed
// instead of buffered. Streamed bodies are not recorded.
func WithStreamLargeBodies(n int64) Option {
	return func(r *Recorder) {
		r.streamLargeBodies = n
	}
}

// WithPrefix sets the output filename prefix
func WithPrefix(prefix string) Option {
	return func(r *Recorder) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// WithOutputDir sets the directory scripts are written to
func WithOutputDir(dir string) Option {
	return func(r *Recorder) {
		r.outputDir = dir
	}
}

// WithHosts restricts recording to hosts matching one of the patterns.
// Patterns use path.Match syntax, e.g. "*.example.com".
func WithHosts(patterns []string) Option {
	return func(r *Recorder) {
		r.hosts = patterns
	}
}

// WithExclude sets paths to exclude from recording
func WithExclude(paths []string) Option {
	return func(r *Recorder) {
		r.exclude = paths
	}
}

// WithJournal appends every observed flow to j
func WithJournal(j *journal.Journal) Option {
	return func(r *Recorder) {
		r.journal = j
	}
}

// WithLogger sets the logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Recorder) {
		r.log = log
	}
}

// WithRenderer sets the renderer used for new scripts
func WithRenderer(renderer *locust.Renderer) Option {
	return func(r *Recorder) {
		r.registry = locust.NewRegistry(renderer)
	}
}

// WithStartSeq sets the first sequence number, used to continue numbering
// of an existing journal.
func WithStartSeq(seq int) Option {
	return func(r *Recorder) {
		r.seq = seq
	}
}

// WithPreserveSeq keeps the sequence numbers flows already carry, used when
// replaying journaled flows.
func WithPreserveSeq(preserve bool) Option {
	return func(r *Recorder) {
		r.preserveSeq = preserve
	}
}

// NewRecorder creates a new recorder
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		listen:            ":8080",
		streamLargeBodies: 5 * 1024 * 1024,
		prefix:            DefaultPrefix,
		outputDir:         ".",
		log:               logrus.StandardLogger(),
		registry:          locust.NewRegistry(nil),
		ctx:               context.Background(),
		every:             rate.Sometimes{First: 3, Interval: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the registry holding the accumulated scripts.
func (r *Recorder) Registry() *locust.Registry {
	return r.registry
}

// Stats returns the number of recorded and skipped flows.
func (r *Recorder) Stats() (recorded, skipped int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.recorded, r.skipped
}

// Request is called by go-mitmproxy once the request of a flow has been read.
func (r *Recorder) Request(f *mitm.Flow) {
	if f == nil || f.Request == nil {
		return
	}
	req := f.Request
	fl := flow.New(req.Method, req.URL, req.Header, req.Body)
	if enc, ok := fl.HeaderValue("Content-Encoding"); ok && !fl.Decode() {
		r.log.WithField("encoding", enc).Debug("leaving request body encoded")
	}

	if err := r.Observe(fl); err != nil && !errors.Is(err, ErrFiltered) {
		r.log.WithError(err).WithFields(logrus.Fields{
			"method": fl.Method,
			"host":   fl.Host,
		}).Error("failed to record flow")
	}
}

// Observe assigns the next sequence number to f and adds it to the script
// of its host. Sequence numbers follow insertion order.
func (r *Recorder) Observe(f *flow.Flow) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.allowed(f) {
		r.skipped++
		r.log.WithFields(logrus.Fields{
			"host": f.Host,
			"path": "/" + strings.Join(f.Path, "/"),
		}).Debug("skipping filtered flow")
		return ErrFiltered
	}

	if !r.preserveSeq {
		f.Seq = r.seq
	}
	if err := r.registry.Add(f.Host, f); err != nil {
		r.skipped++
		return fmt.Errorf("failed to add flow %d: %w", f.Seq, err)
	}
	if f.Seq >= r.seq {
		r.seq = f.Seq + 1
	}
	r.recorded++

	if r.journal != nil {
		if err := r.journal.Append(r.ctx, f); err != nil {
			r.log.WithError(err).WithField("seq", f.Seq).Warn("failed to journal flow")
		}
	}

	entry := r.log.WithFields(logrus.Fields{
		"seq":    f.Seq,
		"method": f.Method,
		"host":   f.Host,
	})
	entry.Debug("recorded flow")
	r.every.Do(func() {
		entry.Infof("recorded %d flows across %d hosts", r.recorded, r.registry.Len())
	})
	return nil
}

func (r *Recorder) allowed(f *flow.Flow) bool {
	if len(r.hosts) > 0 && !matchHost(r.hosts, f.Host) {
		return false
	}
	return !r.shouldExclude("/" + strings.Join(f.Path, "/"))
}

func matchHost(patterns []string, host string) bool {
	host = strings.ToLower(host)
	for _, pattern := range patterns {
		pattern = strings.ToLower(pattern)
		if pattern == host {
			return true
		}
		if ok, err := path.Match(pattern, host); err == nil && ok {
			return true
		}
	}
	return false
}

func (r *Recorder) shouldExclude(p string) bool {
	for _, exclude := range r.exclude {
		if exclude != "" && strings.Contains(p, exclude) {
			return true
		}
	}
	return false
}

// Done writes the script of every observed host, replacing existing files.
func (r *Recorder) Done() ([]export.File, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	files, err := export.WriteScripts(r.registry, r.outputDir, r.prefix)
	for _, file := range files {
		r.log.WithFields(logrus.Fields{
			"file":  file.Path,
			"tasks": file.Tasks,
		}).Info("wrote script")
	}
	return files, err
}

// Start runs the intercepting proxy with the recorder as addon until ctx is
// cancelled, then shuts the proxy down and writes the scripts.
func (r *Recorder) Start(ctx context.Context) ([]export.File, error) {
	p, err := mitm.NewProxy(&mitm.Options{
		Addr:              r.listen,
		StreamLargeBodies: r.streamLargeBodies,
		SslInsecure:       r.insecure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy: %w", err)
	}

	r.mutex.Lock()
	r.ctx = ctx
	r.mutex.Unlock()

	p.AddAddon(r)

	errCh := make(chan error, 1)
	go func() {
		errCh <- p.Start()
	}()

	r.log.WithField("listen", r.listen).Info("recording proxy started")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.Shutdown(shutdownCtx); err != nil {
			r.log.WithError(err).Warn("proxy shutdown failed, closing")
			_ = p.Close()
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return nil, fmt.Errorf("proxy stopped: %w", err)
		}
	}

	r.mutex.Lock()
	r.ctx = context.Background()
	r.mutex.Unlock()

	return r.Done()
}
