package locust

import (
	"errors"
	"fmt"
	"sync"

	"github.com/abdul-hamid-achik/locustgen/packages/flow"
)

// ErrUnknownHost is returned by Get for a host that was never added.
var ErrUnknownHost = errors.New("unknown host")

// Registry accumulates one script per destination host. It is safe for
// concurrent use.
type Registry struct {
	mu       sync.Mutex
	renderer *Renderer
	scripts  map[string]string
	counts   map[string]int
	hosts    []string
}

// NewRegistry creates an empty Registry rendering with r. A nil renderer
// selects the defaults of NewRenderer.
func NewRegistry(r *Renderer) *Registry {
	if r == nil {
		r = NewRenderer()
	}
	return &Registry{
		renderer: r,
		scripts:  make(map[string]string),
		counts:   make(map[string]int),
	}
}

// Renderer returns the renderer used by the registry.
func (reg *Registry) Renderer() *Renderer {
	return reg.renderer
}

// Add appends a task for f to the script of host, creating the script on
// the first flow for that host.
func (reg *Registry) Add(host string, f *flow.Flow) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	script, ok := reg.scripts[host]
	if !ok {
		code, err := reg.renderer.Code(f)
		if err != nil {
			return err
		}
		reg.scripts[host] = code
		reg.counts[host] = 1
		reg.hosts = append(reg.hosts, host)
		return nil
	}

	body, err := reg.renderer.TaskBody(f)
	if err != nil {
		return err
	}
	spliced, err := Splice(script, body)
	if err != nil {
		return fmt.Errorf("host %s: %w", host, err)
	}
	reg.scripts[host] = spliced
	reg.counts[host]++
	return nil
}

// Get returns the accumulated script of host.
func (reg *Registry) Get(host string) (string, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	script, ok := reg.scripts[host]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownHost, host)
	}
	return script, nil
}

// Hosts returns the hosts in the order their first flow was added.
func (reg *Registry) Hosts() []string {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	hosts := make([]string, len(reg.hosts))
	copy(hosts, reg.hosts)
	return hosts
}

// TaskCount returns the number of tasks in the script of host.
func (reg *Registry) TaskCount(host string) int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.counts[host]
}

// Len returns the number of hosts.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.hosts)
}
