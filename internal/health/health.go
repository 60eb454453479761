// Package health runs the readiness probes reported by the gateway and the
// start command.
package health

import (
	"context"
	"sync"
	"time"
)

// Status represents the outcome of a single probe.
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusError
	StatusDisabled
)

// String returns the lower-case status name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	case StatusDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Symbol returns the symbol for a status
func (s Status) Symbol() string {
	switch s {
	case StatusOK:
		return "✓"
	case StatusWarning:
		return "○"
	case StatusError:
		return "✗"
	case StatusDisabled:
		return "·"
	default:
		return "?"
	}
}

// Check represents a health check result
type Check struct {
	Name    string `json:"name"`
	Status  Status `json:"-"`
	State   string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Probe reports nil when the dependency it checks is usable.
type Probe func(ctx context.Context) error

type namedProbe struct {
	name     string
	probe    Probe
	optional bool
}

// Checker holds the registered probes.
type Checker struct {
	mu      sync.RWMutex
	probes  []namedProbe
	timeout time.Duration
}

// NewChecker creates a checker that gives every probe at most timeout.
func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{timeout: timeout}
}

// Add registers a probe whose failure makes the report not ready.
func (c *Checker) Add(name string, p Probe) {
	c.add(namedProbe{name: name, probe: p})
}

// AddOptional registers a probe whose failure only produces a warning.
func (c *Checker) AddOptional(name string, p Probe) {
	c.add(namedProbe{name: name, probe: p, optional: true})
}

// Disabled records a component that is switched off in the configuration.
func (c *Checker) Disabled(name string) {
	c.add(namedProbe{name: name})
}

func (c *Checker) add(p namedProbe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes = append(c.probes, p)
}

// Report contains all health check results
type Report struct {
	Checks []Check `json:"checks"`
}

// Ready reports whether no required probe failed.
func (r *Report) Ready() bool {
	for _, c := range r.Checks {
		if c.Status == StatusError {
			return false
		}
	}
	return true
}

// Run executes the probes concurrently and returns them in registration order.
func (c *Checker) Run(ctx context.Context) *Report {
	c.mu.RLock()
	probes := append([]namedProbe(nil), c.probes...)
	c.mu.RUnlock()

	report := &Report{Checks: make([]Check, len(probes))}
	var wg sync.WaitGroup
	for i, p := range probes {
		wg.Add(1)
		go func(i int, p namedProbe) {
			defer wg.Done()
			report.Checks[i] = c.run(ctx, p)
		}(i, p)
	}
	wg.Wait()
	return report
}

func (c *Checker) run(ctx context.Context, p namedProbe) Check {
	check := Check{Name: p.name, Status: StatusOK}
	switch {
	case p.probe == nil:
		check.Status = StatusDisabled
	default:
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		if err := p.probe(ctx); err != nil {
			check.Message = err.Error()
			check.Status = StatusError
			if p.optional {
				check.Status = StatusWarning
			}
		}
	}
	check.State = check.Status.String()
	return check
}
