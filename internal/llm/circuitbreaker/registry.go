package circuitbreaker

import (
	"sync"

	"github.com/ahrav/go-checkmate/internal/configuration"
)

// Registry owns one breaker per operation class. Breakers are created
// lazily and live for the process lifetime; classes never share counters.
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	configs  map[string]configuration.BreakerConfig
	fallback Config
}

// NewRegistry creates a registry backed by per-class configuration.
// Classes without explicit configuration fall back to the stock thresholds.
func NewRegistry(configs map[string]configuration.BreakerConfig) *Registry {
	return &Registry{
		breakers: make(map[string]*Breaker),
		configs:  configs,
		fallback: Config{
			FailureThreshold: configuration.DefaultFailureThreshold,
			OpenTimeout:      configuration.DefaultOpenTimeout,
		},
	}
}

// Get returns the breaker for the given operation class, creating it on
// first use.
func (r *Registry) Get(class string) *Breaker {
	r.mu.RLock()
	b, ok := r.breakers[class]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[class]; ok {
		return b
	}

	cfg := r.fallback
	if bc, ok := r.configs[class]; ok {
		cfg = Config{FailureThreshold: bc.FailureThreshold, OpenTimeout: bc.OpenTimeout}
	}
	b = New(class, cfg)
	r.breakers[class] = b
	return b
}

// Snapshot returns a view of every instantiated breaker for health
// reporting.
func (r *Registry) Snapshot() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snaps := make([]Snapshot, 0, len(r.breakers))
	for _, b := range r.breakers {
		snaps = append(snaps, b.Snapshot())
	}
	return snaps
}
