package scanner

import (
	"fmt"

	"github.com/ibwaheemi/sports-downloader-docker/internal/ports"
)

// Registry keeps a mapping from strategy names to their implementations,
// so a site's filtering rules are swappable without touching the pipeline.
type Registry struct {
	strategies map[string]ports.SiteStrategy
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: map[string]ports.SiteStrategy{}}
}

// Register adds or replaces a strategy implementation.
func (r *Registry) Register(strategy ports.SiteStrategy) {
	if r.strategies == nil {
		r.strategies = map[string]ports.SiteStrategy{}
	}
	r.strategies[strategy.Name()] = strategy
}

// Resolve returns a strategy by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.SiteStrategy, error) {
	if strategy, ok := r.strategies[name]; ok {
		return strategy, nil
	}
	return nil, fmt.Errorf("strategy %s is not registered", name)
}
