package oracle

import (
	"fmt"
	"time"
)

// Network describes one monitored network and its fee data sources.
type Network struct {
	Name      string
	ChainID   int64
	RPCURL    string
	GasAPIURL string
	BlockTime time.Duration
	Fallback  bool
}

// Registry is the explicitly constructed set of known networks. It is built
// once at startup and passed to whichever component needs it; there is no
// package-level registry state.
type Registry struct {
	networks map[string]Network
	order    []string
	fallback string
}

// NewRegistry builds a registry from the configured networks. At most one
// network may be designated as the fallback.
func NewRegistry(networks []Network) (*Registry, error) {
	if len(networks) == 0 {
		return nil, fmt.Errorf("at least one network is required")
	}

	r := &Registry{
		networks: make(map[string]Network, len(networks)),
	}
	for _, n := range networks {
		if n.Name == "" {
			return nil, fmt.Errorf("network name must not be empty")
		}
		if _, exists := r.networks[n.Name]; exists {
			return nil, fmt.Errorf("duplicate network %q", n.Name)
		}
		if n.RPCURL == "" {
			return nil, fmt.Errorf("network %q has no RPC URL", n.Name)
		}
		if n.BlockTime <= 0 {
			n.BlockTime = 12 * time.Second
		}
		if n.Fallback {
			if r.fallback != "" {
				return nil, fmt.Errorf("multiple fallback networks: %q and %q", r.fallback, n.Name)
			}
			r.fallback = n.Name
		}
		r.networks[n.Name] = n
		r.order = append(r.order, n.Name)
	}
	return r, nil
}

// Get returns the network by name.
func (r *Registry) Get(name string) (Network, bool) {
	n, ok := r.networks[name]
	return n, ok
}

// Names returns all network names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Fallback returns the designated fallback network, conventionally the base
// L1 network, if one is configured.
func (r *Registry) Fallback() (Network, bool) {
	if r.fallback == "" {
		return Network{}, false
	}
	return r.networks[r.fallback], true
}
