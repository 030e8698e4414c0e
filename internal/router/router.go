package router

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/gasgate-labs/gasgate-backend/internal/oracle"
	"github.com/gasgate-labs/gasgate-backend/pkg/logging"
	"github.com/gasgate-labs/gasgate-backend/pkg/types"
)

// ErrNoNetworkQualifies is returned by Recommend when no candidate, and no
// permitted fallback, is under the fee ceiling.
var ErrNoNetworkQualifies = errors.New("no network qualifies")

// Comparison pairs a network with its live fee reading.
type Comparison struct {
	Network string            `json:"network"`
	Reading *types.FeeReading `json:"reading"`
}

// NoQualifyingNetworkError carries the full comparison set for diagnostics
// when every candidate is over the ceiling.
type NoQualifyingNetworkError struct {
	Ceiling     *big.Int
	Comparisons []Comparison
}

func (e *NoQualifyingNetworkError) Error() string {
	return fmt.Sprintf("no network qualifies under ceiling %s wei (%d networks compared)", e.Ceiling, len(e.Comparisons))
}

func (e *NoQualifyingNetworkError) Is(target error) bool {
	return target == ErrNoNetworkQualifies
}

// Router selects an execution network from live fee comparisons. Its choice
// is advisory: the ledger still re-validates the fee gate on whichever
// network the execute call lands on.
type Router struct {
	registry  *oracle.Registry
	feeOracle oracle.FeeOracle
	logger    logging.Logger
}

func New(registry *oracle.Registry, feeOracle oracle.FeeOracle, logger logging.Logger) (*Router, error) {
	if registry == nil || feeOracle == nil {
		return nil, fmt.Errorf("registry and oracle are required")
	}
	if logger == nil {
		logger = &logging.NoopLogger{}
	}
	return &Router{
		registry:  registry,
		feeOracle: feeOracle,
		logger:    logger,
	}, nil
}

// CompareAll fetches a fee reading for every registered network in parallel.
// Networks whose oracle read fails are dropped from the result, not reported
// as errors. The result order is unspecified.
func (r *Router) CompareAll(ctx context.Context) []Comparison {
	return r.compare(ctx, r.registry.Names())
}

func (r *Router) compare(ctx context.Context, networks []string) []Comparison {
	var (
		wg          sync.WaitGroup
		mutex       sync.Mutex
		comparisons []Comparison
	)
	for _, name := range networks {
		if _, ok := r.registry.Get(name); !ok {
			r.logger.Warn("Skipping unknown network in comparison", "network", name)
			continue
		}
		wg.Add(1)
		go func(network string) {
			defer wg.Done()
			reading, err := r.feeOracle.GetCurrentFeeReading(ctx, network)
			if err != nil {
				r.logger.Warnf("Dropping network %s from comparison: %v", network, err)
				return
			}
			mutex.Lock()
			comparisons = append(comparisons, Comparison{Network: network, Reading: reading})
			mutex.Unlock()
		}(name)
	}
	wg.Wait()
	return comparisons
}

// Cheapest returns the candidate network with the lowest total fee among
// those that responded. Ties go to the earlier-listed candidate.
func (r *Router) Cheapest(ctx context.Context, candidates []string) (*Comparison, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("at least one candidate network is required")
	}
	comparisons := r.compare(ctx, candidates)
	best := cheapestOf(candidates, comparisons, nil)
	if best == nil {
		return nil, fmt.Errorf("no candidate network responded")
	}
	return best, nil
}

// Recommend picks the cheapest preferred network whose total fee is at or
// under the ceiling. If none qualifies and allowFallback is set, the
// registry's designated fallback network is considered under the same
// ceiling. A nil ceiling means no limit.
func (r *Router) Recommend(ctx context.Context, preferred []string, ceiling *big.Int, allowFallback bool) (*Comparison, error) {
	if len(preferred) == 0 {
		return nil, fmt.Errorf("at least one preferred network is required")
	}

	networks := append([]string(nil), preferred...)
	fallback, hasFallback := r.registry.Fallback()
	if allowFallback && hasFallback && !contains(networks, fallback.Name) {
		networks = append(networks, fallback.Name)
	}
	comparisons := r.compare(ctx, networks)

	if best := cheapestOf(preferred, comparisons, ceiling); best != nil {
		return best, nil
	}
	if allowFallback && hasFallback {
		if best := cheapestOf([]string{fallback.Name}, comparisons, ceiling); best != nil {
			r.logger.Info("No preferred network under ceiling, falling back",
				"fallback", fallback.Name,
				"ceiling", ceiling,
			)
			return best, nil
		}
	}
	return nil, &NoQualifyingNetworkError{Ceiling: ceiling, Comparisons: comparisons}
}

// cheapestOf walks candidates in order so that equal fees resolve to the
// first-listed network.
func cheapestOf(candidates []string, comparisons []Comparison, ceiling *big.Int) *Comparison {
	byNetwork := make(map[string]Comparison, len(comparisons))
	for _, c := range comparisons {
		byNetwork[c.Network] = c
	}

	var best *Comparison
	for _, name := range candidates {
		c, ok := byNetwork[name]
		if !ok {
			continue
		}
		if ceiling != nil && c.Reading.TotalFee.Cmp(ceiling) > 0 {
			continue
		}
		if best == nil || c.Reading.TotalFee.Cmp(best.Reading.TotalFee) < 0 {
			picked := c
			best = &picked
		}
	}
	return best
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
