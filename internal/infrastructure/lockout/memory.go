package lockout

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/amirhosseinghanipour/authgate/internal/application/ports"
)

// DefaultThreshold is the number of consecutive failures after which an identifier is locked.
const DefaultThreshold = 5

var lockoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "authgate_lockouts_total",
	Help: "Identifiers that reached the failed-login threshold",
})

// MemoryStore is an in-memory LockoutTracker. Counters are process-local and
// keyed by the identifier exactly as submitted.
type MemoryStore struct {
	mu        sync.Mutex
	failures  map[string]uint
	gates     map[string]*gate
	threshold uint
}

// gate admits one attempt per identifier at a time. refs counts holders and
// waiters so idle gates can be dropped.
type gate struct {
	slot chan struct{}
	refs int
}

// NewMemoryStore returns a tracker that locks at threshold failures. threshold 0 = DefaultThreshold.
func NewMemoryStore(threshold uint) *MemoryStore {
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	return &MemoryStore{
		failures:  make(map[string]uint),
		gates:     make(map[string]*gate),
		threshold: threshold,
	}
}

func (s *MemoryStore) Threshold() uint {
	return s.threshold
}

func (s *MemoryStore) Acquire(ctx context.Context, identifier string) (func(), error) {
	s.mu.Lock()
	g := s.gates[identifier]
	if g == nil {
		g = &gate{slot: make(chan struct{}, 1)}
		s.gates[identifier] = g
	}
	g.refs++
	s.mu.Unlock()

	select {
	case g.slot <- struct{}{}:
	case <-ctx.Done():
		s.dropGate(identifier, g)
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			<-g.slot
			s.dropGate(identifier, g)
		})
	}, nil
}

func (s *MemoryStore) dropGate(identifier string, g *gate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.refs--
	if g.refs == 0 {
		delete(s.gates, identifier)
	}
}

func (s *MemoryStore) IsLocked(ctx context.Context, identifier string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[identifier] >= s.threshold
}

func (s *MemoryStore) RecordFailure(ctx context.Context, identifier string) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.failures[identifier] + 1
	s.failures[identifier] = n
	if n == s.threshold {
		lockoutsTotal.Inc()
	}
	return n
}

func (s *MemoryStore) RecordSuccess(ctx context.Context, identifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// A zero count and a missing entry are equivalent.
	delete(s.failures, identifier)
}

func (s *MemoryStore) ResetAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]uint)
}

func (s *MemoryStore) Failures(ctx context.Context, identifier string) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[identifier]
}

var _ ports.LockoutTracker = (*MemoryStore)(nil)
