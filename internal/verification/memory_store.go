package verification

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and single-process use.
// A single mutex serializes all operations, which satisfies the
// per-identifier serialization the flow requires.
type MemoryStore struct {
	mu sync.Mutex

	// Now is consulted for cooldown and flow-state expiry so tests can
	// drive the clock. Defaults to time.Now.
	Now func() time.Time

	codes     map[string]CodeRecord
	attempts  map[string]int64
	cooldowns map[string]time.Time
	flows     map[string]flowEntry
}

type flowEntry struct {
	state     FlowState
	expiresAt time.Time
}

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Now:       time.Now,
		codes:     make(map[string]CodeRecord),
		attempts:  make(map[string]int64),
		cooldowns: make(map[string]time.Time),
		flows:     make(map[string]flowEntry),
	}
}

func (s *MemoryStore) SaveCode(_ context.Context, identifier string, rec CodeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[identifier] = rec
	s.attempts[identifier] = 0
	return nil
}

func (s *MemoryStore) GetCode(_ context.Context, identifier string) (*CodeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.codes[identifier]
	if !ok {
		return nil, nil
	}
	out := rec
	return &out, nil
}

func (s *MemoryStore) DeleteCode(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, identifier)
	delete(s.attempts, identifier)
	return nil
}

func (s *MemoryStore) IncrAttempts(_ context.Context, identifier string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[identifier]++
	return s.attempts[identifier], nil
}

func (s *MemoryStore) SetCooldown(_ context.Context, identifier string, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cooldowns[identifier] = s.Now().Add(d)
	return nil
}

func (s *MemoryStore) CooldownRemaining(_ context.Context, identifier string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.cooldowns[identifier]
	if !ok {
		return 0, nil
	}
	rem := until.Sub(s.Now())
	if rem <= 0 {
		delete(s.cooldowns, identifier)
		return 0, nil
	}
	return rem, nil
}

func (s *MemoryStore) SaveFlowState(_ context.Context, token string, state FlowState, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[token] = flowEntry{state: state, expiresAt: s.Now().Add(ttl)}
	return nil
}

func (s *MemoryStore) GetFlowState(_ context.Context, token string) (*FlowState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.flows[token]
	if !ok {
		return nil, nil
	}
	if !s.Now().Before(entry.expiresAt) {
		delete(s.flows, token)
		return nil, nil
	}
	out := entry.state
	return &out, nil
}

func (s *MemoryStore) DeleteFlowState(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, token)
	return nil
}
