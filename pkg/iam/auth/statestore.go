package auth

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/chriswk/auth-app/pkg/errx"
	"github.com/chriswk/auth-app/pkg/logx"
)

// CodeStateCollision signals an Insert against an already-present state.
// It never reaches a user; the initiator regenerates and retries.
var CodeStateCollision = ErrRegistry.Register("STATE_COLLISION", errx.TypeConflict, http.StatusConflict, "State already pending")

// IsStateCollision reports whether err is an Insert collision.
func IsStateCollision(err error) bool {
	coded, ok := errx.As(err)
	return ok && coded.Code == CodeStateCollision.Code
}

// MemoryStateStore is the single-node StateStore: a mutex-guarded map with
// TTL eviction. Entries are evicted lazily on access and by an optional
// periodic sweep, so an abandoned login attempt cannot pin memory.
type MemoryStateStore struct {
	mu      sync.Mutex
	pending map[string]PendingAuthorization
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStateStore creates a store evicting entries older than ttl.
func NewMemoryStateStore(ttl time.Duration) *MemoryStateStore {
	return &MemoryStateStore{
		pending: make(map[string]PendingAuthorization),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Insert stores state → verifier, failing on an existing live entry.
func (s *MemoryStateStore) Insert(_ context.Context, state, verifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.pending[state]; ok && !s.expired(existing) {
		return ErrRegistry.New(CodeStateCollision)
	}
	s.pending[state] = PendingAuthorization{
		State:     state,
		Verifier:  verifier,
		CreatedAt: s.now(),
	}
	return nil
}

// TakeOnce atomically removes and returns the verifier for state. The
// mutex makes consumption linearizable: concurrent callers race for the
// delete and at most one observes the entry.
func (s *MemoryStateStore) TakeOnce(_ context.Context, state string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pending[state]
	if !ok {
		return "", false, nil
	}
	delete(s.pending, state)
	if s.expired(entry) {
		return "", false, nil
	}
	return entry.Verifier, true, nil
}

// StartSweeper evicts expired entries every interval until ctx is done.
func (s *MemoryStateStore) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.sweep(); n > 0 {
					logx.WithField("evicted", n).Debug("Swept abandoned authorizations")
				}
			}
		}
	}()
}

func (s *MemoryStateStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for state, entry := range s.pending {
		if s.expired(entry) {
			delete(s.pending, state)
			evicted++
		}
	}
	return evicted
}

func (s *MemoryStateStore) expired(entry PendingAuthorization) bool {
	return s.now().Sub(entry.CreatedAt) >= s.ttl
}
