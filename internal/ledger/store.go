package ledger

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

// IsNotFound reports whether err means the requested run does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, redis.Nil)
}

// Store persists runs and their rounds.
type Store interface {
	// SaveRun creates or replaces a run.
	SaveRun(ctx context.Context, r *Run) error

	// GetRun returns a run, or an error satisfying IsNotFound.
	GetRun(ctx context.Context, runID string) (*Run, error)

	// AppendRound records one completed day.
	AppendRound(ctx context.Context, r *Round) error

	// Rounds returns the rounds with since <= day <= until, in day order.
	// until <= 0 means no upper limit.
	Rounds(ctx context.Context, runID string, since, until int) ([]*Round, error)

	// ListRuns returns every run, most recently started first.
	ListRuns(ctx context.Context) ([]*Run, error)

	Close() error
}

// MemoryStore keeps runs in process memory. It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	runs   map[string]*Run
	rounds map[string][]*Round
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:   make(map[string]*Run),
		rounds: make(map[string][]*Round),
	}
}

func (s *MemoryStore) SaveRun(_ context.Context, r *Run) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *r
	s.runs[r.ID] = &copied
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, runID string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[runID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (s *MemoryStore) AppendRound(_ context.Context, r *Round) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *r
	copied.Signals = slices.Clone(r.Signals)
	copied.Lights = slices.Clone(r.Lights)
	copied.Seats = slices.Clone(r.Seats)

	rounds := s.rounds[r.RunID]
	i, found := slices.BinarySearchFunc(rounds, r.Day, func(x *Round, day int) int { return x.Day - day })
	if found {
		rounds[i] = &copied
	} else {
		rounds = slices.Insert(rounds, i, &copied)
	}
	s.rounds[r.RunID] = rounds
	return nil
}

func (s *MemoryStore) Rounds(_ context.Context, runID string, since, until int) ([]*Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Round
	for _, r := range s.rounds[runID] {
		if r.Day >= since && (until <= 0 || r.Day <= until) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Run, 0, len(s.runs))
	for _, r := range s.runs {
		copied := *r
		out = append(out, &copied)
	}
	sortRuns(out)
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

// sortRuns orders runs newest first, breaking ties by ID.
func sortRuns(runs []*Run) {
	slices.SortFunc(runs, func(a, b *Run) int {
		if a.StartedAtMs != b.StartedAtMs {
			if a.StartedAtMs > b.StartedAtMs {
				return -1
			}
			return 1
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}
