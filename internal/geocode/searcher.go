package geocode

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultDebounce = 300 * time.Millisecond

// Forward is the lookup a Searcher debounces; *Client satisfies it.
type Forward interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// Searcher debounces type-ahead geocoding. Every call supersedes the
// previous one; a generation counter guarantees a stale in-flight
// response can never be delivered after a newer query, regardless of
// which HTTP request resolves first.
type Searcher struct {
	forward Forward
	delay   time.Duration
	log     *slog.Logger

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

func NewSearcher(forward Forward, log *slog.Logger) *Searcher {
	return &Searcher{
		forward: forward,
		delay:   defaultDebounce,
		log:     log,
	}
}

// WithDelay overrides the debounce interval. Mainly for tests.
func (s *Searcher) WithDelay(delay time.Duration) *Searcher {
	s.delay = delay
	return s
}

// Search schedules a lookup for query after the debounce interval and
// delivers its results to deliver. A newer Search call cancels an
// undelivered older one; results of an older query that resolve late are
// dropped silently instead of overwriting newer ones.
func (s *Searcher) Search(ctx context.Context, query string, deliver func([]Result, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	gen := s.gen

	if s.timer != nil {
		s.timer.Stop()
	}

	s.timer = time.AfterFunc(s.delay, func() {
		if !s.current(gen) {
			return
		}

		results, err := s.forward.Search(ctx, query)

		if !s.current(gen) {
			s.log.DebugContext(ctx, "Dropping superseded geocoding response",
				"query", query,
				"generation", gen)

			return
		}

		deliver(results, err)
	})
}

// Cancel drops any pending lookup and invalidates in-flight responses.
func (s *Searcher) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Searcher) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.gen == gen
}
