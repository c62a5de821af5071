package store

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/happyrobot-antonio/rechazos/internal/client"
	"github.com/happyrobot-antonio/rechazos/internal/rejection/domain"
)

// Store maintains the client-side authoritative view of all cases. Every
// mutation goes through the API and re-derives truth from the server's
// response rather than trusting optimistic local state.
type Store struct {
	api *client.Client
	log *logrus.Entry

	mu       sync.RWMutex
	cases    map[string]domain.Case
	snapshot []byte
	revision uint64
	lastErr  error
	loading  bool
}

// New creates a case store backed by the given API client
func New(api *client.Client) *Store {
	return &Store{
		api:   api,
		log:   logrus.WithField("component", "store"),
		cases: make(map[string]domain.Case),
	}
}

// Refresh re-fetches all cases. Local state is replaced only when the
// fetched content differs byte for byte from the current snapshot, so
// unchanged polls cost nothing downstream.
func (s *Store) Refresh(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	result, err := s.api.List(ctx, client.ListOptions{})
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		return err
	}

	fetched, err := json.Marshal(result.Cases)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil

	if bytes.Equal(fetched, s.snapshot) {
		return nil
	}

	s.snapshot = fetched
	s.cases = make(map[string]domain.Case, len(result.Cases))
	for _, c := range result.Cases {
		s.cases[c.CodigoSC] = c
	}
	s.revision++
	return nil
}

// Create submits a case under the given duplicate policy and folds the
// authoritative result into the local view
func (s *Store) Create(ctx context.Context, c *domain.Case, mode domain.DuplicateMode) (*domain.Case, error) {
	saved, err := s.api.Create(ctx, c, mode)
	if err != nil {
		return nil, err
	}
	s.upsert(*saved)
	return saved, nil
}

// Update applies a partial field update and folds the result in
func (s *Store) Update(ctx context.Context, codigoSC string, fields map[string]any) (*domain.Case, error) {
	updated, err := s.api.Update(ctx, codigoSC, fields)
	if err != nil {
		return nil, err
	}
	s.upsert(*updated)
	return updated, nil
}

// Delete removes a case server-side and locally
func (s *Store) Delete(ctx context.Context, codigoSC string) error {
	if err := s.api.Delete(ctx, codigoSC); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cases, codigoSC)
	s.snapshot = nil
	s.revision++
	return nil
}

// AppendEvent submits a timeline event, then re-fetches just that case to
// pick up the merged event list
func (s *Store) AppendEvent(ctx context.Context, codigoSC string, in client.CreateEventInput) (*domain.Case, error) {
	if _, err := s.api.CreateEvent(ctx, codigoSC, in); err != nil {
		return nil, err
	}

	refreshed, err := s.api.Get(ctx, codigoSC)
	if err != nil {
		return nil, err
	}
	s.upsert(*refreshed)
	return refreshed, nil
}

// Lookup returns a case from the local view
func (s *Store) Lookup(codigoSC string) (domain.Case, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[codigoSC]
	return c, ok
}

// Keys returns the set of case keys currently in the local view, sorted
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.cases))
	for k := range s.cases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns all cases currently in the local view, sorted by key
func (s *Store) Snapshot() []domain.Case {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Case, 0, len(s.cases))
	for _, c := range s.cases {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CodigoSC < out[j].CodigoSC })
	return out
}

// Len returns the number of cases in the local view
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cases)
}

// Err returns the error from the last foreground refresh, if any
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Loading reports whether a foreground refresh is in flight
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Poll refreshes the store on a fixed interval until ctx is cancelled.
// Background refresh failures are logged and swallowed, they never
// surface as store errors.
func (s *Store) Poll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.backgroundRefresh(ctx); err != nil {
				s.log.WithError(err).Warn("background refresh failed")
			}
		}
	}
}

func (s *Store) backgroundRefresh(ctx context.Context) error {
	result, err := s.api.List(ctx, client.ListOptions{})
	if err != nil {
		return err
	}

	fetched, err := json.Marshal(result.Cases)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if bytes.Equal(fetched, s.snapshot) {
		return nil
	}

	s.snapshot = fetched
	s.cases = make(map[string]domain.Case, len(result.Cases))
	for _, c := range result.Cases {
		s.cases[c.CodigoSC] = c
	}
	s.revision++
	return nil
}

// Revision increments whenever the local view actually changes. Callers
// can poll it to notice updates without diffing case lists themselves.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

func (s *Store) upsert(c domain.Case) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases[c.CodigoSC] = c
	s.snapshot = nil
	s.revision++
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}
