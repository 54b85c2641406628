package services

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

type slot struct {
	mu     sync.Mutex
	repo   *HabitRepository
	loaded bool
}

// Registry hands out one HabitRepository per namespace and serializes every
// access to it, for hosts that call into the core from several goroutines.
type Registry struct {
	store  domain.KeyValueStore
	logger *zap.Logger
	clock  Clock

	mu    sync.Mutex
	slots map[string]*slot
}

func NewRegistry(store domain.KeyValueStore, logger *zap.Logger, clock Clock) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		store:  store,
		logger: logger,
		clock:  clock,
		slots:  make(map[string]*slot),
	}
}

func (g *Registry) slot(namespace string) *slot {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.slots[namespace]
	if !ok {
		s = &slot{repo: NewHabitRepository(g.store, g.logger, g.clock)}
		g.slots[namespace] = s
	}
	return s
}

// With runs fn with exclusive access to the namespace's repository, loading it
// first if needed.
func (g *Registry) With(ctx context.Context, namespace string, fn func(*HabitRepository) error) error {
	s := g.slot(namespace)
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		if _, err := s.repo.Load(ctx, namespace); err != nil {
			return err
		}
		s.loaded = true
	}
	return fn(s.repo)
}

// Reload refreshes the namespace from the store, recomputing derived fields.
func (g *Registry) Reload(ctx context.Context, namespace string) error {
	s := g.slot(namespace)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.repo.Load(ctx, namespace); err != nil {
		s.loaded = false
		return err
	}
	s.loaded = true
	return nil
}

// Exclusive runs fn while holding the namespace's lock, for writers that go to
// the store directly. The repository is reloaded on its next access, whether or
// not fn succeeded.
func (g *Registry) Exclusive(namespace string, fn func() error) error {
	s := g.slot(namespace)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = false
	return fn()
}

func (g *Registry) Namespaces() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	names := make([]string, 0, len(g.slots))
	for ns := range g.slots {
		names = append(names, ns)
	}
	sort.Strings(names)
	return names
}
