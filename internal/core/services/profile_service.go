package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

type ProfileService struct {
	store domain.KeyValueStore
}

func NewProfileService(store domain.KeyValueStore) *ProfileService {
	return &ProfileService{
		store: store,
	}
}

type ProfileInput struct {
	Namespace string
	Name      string
	Email     string
}

// Register performs first-run setup of a namespace: an empty user collection,
// the seeded basic habits and the user details, written last so that a
// partially initialized namespace is never reported as registered.
// Collections created before registration are kept; seeded basic habits whose
// name is already used by one of them are left out.
func (s *ProfileService) Register(ctx context.Context, input ProfileInput) (*domain.User, error) {
	user, err := domain.NewUser(input.Name, input.Email)
	if err != nil {
		return nil, err
	}

	_, err = s.Get(ctx, input.Namespace)
	if err == nil {
		return nil, domain.ErrProfileExists
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	habits, found, err := lookupHabits(ctx, s.store, input.Namespace, domain.UserHabitsKey)
	if err != nil {
		return nil, fmt.Errorf("profile service: %w", err)
	}
	if !found {
		if err := writeHabits(ctx, s.store, input.Namespace, domain.UserHabitsKey, nil); err != nil {
			return nil, fmt.Errorf("profile service: %w", err)
		}
	}

	_, found, err = lookupHabits(ctx, s.store, input.Namespace, domain.BasicHabitsKey)
	if err != nil {
		return nil, fmt.Errorf("profile service: %w", err)
	}
	if !found {
		basic := withoutNames(domain.BasicHabits(), habits)
		if err := writeHabits(ctx, s.store, input.Namespace, domain.BasicHabitsKey, basic); err != nil {
			return nil, fmt.Errorf("profile service: %w", err)
		}
	}
	if err := s.save(ctx, input.Namespace, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *ProfileService) Get(ctx context.Context, namespace string) (*domain.User, error) {
	raw, err := s.store.Get(ctx, domain.NamespacedKey(namespace, domain.UserDetailsKey))
	if errors.Is(err, domain.ErrKeyNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile service: failed to read user: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("profile service: corrupted user details: %w", err)
	}
	return &user, nil
}

func (s *ProfileService) Update(ctx context.Context, input ProfileInput) (*domain.User, error) {
	if _, err := s.Get(ctx, input.Namespace); err != nil {
		return nil, err
	}

	user, err := domain.NewUser(input.Name, input.Email)
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, input.Namespace, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Reset removes every key of the namespace: progress logs first, then the
// collections, then the user details.
func (s *ProfileService) Reset(ctx context.Context, namespace string) error {
	log := NewProgressLog(s.store, namespace, nil)

	for _, key := range []string{domain.UserHabitsKey, domain.BasicHabitsKey} {
		habits, err := readHabits(ctx, s.store, namespace, key)
		if err != nil {
			return fmt.Errorf("profile service: %w", err)
		}
		for _, h := range habits {
			if err := log.Delete(ctx, h.Name); err != nil {
				return fmt.Errorf("profile service: %w", err)
			}
		}
	}

	for _, key := range []string{domain.UserHabitsKey, domain.BasicHabitsKey, domain.UserDetailsKey} {
		if err := s.store.Remove(ctx, domain.NamespacedKey(namespace, key)); err != nil {
			return fmt.Errorf("profile service: failed to remove %s: %w", key, err)
		}
	}
	return nil
}

func withoutNames(seed, taken []*domain.Habit) []*domain.Habit {
	kept := make([]*domain.Habit, 0, len(seed))
	for _, h := range seed {
		clash := false
		for _, t := range taken {
			if t.HasName(h.Name) {
				clash = true
				break
			}
		}
		if !clash {
			kept = append(kept, h)
		}
	}
	return kept
}

func (s *ProfileService) save(ctx context.Context, namespace string, user *domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("profile service: failed to encode user: %w", err)
	}
	if err := s.store.Set(ctx, domain.NamespacedKey(namespace, domain.UserDetailsKey), string(data)); err != nil {
		return fmt.Errorf("profile service: failed to persist user: %w", err)
	}
	return nil
}
