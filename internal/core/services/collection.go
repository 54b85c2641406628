package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

func readHabits(ctx context.Context, store domain.KeyValueStore, namespace, key string) ([]*domain.Habit, error) {
	habits, _, err := lookupHabits(ctx, store, namespace, key)
	return habits, err
}

// lookupHabits is readHabits that also reports whether the collection exists.
func lookupHabits(ctx context.Context, store domain.KeyValueStore, namespace, key string) ([]*domain.Habit, bool, error) {
	raw, err := store.Get(ctx, domain.NamespacedKey(namespace, key))
	if errors.Is(err, domain.ErrKeyNotFound) {
		return []*domain.Habit{}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	var habits []*domain.Habit
	if err := json.Unmarshal([]byte(raw), &habits); err != nil {
		return nil, true, fmt.Errorf("corrupted %s: %w", key, err)
	}

	basic := key == domain.BasicHabitsKey
	kept := make([]*domain.Habit, 0, len(habits))
	for _, h := range habits {
		if h == nil {
			continue
		}
		h.Basic = basic
		kept = append(kept, h)
	}
	return kept, true, nil
}

func writeHabits(ctx context.Context, store domain.KeyValueStore, namespace, key string, habits []*domain.Habit) error {
	if habits == nil {
		habits = []*domain.Habit{}
	}
	data, err := json.Marshal(habits)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := store.Set(ctx, domain.NamespacedKey(namespace, key), string(data)); err != nil {
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}
	return nil
}

func cloneHabits(habits []*domain.Habit) []*domain.Habit {
	out := make([]*domain.Habit, len(habits))
	for i, h := range habits {
		c := *h
		out[i] = &c
	}
	return out
}

func habitValues(habits []*domain.Habit) []domain.Habit {
	out := make([]domain.Habit, len(habits))
	for i, h := range habits {
		out[i] = *h
	}
	return out
}
