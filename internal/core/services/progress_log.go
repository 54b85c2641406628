package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

// Clock returns the current instant. The local calendar day is derived from it.
type Clock func() time.Time

func orNow(clock Clock) Clock {
	if clock == nil {
		return time.Now
	}
	return clock
}

// ProgressLog is the day-keyed log of recorded values of every habit in one
// namespace. Each habit's log is stored as a single value.
type ProgressLog struct {
	store     domain.KeyValueStore
	namespace string
	now       Clock
}

func NewProgressLog(store domain.KeyValueStore, namespace string, clock Clock) *ProgressLog {
	return &ProgressLog{
		store:     store,
		namespace: namespace,
		now:       orNow(clock),
	}
}

func (l *ProgressLog) key(habitName string) string {
	return domain.ProgressLogKey(l.namespace, habitName)
}

// Get returns the habit's entries in storage order. A missing log is empty.
func (l *ProgressLog) Get(ctx context.Context, habitName string) ([]domain.ProgressEntry, error) {
	raw, err := l.store.Get(ctx, l.key(habitName))
	if errors.Is(err, domain.ErrKeyNotFound) {
		return []domain.ProgressEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("progress log: failed to read %q: %w", habitName, err)
	}

	var entries []domain.ProgressEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("progress log: corrupted log for %q: %w", habitName, err)
	}
	if entries == nil {
		entries = []domain.ProgressEntry{}
	}
	return entries, nil
}

// RecordToday stores value for the current local day, overwriting an earlier
// recording of the same day.
func (l *ProgressLog) RecordToday(ctx context.Context, habitName string, value int) error {
	entries, err := l.Get(ctx, habitName)
	if err != nil {
		return err
	}

	today := domain.DayOf(l.now())

	found := false
	for i := range entries {
		if entries[i].Date == today {
			entries[i].Value = value
			found = true
		}
	}
	if !found {
		entries = append(entries, domain.ProgressEntry{Date: today, Value: value})
	}

	return l.save(ctx, l.key(habitName), entries)
}

// Restore writes entries back as the habit's whole log. An empty log is
// removed.
func (l *ProgressLog) Restore(ctx context.Context, habitName string, entries []domain.ProgressEntry) error {
	if len(entries) == 0 {
		return l.Delete(ctx, habitName)
	}
	return l.save(ctx, l.key(habitName), entries)
}

func (l *ProgressLog) Delete(ctx context.Context, habitName string) error {
	if err := l.store.Remove(ctx, l.key(habitName)); err != nil {
		return fmt.Errorf("progress log: failed to delete %q: %w", habitName, err)
	}
	return nil
}

// Copy duplicates the log of from under to. It reports whether anything was
// written: names sharing a key and missing logs are no-ops.
func (l *ProgressLog) Copy(ctx context.Context, from, to string) (bool, error) {
	src, dst := l.key(from), l.key(to)
	if src == dst {
		return false, nil
	}

	raw, err := l.store.Get(ctx, src)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("progress log: failed to read %q: %w", from, err)
	}

	if err := l.store.Set(ctx, dst, raw); err != nil {
		return false, fmt.Errorf("progress log: failed to write %q: %w", to, err)
	}
	return true, nil
}

func (l *ProgressLog) save(ctx context.Context, key string, entries []domain.ProgressEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("progress log: failed to encode: %w", err)
	}
	if err := l.store.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("progress log: failed to persist: %w", err)
	}
	return nil
}
