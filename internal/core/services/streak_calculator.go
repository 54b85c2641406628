package services

import (
	"context"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

type EntryReader interface {
	Get(ctx context.Context, habitName string) ([]domain.ProgressEntry, error)
}

// StreakCalculator derives a habit's current streak from its progress log.
// It has no side effects.
type StreakCalculator struct {
	entries EntryReader
	now     Clock
}

func NewStreakCalculator(entries EntryReader, clock Clock) *StreakCalculator {
	return &StreakCalculator{
		entries: entries,
		now:     orNow(clock),
	}
}

func (c *StreakCalculator) Current(ctx context.Context, habitName string) (int, error) {
	entries, err := c.entries.Get(ctx, habitName)
	if err != nil {
		return 0, err
	}
	return c.Compute(entries), nil
}

func (c *StreakCalculator) Compute(entries []domain.ProgressEntry) int {
	return domain.CurrentStreak(entries, c.now())
}
