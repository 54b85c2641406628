package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

// Snapshot is the read model handed to presentation code.
type Snapshot struct {
	Habits      []domain.Habit `json:"habits"`
	BasicHabits []domain.Habit `json:"basicHabits"`
}

// EditHabitInput carries a partial update; nil fields are left unchanged.
type EditHabitInput struct {
	Name    *string
	GoalMin *int
	GoalMax *int
}

// HabitRepository owns the habit collections of one namespace and keeps the
// store in sync with them. It holds no lock: callers sharing a repository
// across goroutines must serialize access (see Registry).
type HabitRepository struct {
	store  domain.KeyValueStore
	logger *zap.Logger
	clock  Clock

	namespace string
	log       *ProgressLog
	streaks   *StreakCalculator

	habits []*domain.Habit
	basic  []*domain.Habit
}

func NewHabitRepository(store domain.KeyValueStore, logger *zap.Logger, clock Clock) *HabitRepository {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &HabitRepository{
		store:  store,
		logger: logger,
		clock:  orNow(clock),
		habits: []*domain.Habit{},
		basic:  []*domain.Habit{},
	}
	r.bind("")
	return r
}

func (r *HabitRepository) bind(namespace string) {
	r.namespace = namespace
	r.log = NewProgressLog(r.store, namespace, r.clock)
	r.streaks = NewStreakCalculator(r.log, r.clock)
}

func (r *HabitRepository) Namespace() string {
	return r.namespace
}

// Load replaces the in-memory collections with the persisted ones of
// namespace. Streak and progress are always recomputed from the logs; the
// persisted copies are never trusted.
func (r *HabitRepository) Load(ctx context.Context, namespace string) (Snapshot, error) {
	habits, err := readHabits(ctx, r.store, namespace, domain.UserHabitsKey)
	if err != nil {
		return Snapshot{}, err
	}
	basic, err := readHabits(ctx, r.store, namespace, domain.BasicHabitsKey)
	if err != nil {
		return Snapshot{}, err
	}

	log := NewProgressLog(r.store, namespace, r.clock)
	streaks := NewStreakCalculator(log, r.clock)
	today := domain.DayOf(r.clock())

	for _, group := range [][]*domain.Habit{habits, basic} {
		for _, h := range group {
			entries, err := log.Get(ctx, h.Name)
			if err != nil {
				return Snapshot{}, err
			}
			h.Streak = streaks.Compute(entries)
			h.Progress, _ = domain.ValueOn(entries, today)
		}
	}

	r.bind(namespace)
	r.habits = habits
	r.basic = basic

	r.logger.Debug("habits loaded",
		zap.String("namespace", namespace),
		zap.Int("habits", len(habits)),
		zap.Int("basic_habits", len(basic)),
	)
	return r.Snapshot(), nil
}

func (r *HabitRepository) Snapshot() Snapshot {
	return Snapshot{
		Habits:      habitValues(r.habits),
		BasicHabits: habitValues(r.basic),
	}
}

func (r *HabitRepository) Get(name string) (*domain.Habit, error) {
	h, _, ok := r.find(name)
	if !ok {
		return nil, domain.ErrHabitNotFound
	}
	clone := *h
	return &clone, nil
}

func (r *HabitRepository) find(name string) (*domain.Habit, int, bool) {
	for _, group := range [][]*domain.Habit{r.habits, r.basic} {
		for i, h := range group {
			if h.HasName(name) {
				return h, i, true
			}
		}
	}
	return nil, -1, false
}

func (r *HabitRepository) collection(basic bool) ([]*domain.Habit, string) {
	if basic {
		return r.basic, domain.BasicHabitsKey
	}
	return r.habits, domain.UserHabitsKey
}

// commit persists next as the collection of the given kind and, only once the
// store accepted it, installs it in memory.
func (r *HabitRepository) commit(ctx context.Context, basic bool, next []*domain.Habit) error {
	_, key := r.collection(basic)
	if err := writeHabits(ctx, r.store, r.namespace, key, next); err != nil {
		r.logger.Error("failed to persist habits", zap.String("namespace", r.namespace), zap.Error(err))
		return err
	}
	if basic {
		r.basic = next
	} else {
		r.habits = next
	}
	return nil
}

func (r *HabitRepository) Add(ctx context.Context, name string, goalMin, goalMax int) (*domain.Habit, error) {
	if _, _, taken := r.find(name); taken {
		return nil, &domain.ValidationError{Field: "name", Err: domain.ErrHabitNameTaken}
	}

	habit, err := domain.NewHabit(name, goalMin, goalMax)
	if err != nil {
		return nil, err
	}

	// A new habit never inherits a log orphaned by an earlier failure.
	if err := r.log.Delete(ctx, habit.Name); err != nil {
		return nil, err
	}

	next := append(cloneHabits(r.habits), habit)
	if err := r.commit(ctx, false, next); err != nil {
		return nil, err
	}

	r.logger.Info("habit added", zap.String("namespace", r.namespace), zap.String("habit", habit.Name))
	clone := *habit
	return &clone, nil
}

// Edit applies a partial update to the habit named originalName. Goal bounds
// are validated on the values as they will be after the edit. Renaming moves
// the habit's progress log along with it.
func (r *HabitRepository) Edit(ctx context.Context, originalName string, input EditHabitInput) (*domain.Habit, error) {
	current, index, ok := r.find(originalName)
	if !ok {
		return nil, domain.ErrHabitNotFound
	}

	updated := *current

	if input.Name != nil {
		if err := updated.Rename(*input.Name); err != nil {
			return nil, err
		}
		if other, _, taken := r.find(updated.Name); taken && other != current {
			return nil, &domain.ValidationError{Field: "name", Err: domain.ErrHabitNameTaken}
		}
	}

	goalMin, goalMax := updated.Goal.Min, updated.Goal.Max
	if input.GoalMin != nil {
		goalMin = *input.GoalMin
	}
	if input.GoalMax != nil {
		goalMax = *input.GoalMax
	}
	if err := updated.SetGoal(goalMin, goalMax); err != nil {
		return nil, err
	}

	moved, err := r.log.Copy(ctx, current.Name, updated.Name)
	if err != nil {
		return nil, err
	}

	group, _ := r.collection(current.Basic)
	next := cloneHabits(group)
	next[index] = &updated

	if err := r.commit(ctx, current.Basic, next); err != nil {
		if moved {
			if rbErr := r.log.Delete(ctx, updated.Name); rbErr != nil {
				r.logger.Error("failed to roll back copied progress log",
					zap.String("habit", updated.Name), zap.Error(rbErr))
			}
		}
		return nil, err
	}

	if moved {
		if err := r.log.Delete(ctx, current.Name); err != nil {
			r.logger.Warn("stale progress log left after rename",
				zap.String("from", current.Name), zap.String("to", updated.Name), zap.Error(err))
		}
	}

	clone := updated
	return &clone, nil
}

// Remove deletes a user habit and its progress log. Unknown names are a no-op;
// basic habits are refused.
func (r *HabitRepository) Remove(ctx context.Context, name string) error {
	current, index, ok := r.find(name)
	if !ok {
		return nil
	}
	if current.Basic {
		return domain.ErrHabitNotDeletable
	}

	next := make([]*domain.Habit, 0, len(r.habits)-1)
	next = append(next, cloneHabits(r.habits[:index])...)
	next = append(next, cloneHabits(r.habits[index+1:])...)

	if err := r.commit(ctx, false, next); err != nil {
		return err
	}

	if err := r.log.Delete(ctx, current.Name); err != nil {
		r.logger.Warn("stale progress log left after removal",
			zap.String("habit", current.Name), zap.Error(err))
	}

	r.logger.Info("habit removed", zap.String("namespace", r.namespace), zap.String("habit", current.Name))
	return nil
}

// RecordProgress stores value as today's entry of the habit and refreshes its
// cached progress and streak. Any integer is accepted.
func (r *HabitRepository) RecordProgress(ctx context.Context, name string, value int) (*domain.Habit, error) {
	current, index, ok := r.find(name)
	if !ok {
		return nil, domain.ErrHabitNotFound
	}

	previous, err := r.log.Get(ctx, current.Name)
	if err != nil {
		return nil, err
	}
	if err := r.log.RecordToday(ctx, current.Name, value); err != nil {
		return nil, err
	}

	streak, err := r.streaks.Current(ctx, current.Name)
	if err != nil {
		r.restoreLog(ctx, current.Name, previous)
		return nil, err
	}

	updated := *current
	updated.Progress = value
	updated.Streak = streak

	group, _ := r.collection(current.Basic)
	next := cloneHabits(group)
	next[index] = &updated

	if err := r.commit(ctx, current.Basic, next); err != nil {
		r.restoreLog(ctx, current.Name, previous)
		return nil, err
	}

	clone := updated
	return &clone, nil
}

func (r *HabitRepository) restoreLog(ctx context.Context, name string, entries []domain.ProgressEntry) {
	if err := r.log.Restore(ctx, name, entries); err != nil {
		r.logger.Error("failed to roll back recorded progress",
			zap.String("habit", name), zap.Error(err))
	}
}

// History returns the habit's progress entries, oldest first.
func (r *HabitRepository) History(ctx context.Context, name string) ([]domain.ProgressEntry, error) {
	current, _, ok := r.find(name)
	if !ok {
		return nil, domain.ErrHabitNotFound
	}

	entries, err := r.log.Get(ctx, current.Name)
	if err != nil {
		return nil, err
	}
	return domain.SortEntries(entries), nil
}
