package services_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

type fixture struct {
	store *MockStore
	clock *testClock
	repo  *services.HabitRepository
}

func newFixture(t *testing.T, namespace string) *fixture {
	t.Helper()

	store := NewMockStore()
	clock := newTestClock()

	profiles := services.NewProfileService(store)
	_, err := profiles.Register(context.Background(), services.ProfileInput{
		Namespace: namespace,
		Name:      "Ada",
		Email:     "ada@example.com",
	})
	require.NoError(t, err)

	repo := services.NewHabitRepository(store, nil, clock.Now)
	_, err = repo.Load(context.Background(), namespace)
	require.NoError(t, err)

	return &fixture{store: store, clock: clock, repo: repo}
}

func (f *fixture) reload(t *testing.T) services.Snapshot {
	t.Helper()
	fresh := services.NewHabitRepository(f.store, nil, f.clock.Now)
	snap, err := fresh.Load(context.Background(), f.repo.Namespace())
	require.NoError(t, err)
	return snap
}

func findHabit(habits []domain.Habit, name string) *domain.Habit {
	for _, h := range habits {
		if h.HasName(name) {
			return &h
		}
	}
	return nil
}

func TestHabitRepository_Add(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: Appends with zero progress and streak and persists", func(t *testing.T) {
		f := newFixture(t, "")

		h, err := f.repo.Add(ctx, "Reading", 1, 3)

		require.NoError(t, err)
		assert.Equal(t, "Reading", h.Name)
		assert.Equal(t, 0, h.Progress)
		assert.Equal(t, 0, h.Streak)

		snap := f.reload(t)
		require.Len(t, snap.Habits, 1)
		assert.Equal(t, *h, snap.Habits[0])
	})

	t.Run("Error: Duplicate name in any case", func(t *testing.T) {
		f := newFixture(t, "")
		_, err := f.repo.Add(ctx, "Reading", 1, 3)
		require.NoError(t, err)

		for _, name := range []string{"Reading", "reading", "READING", "  rEaDiNg "} {
			_, err := f.repo.Add(ctx, name, 2, 4)
			assert.ErrorIs(t, err, domain.ErrHabitNameTaken, name)
			assert.ErrorIs(t, err, domain.ErrValidation, name)
		}
		assert.Len(t, f.repo.Snapshot().Habits, 1)
	})

	t.Run("Error: Name of a basic habit is taken", func(t *testing.T) {
		f := newFixture(t, "")

		_, err := f.repo.Add(ctx, "sleep", 1, 3)

		assert.ErrorIs(t, err, domain.ErrHabitNameTaken)
	})

	t.Run("Error: Invalid goals", func(t *testing.T) {
		f := newFixture(t, "")

		for _, g := range [][2]int{{3, 3}, {5, 2}, {0, 4}, {4, 25}} {
			_, err := f.repo.Add(ctx, "Reading", g[0], g[1])
			assert.ErrorIs(t, err, domain.ErrInvalidGoal, "goal %v", g)
		}
		assert.Empty(t, f.repo.Snapshot().Habits)
	})

	t.Run("Error: Empty name", func(t *testing.T) {
		f := newFixture(t, "")

		_, err := f.repo.Add(ctx, "   ", 1, 3)

		assert.ErrorIs(t, err, domain.ErrHabitNameEmpty)
	})

	t.Run("Fail: Store failure leaves memory unchanged", func(t *testing.T) {
		f := newFixture(t, "")
		f.store.failSet = keyIs(domain.UserHabitsKey)

		_, err := f.repo.Add(ctx, "Reading", 1, 3)

		assert.ErrorIs(t, err, errStoreDown)
		assert.Empty(t, f.repo.Snapshot().Habits)
	})

	t.Run("Success: Does not inherit an orphaned log", func(t *testing.T) {
		f := newFixture(t, "")
		orphan := services.NewProgressLog(f.store, "", f.clock.Now)
		require.NoError(t, orphan.RecordToday(ctx, "Reading", 3))

		_, err := f.repo.Add(ctx, "Reading", 1, 3)
		require.NoError(t, err)

		snap := f.reload(t)
		assert.Equal(t, 0, snap.Habits[0].Streak)
	})
}

func TestHabitRepository_Edit(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: Partial update leaves absent fields unchanged", func(t *testing.T) {
		f := newFixture(t, "")
		_, err := f.repo.Add(ctx, "Reading", 1, 3)
		require.NoError(t, err)

		h, err := f.repo.Edit(ctx, "reading", services.EditHabitInput{GoalMax: ptr(5)})

		require.NoError(t, err)
		assert.Equal(t, "Reading", h.Name)
		assert.Equal(t, domain.Goal{Min: 1, Max: 5}, h.Goal)

		snap := f.reload(t)
		assert.Equal(t, domain.Goal{Min: 1, Max: 5}, snap.Habits[0].Goal)
	})

	t.Run("Success: Rename and regoal reflected after load", func(t *testing.T) {
		f := newFixture(t, "")
		_, err := f.repo.Add(ctx, "Reading", 1, 3)
		require.NoError(t, err)

		_, err = f.repo.Edit(ctx, "Reading", services.EditHabitInput{
			Name:    ptr("Novels"),
			GoalMin: ptr(2),
			GoalMax: ptr(6),
		})
		require.NoError(t, err)

		snap := f.reload(t)
		require.Len(t, snap.Habits, 1)
		assert.Equal(t, "Novels", snap.Habits[0].Name)
		assert.Equal(t, domain.Goal{Min: 2, Max: 6}, snap.Habits[0].Goal)
	})

	t.Run("Success: Rename carries the progress log", func(t *testing.T) {
		f := newFixture(t, "")
		_, _ = f.repo.Add(ctx, "Reading", 1, 3)
		_, err := f.repo.RecordProgress(ctx, "Reading", 2)
		require.NoError(t, err)

		_, err = f.repo.Edit(ctx, "Reading", services.EditHabitInput{Name: ptr("Novels")})
		require.NoError(t, err)

		history, err := f.repo.History(ctx, "Novels")
		require.NoError(t, err)
		assert.Len(t, history, 1)

		snap := f.reload(t)
		assert.Equal(t, 1, snap.Habits[0].Streak)
		assert.Equal(t, 2, snap.Habits[0].Progress)

		log := services.NewProgressLog(f.store, "", f.clock.Now)
		old, _ := log.Get(ctx, "Reading")
		assert.Empty(t, old, "old log must be gone")
	})

	t.Run("Success: Goal validated against post-edit values", func(t *testing.T) {
		f := newFixture(t, "")
		_, _ = f.repo.Add(ctx, "Reading", 1, 3)

		_, err := f.repo.Edit(ctx, "Reading", services.EditHabitInput{GoalMin: ptr(5), GoalMax: ptr(8)})
		assert.NoError(t, err, "min above the old max is fine when max moves too")

		_, err = f.repo.Edit(ctx, "Reading", services.EditHabitInput{GoalMin: ptr(9)})
		assert.ErrorIs(t, err, domain.ErrInvalidGoal)

		h, _ := f.repo.Get("Reading")
		assert.Equal(t, domain.Goal{Min: 5, Max: 8}, h.Goal)
	})

	t.Run("Error: Basic habit cannot be renamed but can be regoaled", func(t *testing.T) {
		f := newFixture(t, "")

		_, err := f.repo.Edit(ctx, "Sleep", services.EditHabitInput{Name: ptr("Nap")})
		assert.ErrorIs(t, err, domain.ErrImmutableField)

		h, err := f.repo.Edit(ctx, "Sleep", services.EditHabitInput{Name: ptr("Sleep"), GoalMin: ptr(6)})
		require.NoError(t, err)
		assert.Equal(t, domain.Goal{Min: 6, Max: 9}, h.Goal)
		assert.True(t, h.Basic)

		snap := f.reload(t)
		assert.Equal(t, domain.Goal{Min: 6, Max: 9}, findHabit(snap.BasicHabits, "Sleep").Goal)
	})

	t.Run("Error: Rename onto an existing name", func(t *testing.T) {
		f := newFixture(t, "")
		_, _ = f.repo.Add(ctx, "Reading", 1, 3)
		_, _ = f.repo.Add(ctx, "Running", 1, 2)

		_, err := f.repo.Edit(ctx, "Running", services.EditHabitInput{Name: ptr("reading")})
		assert.ErrorIs(t, err, domain.ErrHabitNameTaken)

		h, err := f.repo.Edit(ctx, "Reading", services.EditHabitInput{Name: ptr("READING")})
		require.NoError(t, err, "case-only rename of itself")
		assert.Equal(t, "READING", h.Name)
	})

	t.Run("Error: Unknown habit", func(t *testing.T) {
		f := newFixture(t, "")

		_, err := f.repo.Edit(ctx, "Ghost", services.EditHabitInput{GoalMax: ptr(5)})
		assert.ErrorIs(t, err, domain.ErrHabitNotFound)
	})

	t.Run("Fail: No partial write when persisting fails", func(t *testing.T) {
		f := newFixture(t, "")
		_, _ = f.repo.Add(ctx, "Reading", 1, 3)
		_, _ = f.repo.RecordProgress(ctx, "Reading", 2)
		before := f.store.Keys()

		f.store.failSet = keyIs(domain.UserHabitsKey)
		_, err := f.repo.Edit(ctx, "Reading", services.EditHabitInput{Name: ptr("Novels"), GoalMax: ptr(4)})

		assert.ErrorIs(t, err, errStoreDown)
		assert.Equal(t, before, f.store.Keys(), "copied log must be rolled back")

		h, err := f.repo.Get("Reading")
		require.NoError(t, err)
		assert.Equal(t, domain.Goal{Min: 1, Max: 3}, h.Goal)
	})
}

func TestHabitRepository_Remove(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: Removes habit and its log", func(t *testing.T) {
		f := newFixture(t, "")
		_, _ = f.repo.Add(ctx, "Reading", 1, 3)
		_, _ = f.repo.RecordProgress(ctx, "Reading", 2)

		require.NoError(t, f.repo.Remove(ctx, "READING"))

		assert.Empty(t, f.repo.Snapshot().Habits)
		assert.Empty(t, f.store.ProgressKeys())

		log := services.NewProgressLog(f.store, "", f.clock.Now)
		entries, err := log.Get(ctx, "Reading")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("Success: Unknown name is a no-op", func(t *testing.T) {
		f := newFixture(t, "")
		before := f.store.Keys()

		assert.NoError(t, f.repo.Remove(ctx, "Ghost"))
		assert.Equal(t, before, f.store.Keys())
	})

	t.Run("Error: Basic habit is not deletable", func(t *testing.T) {
		f := newFixture(t, "")
		_, _ = f.repo.RecordProgress(ctx, "Sleep", 8)
		before := f.repo.Snapshot()

		err := f.repo.Remove(ctx, "Sleep")

		assert.ErrorIs(t, err, domain.ErrHabitNotDeletable)
		if diff := cmp.Diff(before, f.repo.Snapshot()); diff != "" {
			t.Errorf("snapshot changed (-before +after):\n%s", diff)
		}
		assert.Len(t, f.store.ProgressKeys(), 1, "log of a basic habit survives")
	})

	t.Run("Fail: Store failure keeps the habit", func(t *testing.T) {
		f := newFixture(t, "")
		_, _ = f.repo.Add(ctx, "Reading", 1, 3)
		f.store.failSet = keyIs(domain.UserHabitsKey)

		err := f.repo.Remove(ctx, "Reading")

		assert.ErrorIs(t, err, errStoreDown)
		assert.Len(t, f.repo.Snapshot().Habits, 1)
	})
}

func TestHabitRepository_RecordProgress(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: Updates progress and streak", func(t *testing.T) {
		f := newFixture(t, "")
		_, _ = f.repo.Add(ctx, "Reading", 1, 3)

		for day := 0; day < 3; day++ {
			if day > 0 {
				f.clock.Advance(1)
			}
			h, err := f.repo.RecordProgress(ctx, "Reading", day+1)
			require.NoError(t, err)
			assert.Equal(t, day+1, h.Progress)
			assert.Equal(t, day+1, h.Streak)
		}

		h, _ := f.repo.RecordProgress(ctx, "Reading", 10)
		assert.Equal(t, 10, h.Progress, "no upper bound at this layer")
		assert.Equal(t, 3, h.Streak, "same-day overwrite does not extend the streak")
	})

	t.Run("Success: Works on basic habits", func(t *testing.T) {
		f := newFixture(t, "ada")

		h, err := f.repo.RecordProgress(ctx, "water intake", 4)

		require.NoError(t, err)
		assert.Equal(t, "Water Intake", h.Name)
		assert.Equal(t, domain.Achieved, h.Status())

		snap := f.reload(t)
		assert.Equal(t, 4, findHabit(snap.BasicHabits, "Water Intake").Progress)
	})

	t.Run("Fail: Store failure leaves log and habit unchanged", func(t *testing.T) {
		f := newFixture(t, "")
		_, _ = f.repo.Add(ctx, "Reading", 1, 3)
		f.store.failSet = keyIs(domain.UserHabitsKey)

		_, err := f.repo.RecordProgress(ctx, "Reading", 2)

		assert.ErrorIs(t, err, errStoreDown)
		assert.Empty(t, f.store.ProgressKeys())

		h, err := f.repo.Get("Reading")
		require.NoError(t, err)
		assert.Equal(t, 0, h.Progress)

		f.store.failSet = nil
		reloaded := findHabit(f.reload(t).Habits, "Reading")
		require.NotNil(t, reloaded)
		assert.Equal(t, 0, reloaded.Progress)
		assert.Equal(t, 0, reloaded.Streak)
	})

	t.Run("Fail: Store failure restores earlier entries", func(t *testing.T) {
		f := newFixture(t, "")
		_, _ = f.repo.Add(ctx, "Reading", 1, 3)
		_, err := f.repo.RecordProgress(ctx, "Reading", 1)
		require.NoError(t, err)
		before := f.store.data[domain.ProgressLogKey("", "Reading")]

		f.store.failSet = keyIs(domain.UserHabitsKey)
		_, err = f.repo.RecordProgress(ctx, "Reading", 3)

		assert.ErrorIs(t, err, errStoreDown)
		history, err := f.repo.History(ctx, "Reading")
		require.NoError(t, err)
		assert.Equal(t, []domain.ProgressEntry{{Date: "2025-05-07", Value: 1}}, history)
		assert.JSONEq(t, before, f.store.data[domain.ProgressLogKey("", "Reading")])
	})

	t.Run("Error: Unknown habit", func(t *testing.T) {
		f := newFixture(t, "")

		_, err := f.repo.RecordProgress(ctx, "Ghost", 1)

		assert.ErrorIs(t, err, domain.ErrHabitNotFound)
		assert.Empty(t, f.store.ProgressKeys())
	})
}

func TestHabitRepository_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: Stale persisted caches are recomputed", func(t *testing.T) {
		store := NewMockStore()
		clock := newTestClock()
		store.data[domain.UserHabitsKey] = `[{"name":"Reading","goal":[1,3],"progress":9,"streak":42}]`
		store.data[domain.BasicHabitsKey] = `[{"name":"Sleep","goal":[7,9],"progress":0,"streak":0}]`

		log := services.NewProgressLog(store, "", clock.Now)
		recordOn(t, log, clock, "Reading", 0, 1)
		recordOn(t, log, clock, "Sleep", 1, 2)

		repo := services.NewHabitRepository(store, nil, clock.Now)
		snap, err := repo.Load(ctx, "")
		require.NoError(t, err)

		reading := findHabit(snap.Habits, "Reading")
		assert.Equal(t, 2, reading.Streak)
		assert.Equal(t, 1, reading.Progress)
		assert.False(t, reading.Basic)

		sleep := findHabit(snap.BasicHabits, "Sleep")
		assert.Equal(t, 0, sleep.Streak, "yesterday's chain is not current")
		assert.Equal(t, 0, sleep.Progress, "nothing recorded today")
		assert.True(t, sleep.Basic, "basic flag restored from the collection key")
	})

	t.Run("Success: Empty namespace yields empty read model", func(t *testing.T) {
		repo := services.NewHabitRepository(NewMockStore(), nil, nil)

		snap, err := repo.Load(ctx, "nobody")

		require.NoError(t, err)
		assert.Empty(t, snap.Habits)
		assert.Empty(t, snap.BasicHabits)
	})

	t.Run("Success: Namespaces are isolated", func(t *testing.T) {
		store := NewMockStore()
		clock := newTestClock()
		ada := services.NewHabitRepository(store, nil, clock.Now)
		bob := services.NewHabitRepository(store, nil, clock.Now)
		_, _ = ada.Load(ctx, "ada")
		_, _ = bob.Load(ctx, "bob")

		_, err := ada.Add(ctx, "Reading", 1, 3)
		require.NoError(t, err)
		_, err = bob.Add(ctx, "Reading", 2, 4)
		require.NoError(t, err)
		_, _ = ada.RecordProgress(ctx, "Reading", 2)

		snap, err := bob.Load(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, 0, snap.Habits[0].Streak)
		assert.Equal(t, domain.Goal{Min: 2, Max: 4}, snap.Habits[0].Goal)
	})

	t.Run("Fail: Store error propagates and keeps previous state", func(t *testing.T) {
		f := newFixture(t, "")
		_, _ = f.repo.Add(ctx, "Reading", 1, 3)
		f.store.data[domain.NamespacedKey("broken", domain.UserHabitsKey)] = "not json"

		_, err := f.repo.Load(ctx, "broken")

		assert.Error(t, err)
		assert.Equal(t, "", f.repo.Namespace())
		assert.Len(t, f.repo.Snapshot().Habits, 1)
	})
}

func TestHabitRepository_EndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")

	_, err := f.repo.Add(ctx, "Reading", 1, 3)
	require.NoError(t, err)

	h, err := f.repo.RecordProgress(ctx, "Reading", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, h.Progress)
	assert.Equal(t, 1, h.Streak)
	assert.Equal(t, domain.Achieved, domain.Classify(h.Progress, h.Goal))

	require.NoError(t, f.repo.Remove(ctx, "Reading"))

	snap := f.reload(t)
	assert.Nil(t, findHabit(snap.Habits, "Reading"))
	assert.Len(t, snap.BasicHabits, 3)

	log := services.NewProgressLog(f.store, "", f.clock.Now)
	entries, err := log.Get(ctx, "Reading")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHabitRepository_SnapshotIsACopy(t *testing.T) {
	f := newFixture(t, "")
	_, _ = f.repo.Add(context.Background(), "Reading", 1, 3)

	snap := f.repo.Snapshot()
	snap.Habits[0].Name = "Hacked"
	snap.Habits[0].Goal = domain.Goal{Min: 0, Max: 99}

	h, err := f.repo.Get("Reading")
	require.NoError(t, err)
	assert.Equal(t, domain.Goal{Min: 1, Max: 3}, h.Goal)
	assert.Equal(t, "Reading", f.repo.Snapshot().Habits[0].Name)
}
