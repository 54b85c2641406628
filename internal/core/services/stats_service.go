package services

import (
	"context"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

const (
	DefaultStatsDays = 7
	MaxStatsDays     = 366
)

type StatsService struct {
	store domain.KeyValueStore
	now   Clock
}

func NewStatsService(store domain.KeyValueStore, clock Clock) *StatsService {
	return &StatsService{
		store: store,
		now:   orNow(clock),
	}
}

// GetWeeklyStats summarizes the last input.Days local days, today included,
// for every habit of the namespace. Days without an entry count as missed.
func (s *StatsService) GetWeeklyStats(ctx context.Context, input domain.StatsInput) (*domain.WeeklyStats, error) {
	days := input.Days
	if days < 1 {
		days = DefaultStatsDays
	}
	if days > MaxStatsDays {
		days = MaxStatsDays
	}

	now := s.now()
	endDate := domain.StartOfDay(now)
	startDate := endDate.AddDate(0, 0, -(days - 1))

	userHabits, err := readHabits(ctx, s.store, input.Namespace, domain.UserHabitsKey)
	if err != nil {
		return nil, err
	}
	basicHabits, err := readHabits(ctx, s.store, input.Namespace, domain.BasicHabitsKey)
	if err != nil {
		return nil, err
	}
	habits := append(basicHabits, userHabits...)

	log := NewProgressLog(s.store, input.Namespace, s.now)

	stats := &domain.WeeklyStats{
		StartDate:   domain.DayOf(startDate),
		EndDate:     domain.DayOf(endDate),
		TotalHabits: len(habits),
		HabitStats:  make([]domain.HabitStat, 0, len(habits)),
	}

	totalDaysPossible := 0
	totalDaysAchieved := 0

	for _, h := range habits {
		entries, err := log.Get(ctx, h.Name)
		if err != nil {
			return nil, err
		}

		byDay := make(map[string]int, len(entries))
		for _, e := range entries {
			byDay[e.Date] = e.Value
		}

		hStat := domain.HabitStat{
			Name:          h.Name,
			Basic:         h.Basic,
			Goal:          h.Goal,
			CurrentStreak: domain.CurrentStreak(entries, now),
			LongestStreak: domain.LongestStreak(entries),
			Days:          make([]domain.DayStat, 0, days),
		}

		for current := startDate; !current.After(endDate); current = current.AddDate(0, 0, 1) {
			dateKey := domain.DayOf(current)
			day := domain.DayStat{Date: dateKey}

			if val, ok := byDay[dateKey]; ok {
				day.Value = val
				day.Logged = true
				day.Status = domain.Classify(val, h.Goal)

				hStat.TotalValue += val
				hStat.DaysLogged++
				if day.Status == domain.Achieved {
					hStat.DaysAchieved++
					totalDaysAchieved++
				}
			}

			hStat.Days = append(hStat.Days, day)
			totalDaysPossible++
		}

		hStat.CompletionRate = float64(hStat.DaysAchieved) / float64(len(hStat.Days)) * 100
		stats.HabitStats = append(stats.HabitStats, hStat)
	}

	if totalDaysPossible > 0 {
		stats.OverallRate = float64(totalDaysAchieved) / float64(totalDaysPossible) * 100
	}

	return stats, nil
}
