package domain

import "math"

type GoalStatus string

const (
	BelowGoal GoalStatus = "below_goal"
	Achieved  GoalStatus = "achieved"
	OverGoal  GoalStatus = "over_goal"
)

func Classify(progress int, goal Goal) GoalStatus {
	switch {
	case progress < goal.Min:
		return BelowGoal
	case progress > goal.Max:
		return OverGoal
	default:
		return Achieved
	}
}

// Percentage is the display share of goal.Max reached, clamped to [0, 100].
func Percentage(progress int, goal Goal) float64 {
	if goal.Max <= 0 {
		return 0
	}
	pct := float64(progress) / float64(goal.Max) * 100
	return math.Max(0, math.Min(100, pct))
}
