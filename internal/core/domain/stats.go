package domain

type WeeklyStats struct {
	StartDate   string      `json:"start_date"`
	EndDate     string      `json:"end_date"`
	TotalHabits int         `json:"total_habits"`
	OverallRate float64     `json:"overall_completion_rate"`
	HabitStats  []HabitStat `json:"habits"`
}

type HabitStat struct {
	Name           string    `json:"name"`
	Basic          bool      `json:"basic"`
	Goal           Goal      `json:"goal"`
	TotalValue     int       `json:"total_value"`
	DaysLogged     int       `json:"days_logged"`
	DaysAchieved   int       `json:"days_achieved"`
	CompletionRate float64   `json:"completion_rate"`
	CurrentStreak  int       `json:"current_streak"`
	LongestStreak  int       `json:"longest_streak"`
	Days           []DayStat `json:"days"`
}

type DayStat struct {
	Date   string     `json:"date"`
	Value  int        `json:"value"`
	Logged bool       `json:"logged"`
	Status GoalStatus `json:"status,omitempty"`
}

type StatsInput struct {
	Namespace string
	Days      int
}
