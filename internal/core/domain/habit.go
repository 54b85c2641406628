package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrHabitNameEmpty    = errors.New("habit name cannot be empty")
	ErrHabitNameTaken    = errors.New("habit with this name already exists")
	ErrInvalidGoal       = errors.New("invalid goal (min must be lower than max, both between 1 and 24)")
	ErrImmutableField    = errors.New("field cannot be changed")
	ErrHabitNotFound     = errors.New("habit not found")
	ErrHabitNotDeletable = errors.New("basic habits cannot be deleted")
)

const (
	MinGoalHours = 1
	MaxGoalHours = 24
)

// ValidationError reports a rejected field. It matches both its cause and
// ErrValidation under errors.Is.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	return []error{e.Err, ErrValidation}
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// Goal is an inclusive daily target range. It is persisted as [min, max].
type Goal struct {
	Min int
	Max int
}

func NewGoal(min, max int) (Goal, error) {
	g := Goal{Min: min, Max: max}
	if err := g.Validate(); err != nil {
		return Goal{}, err
	}
	return g, nil
}

func (g Goal) Validate() error {
	if g.Min < MinGoalHours || g.Min > MaxGoalHours || g.Max < MinGoalHours || g.Max > MaxGoalHours {
		return invalid("goal", ErrInvalidGoal)
	}
	if g.Min >= g.Max {
		return invalid("goal", ErrInvalidGoal)
	}
	return nil
}

func (g Goal) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{g.Min, g.Max})
}

func (g *Goal) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("goal must be a [min, max] pair: %w", err)
	}
	g.Min, g.Max = pair[0], pair[1]
	return nil
}

type Habit struct {
	Name     string `json:"name"`
	Goal     Goal   `json:"goal"`
	Progress int    `json:"progress"`
	Streak   int    `json:"streak"`
	Basic    bool   `json:"basic,omitempty"`
}

// NormalizeName is the comparison form of a habit name: names are unique
// case-insensitively and surrounding whitespace is ignored.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func validateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", invalid("name", ErrHabitNameEmpty)
	}
	return trimmed, nil
}

func NewHabit(name string, goalMin, goalMax int) (*Habit, error) {
	trimmed, err := validateName(name)
	if err != nil {
		return nil, err
	}

	goal, err := NewGoal(goalMin, goalMax)
	if err != nil {
		return nil, err
	}

	return &Habit{
		Name: trimmed,
		Goal: goal,
	}, nil
}

func newBasicHabit(name string, goalMin, goalMax int) *Habit {
	return &Habit{
		Name:  name,
		Goal:  Goal{Min: goalMin, Max: goalMax},
		Basic: true,
	}
}

// BasicHabits returns the system-defined set seeded on first run.
func BasicHabits() []*Habit {
	return []*Habit{
		newBasicHabit("Sleep", 7, 9),
		newBasicHabit("Water Intake", 3, 5),
		newBasicHabit("Screen Time", 2, 4),
	}
}

func (h *Habit) HasName(name string) bool {
	return NormalizeName(h.Name) == NormalizeName(name)
}

// Rename changes the display name. Basic habits keep their name; passing the
// current name back is accepted as a no-op.
func (h *Habit) Rename(name string) error {
	trimmed, err := validateName(name)
	if err != nil {
		return err
	}

	if h.Basic && trimmed != h.Name {
		return invalid("name", ErrImmutableField)
	}

	h.Name = trimmed
	return nil
}

func (h *Habit) SetGoal(goalMin, goalMax int) error {
	goal, err := NewGoal(goalMin, goalMax)
	if err != nil {
		return err
	}
	h.Goal = goal
	return nil
}

func (h *Habit) Status() GoalStatus {
	return Classify(h.Progress, h.Goal)
}
