package habitlogs

import (
	"strings"
	"time"

	"habittracker/habits-api/internal/habits"
)

type Status string

const (
	Completed Status = "Completed"
	Missed    Status = "Missed"
)

// ParseStatus normalises case. An empty value means Completed.
func ParseStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "completed":
		return Completed, true
	case "missed":
		return Missed, true
	default:
		return "", false
	}
}

type HabitLog struct {
	ID      string        `json:"id"`
	UserID  string        `json:"userId"`
	HabitID string        `json:"habitId"`
	Habit   *habits.Habit `json:"habit,omitempty"`
	Date    time.Time     `json:"date"`
	Status  Status        `json:"status"`
}

type Summary struct {
	HabitID     string `json:"habitId"`
	HabitName   string `json:"habitName"`
	DoneCount   int    `json:"doneCount"`
	MissedCount int    `json:"missedCount"`
}
