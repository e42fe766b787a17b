package plan

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	MaxWindowDays   = 14
	MaxTrainingDays = 7
	MaxMealsPerDay  = 6

	defaultDaysPerWeek   = 3
	defaultMealsPerDay   = 3
	defaultNutritionDays = 7
	defaultNutritionGoal = "maintain"
)

// ErrInvalidRequest marks a request rejected before any generation work
var ErrInvalidRequest = errors.New("invalid plan request")

type TrainingRequest struct {
	Goal           string   `json:"goal"`
	Level          string   `json:"level"`
	Focus          string   `json:"focus"`
	DaysPerWeek    int      `json:"daysPerWeek" binding:"min=0"`
	SessionMinutes int      `json:"sessionMinutes" binding:"min=0,max=300"`
	Equipment      []string `json:"equipment"`
	Injuries       string   `json:"injuries"`
	Age            int      `json:"age" binding:"min=0,max=120"`
	Sex            string   `json:"sex"`
	WeightKg       float64  `json:"weightKg" binding:"min=0"`
	HeightCm       float64  `json:"heightCm" binding:"min=0"`
	StartDate      string   `json:"startDate"`
	TotalDays      int      `json:"totalDays" binding:"min=0"`
}

type NutritionRequest struct {
	Goal        string   `json:"goal"`
	DietType    string   `json:"dietType"`
	Calories    int      `json:"calories" binding:"min=0,max=10000"`
	MealsPerDay int      `json:"mealsPerDay" binding:"min=0"`
	Days        int      `json:"days" binding:"min=0"`
	Allergies   []string `json:"allergies"`
	Dislikes    []string `json:"dislikes"`
	StartDate   string   `json:"startDate"`
}

// returns a cleaned copy with counts clamped to their windows and the parsed start date.
// an empty startDate means today (UTC).
func (r TrainingRequest) Normalize(now time.Time) (TrainingRequest, time.Time, error) {
	start, err := parseStart(r.StartDate, now)
	if err != nil {
		return r, time.Time{}, err
	}

	out := r
	out.Goal = normalizeWord(r.Goal)
	out.Level = normalizeWord(r.Level)
	out.Focus = normalizeWord(r.Focus)
	out.Sex = normalizeWord(r.Sex)
	out.Injuries = strings.TrimSpace(r.Injuries)
	out.Equipment = normalizeList(r.Equipment)
	out.StartDate = start.Format(DateLayout)

	if out.DaysPerWeek == 0 {
		out.DaysPerWeek = defaultDaysPerWeek
	}
	out.DaysPerWeek = clamp(out.DaysPerWeek, 1, MaxTrainingDays)

	if out.TotalDays == 0 {
		out.TotalDays = out.DaysPerWeek
	}
	out.TotalDays = clamp(out.TotalDays, 1, MaxWindowDays)

	if out.DaysPerWeek > out.TotalDays {
		out.DaysPerWeek = out.TotalDays
	}

	return out, start, nil
}

// returns a cleaned copy with counts clamped to their windows and the parsed start date
func (r NutritionRequest) Normalize(now time.Time) (NutritionRequest, time.Time, error) {
	start, err := parseStart(r.StartDate, now)
	if err != nil {
		return r, time.Time{}, err
	}

	out := r
	out.Goal = normalizeWord(r.Goal)
	if out.Goal == "" {
		out.Goal = defaultNutritionGoal
	}
	out.DietType = normalizeWord(r.DietType)
	out.Allergies = normalizeList(r.Allergies)
	out.Dislikes = normalizeList(r.Dislikes)
	out.StartDate = start.Format(DateLayout)

	if out.MealsPerDay == 0 {
		out.MealsPerDay = defaultMealsPerDay
	}
	out.MealsPerDay = clamp(out.MealsPerDay, 1, MaxMealsPerDay)

	if out.Days == 0 {
		out.Days = defaultNutritionDays
	}
	out.Days = clamp(out.Days, 1, MaxWindowDays)

	return out, start, nil
}

func parseStart(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}

	start, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: startDate must be YYYY-MM-DD", ErrInvalidRequest)
	}

	return start, nil
}

func normalizeWord(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeList(items []string) []string {
	if len(items) == 0 {
		return nil
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = normalizeWord(item); item != "" {
			out = append(out, item)
		}
	}

	if len(out) == 0 {
		return nil
	}

	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
