// Package shape forces generated plans onto the exact calendar the caller asked for.
// Every function returns a new plan and leaves its input untouched.
package shape

import (
	"errors"
	"fmt"
	"math"
	"time"

	"codeberg.org/fitcoach/server/internal/plan"
)

// ErrShapeMismatch is returned when a generated plan has the wrong cardinality
var ErrShapeMismatch = errors.New("generated plan has the wrong shape")

// returns ErrShapeMismatch unless p has exactly want days
func AssertDayCount(p *plan.Plan, want int) error {
	if p == nil {
		return fmt.Errorf("%w: empty plan", ErrShapeMismatch)
	}

	if len(p.Days) != want {
		return fmt.Errorf("%w: expected %d days, got %d", ErrShapeMismatch, want, len(p.Days))
	}

	return nil
}

// returns ErrShapeMismatch unless every day of p has exactly want meals
func AssertMealsPerDay(p *plan.Plan, want int) error {
	for i, d := range p.Days {
		if len(d.Meals) != want {
			return fmt.Errorf("%w: day %d expected %d meals, got %d", ErrShapeMismatch, i+1, want, len(d.Meals))
		}
	}

	return nil
}

// spreads sessions workout days evenly across a totalDays window starting at
// start. the caller must have checked len(p.Days) == sessions already.
func PlaceTrainingDays(p *plan.Plan, start time.Time, totalDays, sessions int) (*plan.Plan, error) {
	if err := AssertDayCount(p, sessions); err != nil {
		return nil, err
	}

	if sessions > totalDays {
		return nil, fmt.Errorf("%w: %d sessions do not fit in %d days", ErrShapeMismatch, sessions, totalDays)
	}

	out := p.Clone()
	out.StartDate = start.Format(plan.DateLayout)
	out.DayCount = totalDays

	for i, idx := range SessionIndices(totalDays, sessions) {
		out.Days[i].Date = start.AddDate(0, 0, idx).Format(plan.DateLayout)
	}

	return out, nil
}

// evenly spaced day offsets in [0, totalDays-1]; rounding collisions are
// pushed forward to prev+1 so the result is strictly increasing
func SessionIndices(totalDays, sessions int) []int {
	if sessions <= 0 {
		return nil
	}

	indices := make([]int, sessions)
	if sessions == 1 {
		return indices
	}

	step := float64(totalDays-1) / float64(sessions-1)

	for i := range indices {
		idx := int(math.Round(float64(i) * step))
		if i > 0 && idx <= indices[i-1] {
			idx = indices[i-1] + 1
		}
		indices[i] = idx
	}

	return indices
}

// cycles the source days until there are exactly totalDays, each one an
// independent copy, and dates them sequentially from start
func ResampleNutritionDays(p *plan.Plan, start time.Time, totalDays int) (*plan.Plan, error) {
	if p == nil || len(p.Days) == 0 {
		return nil, fmt.Errorf("%w: plan has no days to resample", ErrShapeMismatch)
	}

	out := *p
	out.StartDate = start.Format(plan.DateLayout)
	out.DayCount = totalDays
	out.Days = make([]plan.Day, totalDays)

	for i := range out.Days {
		day := p.Days[i%len(p.Days)].Clone()
		day.Date = start.AddDate(0, 0, i).Format(plan.DateLayout)
		if i >= len(p.Days) {
			day.Label = fmt.Sprintf("Día %d", i+1)
		}
		out.Days[i] = day
	}

	return &out, nil
}

// truncates or cyclically duplicates meals so every day has exactly mealsPerDay
func NormalizeMealsPerDay(p *plan.Plan, mealsPerDay int) (*plan.Plan, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: empty plan", ErrShapeMismatch)
	}

	out := p.Clone()

	for i, d := range out.Days {
		if len(d.Meals) == 0 {
			return nil, fmt.Errorf("%w: day %d has no meals to repeat", ErrShapeMismatch, i+1)
		}

		meals := make([]plan.Meal, mealsPerDay)
		for j := range meals {
			meals[j] = d.Meals[j%len(d.Meals)].Clone()
		}

		out.Days[i].Meals = meals
	}

	return out, nil
}
