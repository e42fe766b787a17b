package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)

func TestTrainingRequest_Normalize(t *testing.T) {
	tests := []struct {
		name                 string
		in                   TrainingRequest
		wantDays, wantWindow int
		wantStart            string
	}{
		{"defaults", TrainingRequest{}, 3, 3, "2024-03-10"},
		{"window follows days", TrainingRequest{DaysPerWeek: 4, StartDate: "2024-01-01"}, 4, 4, "2024-01-01"},
		{"clamped high", TrainingRequest{DaysPerWeek: 12, TotalDays: 40}, 7, 14, "2024-03-10"},
		{"sessions fit window", TrainingRequest{DaysPerWeek: 5, TotalDays: 3}, 3, 3, "2024-03-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, start, err := tt.in.Normalize(now)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDays, out.DaysPerWeek)
			assert.Equal(t, tt.wantWindow, out.TotalDays)
			assert.Equal(t, tt.wantStart, out.StartDate)
			assert.Equal(t, tt.wantStart, start.Format(DateLayout))
		})
	}
}

func TestTrainingRequest_NormalizeCleansStrings(t *testing.T) {
	out, _, err := TrainingRequest{Focus: " PPL ", Equipment: []string{" Barra", "", "MANCUERNAS"}}.Normalize(now)
	require.NoError(t, err)
	assert.Equal(t, "ppl", out.Focus)
	assert.Equal(t, []string{"barra", "mancuernas"}, out.Equipment)
}

func TestNutritionRequest_Normalize(t *testing.T) {
	out, _, err := NutritionRequest{}.Normalize(now)
	require.NoError(t, err)
	assert.Equal(t, 3, out.MealsPerDay)
	assert.Equal(t, 7, out.Days)

	out, _, err = NutritionRequest{MealsPerDay: 9, Days: 30}.Normalize(now)
	require.NoError(t, err)
	assert.Equal(t, 6, out.MealsPerDay)
	assert.Equal(t, 14, out.Days)
}

func TestNormalize_PreferencesOptional(t *testing.T) {
	tr, _, err := TrainingRequest{DaysPerWeek: 4, Focus: "PPL"}.Normalize(now)
	require.NoError(t, err)
	assert.Empty(t, tr.Goal)
	assert.Empty(t, tr.Level)
	assert.Equal(t, "ppl", tr.Focus)

	nr, _, err := NutritionRequest{}.Normalize(now)
	require.NoError(t, err)
	assert.Equal(t, "maintain", nr.Goal)
}

func TestNormalize_BadStartDate(t *testing.T) {
	_, _, err := TrainingRequest{StartDate: "01/02/2024"}.Normalize(now)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, _, err = NutritionRequest{StartDate: "2024-13-01"}.Normalize(now)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
