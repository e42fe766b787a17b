package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/fitcoach/server/fitcoach/accounts"
	"codeberg.org/fitcoach/server/fitcoach/plans"
	"codeberg.org/fitcoach/server/internal/fingerprint"
	"codeberg.org/fitcoach/server/internal/llm"
	"codeberg.org/fitcoach/server/internal/metering"
	"codeberg.org/fitcoach/server/internal/plan"
	"codeberg.org/fitcoach/server/internal/plancache"
	"codeberg.org/fitcoach/server/internal/quota"
	"codeberg.org/fitcoach/server/internal/shape"
)

// implements llm.TextGenerator for testing
type mockGenerator struct {
	generateTextFunc func(ctx context.Context, req llm.TextGenerationRequest) (*llm.TextGenerationResponse, error)

	mu    sync.Mutex
	calls []llm.TextGenerationRequest
}

func (m *mockGenerator) GenerateText(ctx context.Context, req llm.TextGenerationRequest) (*llm.TextGenerationResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.generateTextFunc != nil {
		return m.generateTextFunc(ctx, req)
	}

	return nil, errors.New("unexpected model call")
}

func (m *mockGenerator) Model() string {
	return "mock-model"
}

func (m *mockGenerator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// answers with each text in turn, repeating the last one
func scripted(texts ...string) func(context.Context, llm.TextGenerationRequest) (*llm.TextGenerationResponse, error) {
	var mu sync.Mutex
	i := 0

	return func(context.Context, llm.TextGenerationRequest) (*llm.TextGenerationResponse, error) {
		mu.Lock()
		defer mu.Unlock()

		text := texts[min(i, len(texts)-1)]
		i++

		return &llm.TextGenerationResponse{
			Text:  text,
			Model: "mock-model",
			Usage: llm.Usage{InputTokens: 1000 * i, OutputTokens: 500},
		}, nil
	}
}

func trainingJSON(t *testing.T, days int) string {
	t.Helper()

	p := plan.Plan{Title: "Fuerza para {name}"}
	for i := 0; i < days; i++ {
		p.Days = append(p.Days, plan.Day{
			Label:     fmt.Sprintf("Día %d", i+1),
			Exercises: []plan.Exercise{{Name: "Sentadilla", Sets: 3, Reps: "5", RestSeconds: 120, Notes: "Ánimo {name}"}},
		})
	}

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	return string(raw)
}

func nutritionJSON(t *testing.T, days, meals int) string {
	t.Helper()

	p := plan.Plan{Title: "Menú"}
	for i := 0; i < days; i++ {
		d := plan.Day{Label: fmt.Sprintf("Día %d", i+1)}
		for j := 0; j < meals; j++ {
			d.Meals = append(d.Meals, plan.Meal{
				Name:        fmt.Sprintf("Comida %d", j+1),
				Title:       fmt.Sprintf("Plato %d", i*10+j),
				Ingredients: []plan.Ingredient{{Name: "arroz", Quantity: "80 g"}},
			})
		}
		p.Days = append(p.Days, d)
	}

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	return string(raw)
}

type harness struct {
	planner  *Planner
	gen      *mockGenerator
	cache    *plancache.MemoryStore
	ledger   *quota.Ledger
	accounts *accounts.MemoryRepository
	plans    *plans.MemoryRepository
}

func newHarness(gen *mockGenerator) *harness {
	h := &harness{
		gen:      gen,
		cache:    plancache.NewMemoryStore(),
		ledger:   quota.NewLedger(quota.NewMemoryStore(), map[string]int{"FREE": 3, "PRO": 0}),
		accounts: accounts.NewMemoryRepository(),
		plans:    plans.NewMemoryRepository(),
	}

	h.planner = New(Deps{
		Generator:    gen,
		Cache:        h.cache,
		Quota:        h.ledger,
		Meter:        metering.NewMeter(h.accounts, metering.DefaultPricingTable()),
		Plans:        h.plans,
		Accounts:     h.accounts,
		MeteredPlans: []string{"pro"},
	})

	return h
}

func (h *harness) fund(userID string, balance int64) {
	expiry := time.Now().Add(30 * 24 * time.Hour)
	h.accounts.Put(accounts.Account{UserID: userID, Plan: accounts.PlanPro, TokenBalance: balance, TokenExpiryAt: &expiry})
}

func (h *harness) used(t *testing.T, userID string) int {
	t.Helper()
	u, err := h.ledger.Usage(context.Background(), userID, "FREE")
	require.NoError(t, err)
	return u.Used
}

var liveTraining = plan.TrainingRequest{Goal: "fuerza", Level: "intermedio", Focus: "strength", DaysPerWeek: 3, TotalDays: 7, StartDate: "2024-01-01"}

func TestGenerateTraining_TemplateScenario(t *testing.T) {
	h := newHarness(&mockGenerator{})

	res, err := h.planner.GenerateTraining(context.Background(), "u1", plan.TrainingRequest{
		Goal: "fuerza", Level: "principiante", Focus: "ppl", DaysPerWeek: 4, StartDate: "2024-01-01",
	}, map[string]string{"name": "Ana"})
	require.NoError(t, err)

	assert.Equal(t, SourceTemplate, res.Source)
	require.Len(t, res.Plan.Days, 4)
	for i, d := range res.Plan.Days {
		assert.Equal(t, fmt.Sprintf("Día %d", i+1), d.Label)
		assert.Equal(t, fmt.Sprintf("2024-01-0%d", i+1), d.Date)
	}
	assert.Contains(t, res.Plan.Title, "Ana")

	assert.Zero(t, h.gen.callCount())
	assert.Zero(t, h.used(t, "u1"), "templates are quota exempt")
	assert.Len(t, h.plans.List("u1"), 1)
}

func TestGenerateTraining_LiveThenCache(t *testing.T) {
	gen := &mockGenerator{}
	gen.generateTextFunc = scripted(trainingJSON(t, 3))
	h := newHarness(gen)
	ctx := context.Background()

	res, err := h.planner.GenerateTraining(ctx, "u1", liveTraining, map[string]string{"name": "Luis"})
	require.NoError(t, err)

	assert.Equal(t, SourceLive, res.Source)
	assert.False(t, res.Metered)
	assert.Nil(t, res.Charge)
	require.Len(t, res.Plan.Days, 3)
	assert.Equal(t, []string{"2024-01-01", "2024-01-04", "2024-01-07"},
		[]string{res.Plan.Days[0].Date, res.Plan.Days[1].Date, res.Plan.Days[2].Date})
	assert.Equal(t, "Fuerza para Luis", res.Plan.Title)
	assert.Equal(t, 1, h.used(t, "u1"))

	// the cache keeps the plan before personalization
	normalized, _, _ := liveTraining.Normalize(time.Now())
	fp, err := fingerprint.Compute("training", normalized)
	require.NoError(t, err)
	entry, err := h.cache.Get(ctx, fp)
	require.NoError(t, err)
	assert.Contains(t, string(entry.Payload), "{name}")

	again, err := h.planner.GenerateTraining(ctx, "u1", liveTraining, map[string]string{"name": "Luis"})
	require.NoError(t, err)
	assert.Equal(t, SourceCache, again.Source)
	assert.Equal(t, res.Plan, again.Plan)
	assert.Equal(t, 1, gen.callCount())
	assert.Equal(t, 1, h.used(t, "u1"), "cache hits are quota exempt")
	assert.Len(t, h.plans.List("u1"), 1, "same window is overwritten")
}

func TestGenerateTraining_InvalidCacheEntryRegenerates(t *testing.T) {
	gen := &mockGenerator{}
	gen.generateTextFunc = scripted(trainingJSON(t, 3))
	h := newHarness(gen)
	ctx := context.Background()

	normalized, _, _ := liveTraining.Normalize(time.Now())
	fp, _ := fingerprint.Compute("training", normalized)
	require.NoError(t, h.cache.Put(ctx, fp, "training", []byte(trainingJSON(t, 2))))

	res, err := h.planner.GenerateTraining(ctx, "u1", liveTraining, nil)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, res.Source)
	assert.Equal(t, 1, gen.callCount())

	entry, err := h.cache.Get(ctx, fp)
	require.NoError(t, err)
	var healed plan.Plan
	require.NoError(t, json.Unmarshal(entry.Payload, &healed))
	assert.Len(t, healed.Days, 3)
}

func TestGenerateTraining_RetryChargesSuccessfulAttemptOnce(t *testing.T) {
	gen := &mockGenerator{}
	gen.generateTextFunc = scripted("lo siento, aquí va tu plan", "```json\n"+trainingJSON(t, 3)+"\n```")
	h := newHarness(gen)
	h.fund("u1", 100_000)

	res, err := h.planner.GenerateTraining(context.Background(), "u1", liveTraining, nil)
	require.NoError(t, err)

	require.Equal(t, 2, gen.callCount())
	assert.NotContains(t, gen.calls[0].SystemPrompt, "STRICT MODE")
	assert.Contains(t, gen.calls[1].SystemPrompt, "STRICT MODE")
	assert.Contains(t, gen.calls[1].Messages[0].Content, "previous answer was rejected")

	// second attempt reported 2000 in + 500 out
	require.NotNil(t, res.Charge)
	assert.Equal(t, int64(2500), res.Charge.CostUnits)
	assert.Equal(t, int64(97_500), res.TokenBalance)
	assert.True(t, res.Metered)
	assert.NotNil(t, res.TokenRenewalAt)

	usage := h.accounts.Usage()
	require.Len(t, usage, 1)
	assert.Equal(t, 2000, usage[0].InputTokens)
}

func TestGenerateTraining_ParseFailsTwice(t *testing.T) {
	gen := &mockGenerator{}
	gen.generateTextFunc = scripted("no json here")
	h := newHarness(gen)

	_, err := h.planner.GenerateTraining(context.Background(), "u1", liveTraining, nil)
	assert.ErrorIs(t, err, ErrAIParse)
	assert.Equal(t, maxAttempts, gen.callCount())
	assert.Equal(t, 1, h.used(t, "u1"))
	assert.Empty(t, h.plans.List("u1"))
}

func TestGenerateTraining_DayCountMismatchIsFatal(t *testing.T) {
	gen := &mockGenerator{}
	gen.generateTextFunc = scripted(trainingJSON(t, 5))
	h := newHarness(gen)

	_, err := h.planner.GenerateTraining(context.Background(), "u1", liveTraining, nil)
	assert.ErrorIs(t, err, shape.ErrShapeMismatch)
	assert.NotErrorIs(t, err, ErrAIParse)
	assert.Equal(t, maxAttempts, gen.callCount())
}

func TestGenerateTraining_TransientErrorNotRetried(t *testing.T) {
	gen := &mockGenerator{
		generateTextFunc: func(context.Context, llm.TextGenerationRequest) (*llm.TextGenerationResponse, error) {
			return nil, &llm.APIError{Provider: llm.ProviderAnthropic, StatusCode: 529}
		},
	}
	h := newHarness(gen)
	h.fund("u1", 100_000)

	_, err := h.planner.GenerateTraining(context.Background(), "u1", liveTraining, nil)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Equal(t, 1, gen.callCount())

	acc, _ := h.accounts.Get(context.Background(), "u1")
	assert.Equal(t, int64(100_000), acc.TokenBalance, "failed calls are never charged")
}

func TestGenerateTraining_MeteredWithoutBalance(t *testing.T) {
	gen := &mockGenerator{}
	h := newHarness(gen)

	expired := time.Now().Add(-time.Hour)
	h.accounts.Put(accounts.Account{UserID: "u1", Plan: accounts.PlanPro, TokenBalance: 5000, TokenExpiryAt: &expired})

	_, err := h.planner.GenerateTraining(context.Background(), "u1", liveTraining, nil)
	assert.ErrorIs(t, err, ErrNoBalance)
	assert.Zero(t, gen.callCount())
	assert.Zero(t, h.used(t, "u1"))
}

func TestGenerateTraining_QuotaExceeded(t *testing.T) {
	gen := &mockGenerator{}
	gen.generateTextFunc = scripted(trainingJSON(t, 3))
	h := newHarness(gen)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		req := liveTraining
		req.StartDate = fmt.Sprintf("2024-02-0%d", i+1)
		_, err := h.planner.GenerateTraining(ctx, "u1", req, nil)
		require.NoError(t, err)
	}

	req := liveTraining
	req.StartDate = "2024-03-01"
	_, err := h.planner.GenerateTraining(ctx, "u1", req, nil)

	var exceeded *quota.ExceededError
	require.True(t, errors.As(err, &exceeded))
	assert.Equal(t, 3, exceeded.Limit)
	assert.Equal(t, 3, gen.callCount())
}

func TestGenerateTraining_ChargeRaceStillReturnsPlan(t *testing.T) {
	gen := &mockGenerator{}
	gen.generateTextFunc = scripted(trainingJSON(t, 3))
	h := newHarness(gen)
	h.fund("u1", 10)

	res, err := h.planner.GenerateTraining(context.Background(), "u1", liveTraining, nil)

	var chargeErr *ChargeError
	require.True(t, errors.As(err, &chargeErr))
	assert.ErrorIs(t, err, accounts.ErrInsufficientBalance)

	require.NotNil(t, res)
	assert.Len(t, res.Plan.Days, 3)
	assert.Len(t, h.plans.List("u1"), 1, "plan is persisted even when the charge fails")
	assert.Equal(t, int64(10), res.TokenBalance, "reports what is left, not zero")

	acc, _ := h.accounts.Get(context.Background(), "u1")
	assert.Equal(t, int64(10), acc.TokenBalance)
}

func TestGenerateNutrition_RepairsShape(t *testing.T) {
	gen := &mockGenerator{}
	gen.generateTextFunc = scripted(nutritionJSON(t, 5, 2))
	h := newHarness(gen)

	res, err := h.planner.GenerateNutrition(context.Background(), "u1", plan.NutritionRequest{
		Goal: "definicion", DietType: "vegetariana", MealsPerDay: 3, Days: 7, StartDate: "2024-01-01",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, SourceLive, res.Source)
	require.Len(t, res.Plan.Days, 7)
	assert.Equal(t, "2024-01-07", res.Plan.Days[6].Date)
	for _, d := range res.Plan.Days {
		assert.Len(t, d.Meals, 3)
	}
	assert.Equal(t, res.Plan.Days[0].Meals, res.Plan.Days[5].Meals)
	assert.Equal(t, 1, gen.callCount())
}

func TestGenerateNutrition_Template(t *testing.T) {
	h := newHarness(&mockGenerator{})

	res, err := h.planner.GenerateNutrition(context.Background(), "u1", plan.NutritionRequest{
		Goal: "lose_weight", MealsPerDay: 4, Days: 5, StartDate: "2024-01-01",
	}, map[string]string{"name": "Eva"})
	require.NoError(t, err)

	assert.Equal(t, SourceTemplate, res.Source)
	assert.Len(t, res.Plan.Days, 5)
	assert.True(t, strings.HasSuffix(res.Plan.Title, "Eva"))
	assert.Zero(t, h.gen.callCount())
}

func TestGenerate_InvalidRequest(t *testing.T) {
	h := newHarness(&mockGenerator{})

	_, err := h.planner.GenerateTraining(context.Background(), "u1", plan.TrainingRequest{StartDate: "mañana"}, nil)
	assert.ErrorIs(t, err, plan.ErrInvalidRequest)
	assert.Zero(t, h.used(t, "u1"))
}
