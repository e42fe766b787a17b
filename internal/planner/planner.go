// Package planner turns plan requests into persisted plans, trying a
// template, then the plan cache, then a live model call.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"codeberg.org/fitcoach/server/fitcoach/accounts"
	"codeberg.org/fitcoach/server/internal/fingerprint"
	"codeberg.org/fitcoach/server/internal/llm"
	"codeberg.org/fitcoach/server/internal/logger"
	"codeberg.org/fitcoach/server/internal/metering"
	"codeberg.org/fitcoach/server/internal/plan"
	"codeberg.org/fitcoach/server/internal/plancache"
	"codeberg.org/fitcoach/server/internal/shape"
	"codeberg.org/fitcoach/server/internal/templates"
)

// one normal attempt plus one stricter retry
const maxAttempts = 2

func New(deps Deps) *Planner {
	metered := make(map[accounts.Plan]bool, len(deps.MeteredPlans))
	for _, p := range deps.MeteredPlans {
		metered[accounts.Plan(strings.ToUpper(p))] = true
	}

	return &Planner{
		generator: deps.Generator,
		cache:     deps.Cache,
		quota:     deps.Quota,
		meter:     deps.Meter,
		plans:     deps.Plans,
		accounts:  deps.Accounts,
		metered:   metered,
		now:       time.Now,
	}
}

// reports whether accounts on tier are charged for live calls
func (p *Planner) IsMetered(tier accounts.Plan) bool {
	return p.metered[tier]
}

// builds a training plan with exactly req.DaysPerWeek sessions spread over
// req.TotalDays days. values fill {placeholders} in the final plan.
func (p *Planner) GenerateTraining(ctx context.Context, userID string, req plan.TrainingRequest, values map[string]string) (*Result, error) {
	req, start, err := req.Normalize(p.now())
	if err != nil {
		return nil, err
	}

	return p.run(ctx, userID, values, job{
		planType: plan.TypeTraining,
		params:   req,
		template: func() (*plan.Plan, bool) { return templates.Training(req) },
		prompt:   func(strict bool) (string, string) { return buildTrainingPrompt(req, strict) },
		shape: func(raw *plan.Plan) (*plan.Plan, error) {
			if err := plan.ValidateTraining(raw); err != nil {
				return nil, err
			}

			// day count is never repaired for training
			if err := shape.AssertDayCount(raw, req.DaysPerWeek); err != nil {
				return nil, err
			}

			return shape.PlaceTrainingDays(raw, start, req.TotalDays, req.DaysPerWeek)
		},
	})
}

// builds a nutrition plan with exactly req.Days days of req.MealsPerDay meals
func (p *Planner) GenerateNutrition(ctx context.Context, userID string, req plan.NutritionRequest, values map[string]string) (*Result, error) {
	req, start, err := req.Normalize(p.now())
	if err != nil {
		return nil, err
	}

	return p.run(ctx, userID, values, job{
		planType: plan.TypeNutrition,
		params:   req,
		template: func() (*plan.Plan, bool) { return templates.Nutrition(req) },
		prompt:   func(strict bool) (string, string) { return buildNutritionPrompt(req, strict) },
		shape: func(raw *plan.Plan) (*plan.Plan, error) {
			if err := plan.ValidateNutrition(raw); err != nil {
				return nil, err
			}

			out, err := shape.ResampleNutritionDays(raw, start, req.Days)
			if err != nil {
				return nil, err
			}

			if out, err = shape.NormalizeMealsPerDay(out, req.MealsPerDay); err != nil {
				return nil, err
			}

			if err := shape.AssertDayCount(out, req.Days); err != nil {
				return nil, err
			}

			return out, shape.AssertMealsPerDay(out, req.MealsPerDay)
		},
	})
}

func (p *Planner) run(ctx context.Context, userID string, values map[string]string, j job) (*Result, error) {
	log := logger.FromContext(ctx).With("plan_type", j.planType, "user_id", userID)

	acc, err := p.accounts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	metered := p.IsMetered(acc.Plan)

	if tpl, ok := j.template(); ok {
		normalized, err := j.shape(tpl)
		if err != nil {
			return nil, fmt.Errorf("template for %s plan is invalid: %w", j.planType, err)
		}

		log.Debug("plan resolved from template")
		return p.finish(ctx, userID, acc, metered, j.planType, normalized, SourceTemplate, values)
	}

	fp, err := fingerprint.Compute(string(j.planType), j.params)
	if err != nil {
		return nil, err
	}

	if cached := p.fromCache(ctx, log, fp, j); cached != nil {
		log.Debug("plan resolved from cache", "fingerprint", fp)
		return p.finish(ctx, userID, acc, metered, j.planType, cached, SourceCache, values)
	}

	if metered && accounts.EffectiveBalance(acc, p.now()) <= 0 {
		return nil, ErrNoBalance
	}

	if err := p.quota.CheckAndIncrement(ctx, userID, string(acc.Plan)); err != nil {
		return nil, err
	}

	normalized, resp, err := p.generate(ctx, log, j)
	if err != nil {
		return nil, err
	}

	res, err := p.finish(ctx, userID, acc, metered, j.planType, normalized, SourceLive, values)
	if err != nil {
		return nil, err
	}

	p.writeCache(ctx, log, fp, j.planType, normalized)

	if !metered {
		return res, nil
	}

	charge, err := p.meter.Charge(ctx, userID, string(j.planType), metering.Usage{
		Model:        resp.Model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	})
	if err != nil {
		log.Warn("failed to charge for live plan", "error", err)

		// the debit can fail with a balance left that is just below the cost
		if current, readErr := p.accounts.Get(ctx, userID); readErr == nil {
			res.TokenBalance = accounts.EffectiveBalance(current, p.now())
			res.TokenRenewalAt = current.TokenExpiryAt
		}

		return res, &ChargeError{Err: err}
	}

	res.Charge = charge
	res.TokenBalance = charge.NewBalance
	return res, nil
}

// calls the model until its output passes shape validation, at most maxAttempts times.
// returns the normalized plan and the response of the attempt that produced it.
func (p *Planner) generate(ctx context.Context, log *slog.Logger, j job) (*plan.Plan, *llm.TextGenerationResponse, error) {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		system, user := j.prompt(attempt > 0)
		if lastErr != nil {
			user += fmt.Sprintf("\n\nYour previous answer was rejected: %s. Return only the corrected JSON object.", lastErr)
		}

		resp, err := p.generator.GenerateText(ctx, llm.TextGenerationRequest{
			SystemPrompt: system,
			Messages:     []llm.Message{{Role: "user", Content: user}},
			JSONOutput:   true,
		})
		if err != nil {
			if llm.IsTransient(err) || ctx.Err() != nil {
				return nil, nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
			}
			return nil, nil, fmt.Errorf("failed to generate %s plan: %w", j.planType, err)
		}

		raw, err := decodePlan(resp.Text)
		if err == nil {
			var normalized *plan.Plan
			if normalized, err = j.shape(raw); err == nil {
				if resp.Model == "" {
					resp.Model = p.generator.Model()
				}
				return normalized, resp, nil
			}
		}

		lastErr = err
		log.Warn("model output rejected", "attempt", attempt, "error", err)
	}

	if errors.Is(lastErr, shape.ErrShapeMismatch) {
		return nil, nil, lastErr
	}

	return nil, nil, fmt.Errorf("%w: %v", ErrAIParse, lastErr)
}

// returns the cached plan re-shaped for this request, or nil on any miss.
// broken entries are logged and regenerated rather than served.
func (p *Planner) fromCache(ctx context.Context, log *slog.Logger, fp string, j job) *plan.Plan {
	entry, err := p.cache.Get(ctx, fp)
	if errors.Is(err, plancache.ErrMiss) {
		return nil
	}

	if err != nil {
		log.Warn("plan cache read failed", "fingerprint", fp, "error", err)
		return nil
	}

	if entry.PlanType != string(j.planType) {
		log.Warn("cached plan has wrong type", "fingerprint", fp, "cached_type", entry.PlanType)
		return nil
	}

	var cached plan.Plan
	if err := json.Unmarshal(entry.Payload, &cached); err != nil {
		log.Warn("cached plan is not valid JSON", "fingerprint", fp, "error", err)
		return nil
	}

	normalized, err := j.shape(&cached)
	if err != nil {
		log.Warn("cached plan failed validation", "fingerprint", fp, "error", err)
		return nil
	}

	return normalized
}

func (p *Planner) writeCache(ctx context.Context, log *slog.Logger, fp string, planType plan.Type, normalized *plan.Plan) {
	payload, err := json.Marshal(normalized)
	if err != nil {
		log.Warn("failed to encode plan for cache", "error", err)
		return
	}

	if err := p.cache.Put(ctx, fp, string(planType), payload); err != nil {
		log.Warn("plan cache write failed", "fingerprint", fp, "error", err)
	}
}

// personalizes and persists normalized, and fills in the entitlement fields of the result
func (p *Planner) finish(
	ctx context.Context,
	userID string,
	acc *accounts.Account,
	metered bool,
	planType plan.Type,
	normalized *plan.Plan,
	source Source,
	values map[string]string,
) (*Result, error) {
	personalized, err := plan.Personalize(normalized, values)
	if err != nil {
		return nil, err
	}

	rec, err := p.plans.Upsert(ctx, userID, planType, personalized)
	if err != nil {
		return nil, fmt.Errorf("failed to persist plan: %w", err)
	}

	res := &Result{
		Plan:     personalized,
		RecordID: rec.ID,
		Source:   source,
		Metered:  metered,
	}

	if metered {
		res.TokenBalance = accounts.EffectiveBalance(acc, p.now())
		res.TokenRenewalAt = acc.TokenExpiryAt
	}

	return res, nil
}
