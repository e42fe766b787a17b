package plans

import (
	"context"
	"errors"
	"net/http"

	"codeberg.org/fitcoach/server/fitcoach/accounts"
	"codeberg.org/fitcoach/server/internal/auth"
	apierrors "codeberg.org/fitcoach/server/internal/errors"
	"codeberg.org/fitcoach/server/internal/logger"
	"codeberg.org/fitcoach/server/internal/plan"
	"codeberg.org/fitcoach/server/internal/planner"
	"codeberg.org/fitcoach/server/internal/quota"
	"codeberg.org/fitcoach/server/internal/shape"
	"github.com/gin-gonic/gin"
)

type Generator interface {
	GenerateTraining(ctx context.Context, userID string, req plan.TrainingRequest, values map[string]string) (*planner.Result, error)
	GenerateNutrition(ctx context.Context, userID string, req plan.NutritionRequest, values map[string]string) (*planner.Result, error)
}

// TrainingHandler godoc
// @Summary Generate a training plan
// @Description Resolves the plan from a template, the plan cache or the model, in that order. Live generations count against the daily quota and are charged on metered plans.
// @Tags plans
// @Accept json
// @Produce json
// @Param request body plan.TrainingRequest true "Training preferences"
// @Success 200 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 402 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /api/v1/plans/training [post]
// @Security BearerAuth
func TrainingHandler(gen Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.GetUserID(c)
		if !ok {
			apierrors.Unauthorized(c)
			return
		}

		var req plan.TrainingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.ValidationError(c, err)
			return
		}

		res, err := gen.GenerateTraining(c.Request.Context(), userID, req, personalization(c))
		respond(c, res, err)
	}
}

// NutritionHandler godoc
// @Summary Generate a nutrition plan
// @Description Same resolution order as training; the result always has the requested days and meals per day.
// @Tags plans
// @Accept json
// @Produce json
// @Param request body plan.NutritionRequest true "Nutrition preferences"
// @Success 200 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 402 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /api/v1/plans/nutrition [post]
// @Security BearerAuth
func NutritionHandler(gen Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.GetUserID(c)
		if !ok {
			apierrors.Unauthorized(c)
			return
		}

		var req plan.NutritionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.ValidationError(c, err)
			return
		}

		res, err := gen.GenerateNutrition(c.Request.Context(), userID, req, personalization(c))
		respond(c, res, err)
	}
}

// used when the token carries neither a name nor an email
const fallbackName = "atleta"

// values substituted into {placeholders} of the delivered plan
func personalization(c *gin.Context) map[string]string {
	name := auth.GetDisplayName(c)
	if name == "" {
		name = fallbackName
	}

	return map[string]string{"name": name}
}

func respond(c *gin.Context, res *planner.Result, err error) {
	if err == nil {
		c.JSON(http.StatusOK, newResponse(res))
		return
	}

	var (
		exceeded  *quota.ExceededError
		chargeErr *planner.ChargeError
	)

	switch {
	case errors.Is(err, plan.ErrInvalidRequest):
		apierrors.ValidationError(c, err)

	case errors.As(err, &exceeded):
		apierrors.QuotaExceeded(c, exceeded.RetryAfterSeconds())

	case errors.Is(err, planner.ErrNoBalance):
		apierrors.InsufficientBalance(c)

	case errors.As(err, &chargeErr) && res != nil:
		if errors.Is(chargeErr, accounts.ErrInsufficientBalance) {
			apierrors.ChargeFailed(c, err, newResponse(res))
			return
		}

		// the plan is already persisted; a pricing or logging problem is ours, not the user's
		logger.ErrorErr(err, "plan delivered without charge", "user_id", c.GetString("user_id"))
		c.JSON(http.StatusOK, newResponse(res))

	case errors.Is(err, shape.ErrShapeMismatch):
		apierrors.ShapeMismatch(c, err)

	case errors.Is(err, planner.ErrAIParse):
		apierrors.AIParseError(c, err)

	case errors.Is(err, planner.ErrUpstreamUnavailable):
		apierrors.UpstreamUnavailable(c, err)

	default:
		apierrors.InternalError(c, "failed to generate plan", err)
	}
}
