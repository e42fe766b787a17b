package errors

import (
	"net/http"
	"strconv"

	"codeberg.org/fitcoach/server/internal/logger"
	"github.com/gin-gonic/gin"
)

// Error Handling Guidelines:
//
// For HTTP REST handlers:
//   - Use errors.InternalError(), errors.BadRequest(), etc. for request-ending errors;
//     these helpers write the response and, for 5xx, log the cause
//   - Use logger.ErrorErr() only for non-critical errors where processing continues
//   - Never call both logger.ErrorErr() and errors.InternalError() for the same error
//
// For services/repositories/internal packages:
//   - Return wrapped errors with context using fmt.Errorf("context: %w", err)
//   - Expose sentinel or typed errors so handlers can map them with errors.Is / errors.As
//   - Do not log errors in non-handler code unless the error is swallowed

// standard error codes
const (
	CodeUnauthorized        = "unauthorized"
	CodeForbidden           = "forbidden"
	CodeNotFound            = "not_found"
	CodeValidationError     = "validation_error"
	CodeServerError         = "server_error"
	CodeBadRequest          = "bad_request"
	CodeTooManyRequests     = "too_many_requests"
	CodeQuotaExceeded       = "quota_exceeded"
	CodeInsufficientBalance = "insufficient_balance"
	CodeChargeFailed        = "charge_failed"
	CodeAIParseError        = "ai_parse_error"
	CodeShapeMismatch       = "shape_mismatch"
	CodeUpstreamUnavailable = "upstream_unavailable"
	CodeInvalidSignature    = "invalid_signature"
	CodeBillingUnavailable  = "billing_unavailable"
	CodePayloadTooLarge     = "payload_too_large"
)

func respond(c *gin.Context, status int, code string, err error) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   code,
		Message: Localize(c, code, code),
		Details: sanitizeError(err),
	})
}

// returns a 401 unauthorized error
func Unauthorized(c *gin.Context) {
	respond(c, http.StatusUnauthorized, CodeUnauthorized, nil)
}

// returns a 403 forbidden error
func Forbidden(c *gin.Context) {
	respond(c, http.StatusForbidden, CodeForbidden, nil)
}

// returns a 404 not found error
func NotFound(c *gin.Context) {
	respond(c, http.StatusNotFound, CodeNotFound, nil)
}

// returns a 400 bad request error
func BadRequest(c *gin.Context, err error) {
	respond(c, http.StatusBadRequest, CodeBadRequest, err)
}

// returns a 400 for binding/validation failures; rejected before any side effect
func ValidationError(c *gin.Context, err error) {
	respond(c, http.StatusBadRequest, CodeValidationError, err)
}

// returns a 500 internal server error and logs the cause
func InternalError(c *gin.Context, message string, err error) {
	logger.ErrorErr(err, message,
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"user_id", c.GetString("user_id"),
	)

	respond(c, http.StatusInternalServerError, CodeServerError, err)
}

// returns a 429 for the HTTP rate limiter
func TooManyRequests(c *gin.Context) {
	respond(c, http.StatusTooManyRequests, CodeTooManyRequests, nil)
}

// returns a 429 with a Retry-After hint when the daily generation quota is spent
func QuotaExceeded(c *gin.Context, retryAfterSeconds int) {
	if retryAfterSeconds < 1 {
		retryAfterSeconds = 1
	}

	c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
		Error:      CodeQuotaExceeded,
		Message:    Localize(c, CodeQuotaExceeded, "quota exceeded"),
		RetryAfter: retryAfterSeconds,
	})
}

// returns a 402 when a metered account has no effective balance
func InsufficientBalance(c *gin.Context) {
	respond(c, http.StatusPaymentRequired, CodeInsufficientBalance, nil)
}

// returns a 502 when the model output could not be parsed after the retry
func AIParseError(c *gin.Context, err error) {
	logger.Warn("ai output rejected", "user_id", c.GetString("user_id"), "error", err)
	respond(c, http.StatusBadGateway, CodeAIParseError, err)
}

// returns a 502 when the model kept returning the wrong number of days
func ShapeMismatch(c *gin.Context, err error) {
	logger.Warn("ai output shape mismatch", "user_id", c.GetString("user_id"), "error", err)
	respond(c, http.StatusBadGateway, CodeShapeMismatch, err)
}

// returns a 503 for transient model-provider failures
func UpstreamUnavailable(c *gin.Context, err error) {
	logger.Warn("ai upstream unavailable", "user_id", c.GetString("user_id"), "error", err)
	respond(c, http.StatusServiceUnavailable, CodeUpstreamUnavailable, err)
}

// returns a 400 when a webhook signature does not verify
func InvalidSignature(c *gin.Context, err error) {
	respond(c, http.StatusBadRequest, CodeInvalidSignature, err)
}

// returns a 413 when the request body exceeds the accepted size
func PayloadTooLarge(c *gin.Context, err error) {
	respond(c, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, err)
}

// returns a 503 when the billing platform could not be reached
func BillingUnavailable(c *gin.Context, err error) {
	logger.ErrorErr(err, "billing platform unavailable", "user_id", c.GetString("user_id"))
	respond(c, http.StatusServiceUnavailable, CodeBillingUnavailable, err)
}

// returns a 402 when the plan was delivered but its cost could not be debited;
// result carries the plan so the client still gets it
func ChargeFailed(c *gin.Context, err error, result any) {
	logger.Warn("post-generation charge failed", "user_id", c.GetString("user_id"), "error", err)

	c.AbortWithStatusJSON(http.StatusPaymentRequired, ErrorResponse{
		Error:   CodeChargeFailed,
		Message: Localize(c, CodeChargeFailed, CodeChargeFailed),
		Details: sanitizeError(err),
		Result:  result,
	})
}
