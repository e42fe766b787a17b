package errors

// standardized error body returned by every handler
type ErrorResponse struct {
	Error      string `json:"error"`                // machine-readable code (e.g. "quota_exceeded")
	Message    string `json:"message"`              // localized user-facing message
	Details    string `json:"details,omitempty"`    // sanitized outside development
	RetryAfter int    `json:"retryAfter,omitempty"` // seconds, mirrors the Retry-After header
	Result     any    `json:"result,omitempty"`
}

type ErrorInfo struct {
	category  string
	sanitized string
}
