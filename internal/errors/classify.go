package errors

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// error categories for classification
const (
	CategoryDatabase   = "database"
	CategoryNetwork    = "network"
	CategoryValidation = "validation"
	CategoryAuth       = "auth"
	CategoryNotFound   = "not_found"
	CategoryTimeout    = "timeout"
	CategoryUnknown    = "unknown"
)

// debug detail is only exposed in development
func isDevelopment() bool {
	env := os.Getenv("ENVIRONMENT")
	return env == "" || env == "development"
}

// analyzes an error and returns its category and sanitized message
func classifyError(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{CategoryUnknown, ""}
	}

	dev := isDevelopment()

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return ErrorInfo{CategoryDatabase, ternary(dev, err.Error(), "database operation failed")}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrorInfo{CategoryNotFound, ternary(dev, err.Error(), "resource not found")}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorInfo{CategoryTimeout, ternary(dev, err.Error(), "request timed out")}
	}

	if errors.Is(err, context.Canceled) {
		return ErrorInfo{CategoryTimeout, ternary(dev, err.Error(), "request canceled")}
	}

	// fallback to string matching for errors without a typed sentinel
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return ErrorInfo{CategoryTimeout, ternary(dev, err.Error(), "request timed out")}
	case strings.Contains(msg, "not found") || strings.Contains(msg, "no rows"):
		return ErrorInfo{CategoryNotFound, ternary(dev, err.Error(), "resource not found")}
	case strings.Contains(msg, "database") || strings.Contains(msg, "sql") ||
		strings.Contains(msg, "postgres") || strings.Contains(msg, "pgx") || strings.Contains(msg, "redis"):
		return ErrorInfo{CategoryDatabase, ternary(dev, err.Error(), "database operation failed")}
	case strings.Contains(msg, "connection") || strings.Contains(msg, "network") || strings.Contains(msg, "dial"):
		return ErrorInfo{CategoryNetwork, ternary(dev, err.Error(), "connection error occurred")}
	case strings.Contains(msg, "validation") || strings.Contains(msg, "binding") ||
		strings.Contains(msg, "invalid") || strings.Contains(msg, "required"):
		return ErrorInfo{CategoryValidation, ternary(dev, err.Error(), "validation failed")}
	case strings.Contains(msg, "unauthorized") || strings.Contains(msg, "forbidden") ||
		strings.Contains(msg, "permission"):
		return ErrorInfo{CategoryAuth, ternary(dev, err.Error(), "permission denied")}
	}

	return ErrorInfo{CategoryUnknown, ternary(dev, err.Error(), "an error occurred")}
}

func sanitizeError(err error) string {
	return classifyError(err).sanitized
}

func ternary(condition bool, trueVal, falseVal string) string {
	if condition {
		return trueVal
	}

	return falseVal
}
