package plancache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrMiss is returned by Get when nothing is stored under a fingerprint
var ErrMiss = errors.New("plan cache miss")

// one cached plan
type Entry struct {
	Fingerprint string          `json:"fingerprint"`
	PlanType    string          `json:"planType"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"createdAt"`
	LastUsedAt  time.Time       `json:"lastUsedAt"`
}

// content-addressed plan storage. Get marks the entry as used.
type Store interface {
	Get(ctx context.Context, fingerprint string) (*Entry, error)
	Put(ctx context.Context, fingerprint, planType string, payload []byte) error
}
