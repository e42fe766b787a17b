// Package metering turns model usage into token-balance debits.
package metering

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultModel is the pricing entry used for models with no entry of their own
const DefaultModel = "*"

var ErrModelPricingMissing = errors.New("no pricing configured for model")

var thousand = decimal.NewFromInt(1000)

// balance units charged per 1000 tokens
type Rate struct {
	InputPer1K  decimal.Decimal `json:"input"`
	OutputPer1K decimal.Decimal `json:"output"`
}

// token counts reported by one completed model call
type Usage struct {
	Model        string
	InputTokens  int
	OutputTokens int
}

// model id -> rate. loaded once at startup and handed to the Meter.
type PricingTable struct {
	rates map[string]Rate
}

// one unit per token for anything not listed
func DefaultPricingTable() *PricingTable {
	return &PricingTable{rates: map[string]Rate{
		DefaultModel: {InputPer1K: decimal.NewFromInt(1000), OutputPer1K: decimal.NewFromInt(1000)},
	}}
}

// parses a JSON object of model -> {"input": n, "output": n}. an empty
// string yields the default table.
func LoadPricingTable(raw string) (*PricingTable, error) {
	if strings.TrimSpace(raw) == "" {
		return DefaultPricingTable(), nil
	}

	var rates map[string]Rate
	if err := json.Unmarshal([]byte(raw), &rates); err != nil {
		return nil, fmt.Errorf("invalid pricing table: %w", err)
	}

	if len(rates) == 0 {
		return nil, fmt.Errorf("invalid pricing table: no models")
	}

	for model, r := range rates {
		if r.InputPer1K.IsNegative() || r.OutputPer1K.IsNegative() {
			return nil, fmt.Errorf("invalid pricing table: negative rate for %s", model)
		}
	}

	return &PricingTable{rates: rates}, nil
}

func (t *PricingTable) rate(model string) (Rate, error) {
	if r, ok := t.rates[model]; ok {
		return r, nil
	}

	if r, ok := t.rates[DefaultModel]; ok {
		return r, nil
	}

	return Rate{}, fmt.Errorf("%w: %s", ErrModelPricingMissing, model)
}

// whole units owed for u, rounded up so no call is ever free by truncation
func (t *PricingTable) Cost(u Usage) (int64, error) {
	if u.InputTokens < 0 || u.OutputTokens < 0 {
		return 0, fmt.Errorf("negative token usage for %s", u.Model)
	}

	r, err := t.rate(u.Model)
	if err != nil {
		return 0, err
	}

	in := decimal.NewFromInt(int64(u.InputTokens)).Mul(r.InputPer1K)
	out := decimal.NewFromInt(int64(u.OutputTokens)).Mul(r.OutputPer1K)

	return in.Add(out).Div(thousand).Ceil().IntPart(), nil
}
