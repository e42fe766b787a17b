package plans

import (
	"time"

	"codeberg.org/fitcoach/server/internal/plan"
	"codeberg.org/fitcoach/server/internal/planner"
)

// Response is returned by both generation endpoints. the token fields are null
// for tiers that are not metered.
type Response struct {
	PlanID         string         `json:"planId,omitempty"`
	Plan           *plan.Plan     `json:"plan"`
	Source         planner.Source `json:"source"`
	TokenBalance   *int64         `json:"tokenBalance"`
	TokenRenewalAt *time.Time     `json:"tokenRenewalAt"`
}

func newResponse(res *planner.Result) Response {
	out := Response{
		PlanID: res.RecordID,
		Plan:   res.Plan,
		Source: res.Source,
	}

	if res.Metered {
		balance := res.TokenBalance
		out.TokenBalance = &balance
		out.TokenRenewalAt = res.TokenRenewalAt
	}

	return out
}
