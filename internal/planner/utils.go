package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"codeberg.org/fitcoach/server/internal/plan"
)

// pulls the JSON object out of a model answer and decodes it. the answer
// may be wrapped in a markdown fence or surrounded by prose.
func decodePlan(text string) (*plan.Plan, error) {
	raw := extractJSON(text)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object in model output", plan.ErrSchema)
	}

	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("%w: model output is not valid JSON", plan.ErrSchema)
	}

	if !gjson.Get(raw, "days").IsArray() {
		return nil, fmt.Errorf("%w: model output has no days array", plan.ErrSchema)
	}

	var p plan.Plan
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", plan.ErrSchema, err)
	}

	return &p, nil
}

func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.Count(text, "```") >= 2 {
		if fenced := extractFromFence(text); fenced != "" {
			text = fenced
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return ""
	}

	return text[start : end+1]
}

// extracts content from the first markdown fence pair; empty when malformed
func extractFromFence(response string) string {
	startIdx := strings.Index(response, "```")
	if startIdx == -1 {
		return ""
	}

	// find end of opening fence line (skip language identifier)
	afterStart := startIdx + 3
	newlineIdx := strings.Index(response[afterStart:], "\n")
	if newlineIdx == -1 {
		return ""
	}
	contentStart := afterStart + newlineIdx + 1

	endIdx := strings.Index(response[contentStart:], "```")
	if endIdx == -1 {
		return ""
	}

	return strings.TrimSpace(response[contentStart : contentStart+endIdx])
}
