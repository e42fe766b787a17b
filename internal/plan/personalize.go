package plan

import (
	"encoding/json"
	"fmt"
	"regexp"
)

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z][a-zA-Z0-9_]*)\}`)

// returns a new plan where every {key} token in any string field is replaced
// by values[key]; unknown placeholders are left untouched and p is not modified
func Personalize(p *Plan, values map[string]string) (*Plan, error) {
	if p == nil {
		return nil, nil
	}

	if len(values) == 0 {
		return p.Clone(), nil
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan for personalization: %w", err)
	}

	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("failed to decode plan for personalization: %w", err)
	}

	raw, err = json.Marshal(substitute(tree, values))
	if err != nil {
		return nil, fmt.Errorf("failed to encode personalized plan: %w", err)
	}

	var out Plan
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode personalized plan: %w", err)
	}

	return &out, nil
}

func substitute(node any, values map[string]string) any {
	switch v := node.(type) {
	case string:
		return replacePlaceholders(v, values)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = substitute(item, values)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = substitute(item, values)
		}
		return out
	default:
		return v
	}
}

func replacePlaceholders(s string, values map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(token string) string {
		key := token[1 : len(token)-1]
		if value, ok := values[key]; ok {
			return value
		}

		return token
	})
}
