// Package fingerprint derives stable cache keys from plan requests.
package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashes planType and params into a hex key. params is serialized through a
// generic JSON tree so that object keys come out sorted at every level no
// matter how the caller ordered them; numbers are kept as written.
func Compute(planType string, params any) (string, error) {
	canonical, err := Canonical(map[string]any{
		"type":   planType,
		"params": params,
	})
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// returns the canonical JSON encoding of v
func Canonical(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fingerprint input: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("failed to decode fingerprint input: %w", err)
	}

	// encoding/json writes map keys in sorted order
	out, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize fingerprint input: %w", err)
	}

	return out, nil
}
