package testutil

import (
	"encoding/json"
	"strings"
	"testing"
)

// volatileFields are dropped before golden comparison.
var volatileFields = map[string]bool{
	"created_at":   true,
	"indexed_at":   true,
	"generated_at": true,
	"duration_ms":  true,
	"elapsed":      true,
	"version":      true,
	"snapshot":     true,
}

// Normalize deep-copies data through JSON, drops volatile fields and
// replaces root (when non-empty) with "<root>" in every string.
func Normalize(t *testing.T, root string, data any) any {
	t.Helper()

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("Failed to marshal data for normalization: %v", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("Failed to unmarshal data for normalization: %v", err)
	}
	return normalizeValue(generic, root)
}

func normalizeValue(v any, root string) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if volatileFields[k] {
				continue
			}
			out[k] = normalizeValue(item, root)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item, root)
		}
		return out
	case string:
		if root != "" {
			val = strings.ReplaceAll(val, root, "<root>")
		}
		return strings.ReplaceAll(val, "\\", "/")
	default:
		return v
	}
}

// MarshalNormalized normalizes data and renders it as indented JSON with a
// trailing newline. encoding/json sorts map keys, so output is stable.
func MarshalNormalized(t *testing.T, root string, data any) []byte {
	t.Helper()

	out, err := json.MarshalIndent(Normalize(t, root, data), "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal normalized data: %v", err)
	}
	return append(out, '\n')
}
