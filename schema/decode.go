package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Decode extracts a JSON document from raw model output, validates it
// against schema and unmarshals it into out. Models frequently wrap JSON in
// markdown fences or emit slightly malformed documents (single quotes,
// trailing commas); Decode strips fences and falls back to jsonrepair before
// giving up. Validation failures surface as *core.SchemaMismatchError, so a
// caller never receives a partially conforming object.
func Decode(raw string, schema map[string]any, out any) error {
	doc := stripFences(raw)

	var value any
	if err := json.Unmarshal([]byte(doc), &value); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(doc)
		if repairErr != nil {
			return fmt.Errorf("output is not valid JSON: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &value); err != nil {
			return fmt.Errorf("output is not valid JSON after repair: %w", err)
		}
		doc = repaired
	}

	if err := Validate(value, schema); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(doc), out); err != nil {
		return fmt.Errorf("decode into target: %w", err)
	}
	return nil
}

// stripFences removes a surrounding markdown code fence and any prose before
// the first opening brace / bracket.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	if start := strings.IndexAny(s, "{["); start > 0 {
		s = s[start:]
	}
	return s
}
