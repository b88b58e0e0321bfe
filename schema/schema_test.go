package schema

import (
	"testing"

	"github.com/hupe1980/modelbridge/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recipe struct {
	Name  string   `json:"name" description:"Recipe title"`
	Steps []string `json:"steps" description:"Ordered preparation steps"`
	Notes *string  `json:"notes,omitempty"`
}

func TestFromStruct(t *testing.T) {
	s := FromStruct(recipe{})
	assert.Equal(t, "object", s["type"])

	props, ok := s["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "name")
	assert.Contains(t, props, "steps")
	assert.Contains(t, props, "notes")

	steps := props["steps"].(map[string]any)
	assert.Equal(t, "array", steps["type"])
	assert.Equal(t, map[string]any{"type": "string"}, steps["items"])
	assert.Equal(t, "Ordered preparation steps", steps["description"])

	req, _ := s["required"].([]string)
	assert.ElementsMatch(t, []string{"name", "steps"}, req)
}

func TestFromStruct_Nested(t *testing.T) {
	type inner struct {
		Qty int `json:"qty"`
	}
	type outer struct {
		Items []inner `json:"items"`
	}
	s := FromStruct(outer{})
	props := s["properties"].(map[string]any)
	items := props["items"].(map[string]any)
	innerSchema := items["items"].(map[string]any)
	assert.Equal(t, "object", innerSchema["type"])
	innerProps := innerSchema["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "integer"}, innerProps["qty"])
}

func TestValidate_Success(t *testing.T) {
	s := FromStruct(recipe{})
	err := Validate(map[string]any{
		"name":  "toast",
		"steps": []any{"slice bread", "toast it"},
	}, s)
	assert.NoError(t, err)
}

func TestValidate_MissingRequiredHasPath(t *testing.T) {
	s := FromStruct(recipe{})
	err := Validate(map[string]any{"name": "toast"}, s)
	require.Error(t, err)

	var mismatch *core.SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "steps", mismatch.Path)
}

func TestValidate_WrongElementTypeHasIndexedPath(t *testing.T) {
	s := FromStruct(recipe{})
	err := Validate(map[string]any{
		"name":  "toast",
		"steps": []any{"slice bread", 42.0},
	}, s)
	require.Error(t, err)

	var mismatch *core.SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "steps[1]", mismatch.Path)
}

func TestValidate_NestedPath(t *testing.T) {
	s := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"meta": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"count": map[string]any{"type": "integer"},
				},
				"required": []string{"count"},
			},
		},
		"required": []string{"meta"},
	}
	err := Validate(map[string]any{"meta": map[string]any{"count": "three"}}, s)
	require.Error(t, err)

	var mismatch *core.SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "meta.count", mismatch.Path)
}

func TestValidate_IntegerAcceptsWholeFloat(t *testing.T) {
	s := map[string]any{
		"type":       "object",
		"properties": map[string]any{"n": map[string]any{"type": "integer"}},
	}
	assert.NoError(t, Validate(map[string]any{"n": 3.0}, s))
	assert.Error(t, Validate(map[string]any{"n": 3.5}, s))
}

func TestValidate_Enum(t *testing.T) {
	s := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"unit": map[string]any{"type": "string", "enum": []any{"g", "ml"}},
		},
	}
	assert.NoError(t, Validate(map[string]any{"unit": "g"}, s))
	assert.Error(t, Validate(map[string]any{"unit": "cups"}, s))
}

func TestDecode_ValidJSON(t *testing.T) {
	var out recipe
	err := Decode(`{"name":"toast","steps":["a","b"]}`, FromStruct(recipe{}), &out)
	require.NoError(t, err)
	assert.Equal(t, "toast", out.Name)
	assert.Len(t, out.Steps, 2)
}

func TestDecode_FencedJSON(t *testing.T) {
	raw := "Here is the result:\n```json\n{\"name\":\"toast\",\"steps\":[\"a\"]}\n```"
	var out recipe
	err := Decode(raw, FromStruct(recipe{}), &out)
	require.NoError(t, err)
	assert.Equal(t, "toast", out.Name)
}

func TestDecode_RepairsMalformedJSON(t *testing.T) {
	// Single quotes and a trailing comma, the classic model output flaws.
	raw := `{'name': 'toast', 'steps': ['a', 'b'],}`
	var out recipe
	err := Decode(raw, FromStruct(recipe{}), &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out.Steps)
}

func TestDecode_SchemaMismatchNeverPartial(t *testing.T) {
	var out recipe
	err := Decode(`{"name":"toast","steps":"not-a-list"}`, FromStruct(recipe{}), &out)
	require.Error(t, err)

	var mismatch *core.SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "steps", mismatch.Path)
	// The target must not have been touched.
	assert.Empty(t, out.Name)
}
