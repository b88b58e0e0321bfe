// Package schema derives JSON schemas from Go structs and validates model
// output against them. Validation is all-or-nothing: a value either fully
// satisfies the declared schema or the check fails with a
// core.SchemaMismatchError carrying the dotted path of the offending field.
package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/hupe1980/modelbridge/core"
)

// FromStruct creates a JSON schema from a Go struct using reflection.
// Field names follow the json tag; a `description` tag becomes the schema
// description. Pointer and omitempty fields are optional, everything else
// is required. Nested structs, slices and maps are expanded recursively.
func FromStruct(structType any) map[string]any {
	t := reflect.TypeOf(structType)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return typeSchema(t)
}

func typeSchema(t reflect.Type) map[string]any {
	switch t.Kind() {
	case reflect.Ptr:
		return typeSchema(t.Elem())
	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Slice, reflect.Array:
		return map[string]any{"type": "array", "items": typeSchema(t.Elem())}
	case reflect.Map:
		return map[string]any{"type": "object"}
	case reflect.Struct:
		properties := make(map[string]any)
		required := make([]string, 0)
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			jsonTag := field.Tag.Get("json")
			if jsonTag == "-" {
				continue
			}
			fieldName := field.Name
			tagParts := strings.Split(jsonTag, ",")
			if tagParts[0] != "" {
				fieldName = tagParts[0]
			}
			fieldSchema := typeSchema(field.Type)
			if description := field.Tag.Get("description"); description != "" {
				fieldSchema["description"] = description
			}
			properties[fieldName] = fieldSchema
			if !hasOmitEmpty(jsonTag) && field.Type.Kind() != reflect.Ptr {
				required = append(required, fieldName)
			}
		}
		s := map[string]any{"type": "object", "properties": properties}
		if len(required) > 0 {
			s["required"] = required
		}
		return s
	default:
		return map[string]any{"type": "string"}
	}
}

// hasOmitEmpty checks if a JSON tag has the "omitempty" option.
func hasOmitEmpty(tag string) bool {
	parts := strings.Split(tag, ",")
	for _, part := range parts[1:] {
		if strings.TrimSpace(part) == "omitempty" {
			return true
		}
	}
	return false
}

// Validate checks value against schema. It returns nil on full conformance
// and a *core.SchemaMismatchError describing the first violation otherwise.
func Validate(value any, schema map[string]any) error {
	return validate(value, schema, "")
}

func validate(value any, schema map[string]any, path string) error {
	expectedType, _ := schema["type"].(string)

	if value == nil {
		// Absent optional values are validated by the required check of the
		// enclosing object, not here.
		return nil
	}

	switch expectedType {
	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			return mismatch(path, fmt.Sprintf("expected object, got %T", value))
		}
		for _, req := range requiredFields(schema) {
			if _, exists := obj[req]; !exists {
				return mismatch(joinPath(path, req), "required field is missing")
			}
		}
		properties, _ := schema["properties"].(map[string]any)
		for fieldName, fieldValue := range obj {
			propSchema, exists := properties[fieldName]
			if !exists {
				continue // extra fields are tolerated
			}
			propMap, ok := propSchema.(map[string]any)
			if !ok {
				continue
			}
			if err := validate(fieldValue, propMap, joinPath(path, fieldName)); err != nil {
				return err
			}
		}
		return nil
	case "array":
		arr, ok := value.([]any)
		if !ok {
			return mismatch(path, fmt.Sprintf("expected array, got %T", value))
		}
		items, _ := schema["items"].(map[string]any)
		if items == nil {
			return nil
		}
		for i, elem := range arr {
			if err := validate(elem, items, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	case "string":
		if _, ok := value.(string); !ok {
			return mismatch(path, fmt.Sprintf("expected string, got %T", value))
		}
		return validateEnum(value, schema, path)
	case "integer":
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return nil
		case float64: // JSON decoding produces float64 for all numbers
			if v == float64(int64(v)) {
				return nil
			}
		}
		return mismatch(path, fmt.Sprintf("expected integer, got %v", value))
	case "number":
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
			float32, float64:
			return nil
		}
		return mismatch(path, fmt.Sprintf("expected number, got %T", value))
	case "boolean":
		if _, ok := value.(bool); !ok {
			return mismatch(path, fmt.Sprintf("expected boolean, got %T", value))
		}
		return nil
	default:
		return nil // unknown types are assumed valid
	}
}

func validateEnum(value any, schema map[string]any, path string) error {
	enum, ok := schema["enum"].([]any)
	if !ok {
		if strEnum, ok := schema["enum"].([]string); ok {
			for _, e := range strEnum {
				enum = append(enum, e)
			}
		}
	}
	if len(enum) == 0 {
		return nil
	}
	for _, allowed := range enum {
		if value == allowed {
			return nil
		}
	}
	return mismatch(path, fmt.Sprintf("value %v not in enum", value))
}

func requiredFields(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		fields := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				fields = append(fields, s)
			}
		}
		return fields
	default:
		return nil
	}
}

func mismatch(path, msg string) error {
	return &core.SchemaMismatchError{Path: path, Message: msg}
}

func joinPath(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}
