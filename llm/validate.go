package llm

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance used across the package.
var validate = validator.New()

// Validate checks if the given struct is valid according to its validation rules.
//
// Example:
//
//	type reply struct {
//	    Text  *string  `json:"text" validate:"required"`
//	    Score *float64 `json:"score" validate:"required"`
//	}
//
//	if err := Validate(&r); err != nil {
//	    return err
//	}
func Validate(s any) error {
	return validate.Struct(s)
}

// ValidateAgainstSchema validates a JSON response against a JSON schema.
// Only the subset needed for structured replies is checked: object properties,
// required keys, arrays and primitive types. null never satisfies a typed property.
func ValidateAgainstSchema(response string, schema any) error {
	var responseData any
	if err := json.Unmarshal([]byte(response), &responseData); err != nil {
		return fmt.Errorf("failed to parse response JSON: %w", err)
	}

	var schemaMap map[string]any
	switch s := schema.(type) {
	case string:
		if err := json.Unmarshal([]byte(s), &schemaMap); err != nil {
			return fmt.Errorf("failed to parse schema JSON string: %w", err)
		}
	case []byte:
		if err := json.Unmarshal(s, &schemaMap); err != nil {
			return fmt.Errorf("failed to parse schema JSON bytes: %w", err)
		}
	case map[string]any:
		schemaMap = s
	default:
		schemaBytes, err := json.Marshal(schema)
		if err != nil {
			return fmt.Errorf("failed to marshal schema: %w", err)
		}
		if err := json.Unmarshal(schemaBytes, &schemaMap); err != nil {
			return fmt.Errorf("failed to parse schema JSON: %w", err)
		}
	}

	if err := validateJSONAgainstSchema(responseData, schemaMap); err != nil {
		return fmt.Errorf("response does not match schema: %w", err)
	}
	return nil
}

func validateJSONAgainstSchema(data any, schema map[string]any) error {
	schemaType, ok := schema["type"].(string)
	if !ok {
		return fmt.Errorf("schema missing 'type' field")
	}

	switch schemaType {
	case "object":
		return validateObject(data, schema)
	case "array":
		return validateArray(data, schema)
	case "string", "number", "integer", "boolean":
		return validatePrimitive(data, schemaType)
	default:
		return fmt.Errorf("unsupported schema type: %s", schemaType)
	}
}

func validateObject(data any, schema map[string]any) error {
	dataMap, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("expected object, got %T", data)
	}

	if required, ok := schema["required"].([]any); ok {
		for _, req := range required {
			key, _ := req.(string)
			if _, exists := dataMap[key]; !exists {
				return fmt.Errorf("missing required field: %s", key)
			}
		}
	}

	properties, ok := schema["properties"].(map[string]any)
	if !ok {
		return fmt.Errorf("invalid 'properties' in schema")
	}
	for key, propSchema := range properties {
		propData, exists := dataMap[key]
		if !exists {
			continue
		}
		propMap, ok := propSchema.(map[string]any)
		if !ok {
			return fmt.Errorf("invalid schema for field '%s'", key)
		}
		if err := validateJSONAgainstSchema(propData, propMap); err != nil {
			return fmt.Errorf("invalid field '%s': %w", key, err)
		}
	}
	return nil
}

func validateArray(data any, schema map[string]any) error {
	dataSlice, ok := data.([]any)
	if !ok {
		return fmt.Errorf("expected array, got %T", data)
	}

	items, ok := schema["items"].(map[string]any)
	if !ok {
		return fmt.Errorf("invalid 'items' in schema")
	}
	for i, item := range dataSlice {
		if err := validateJSONAgainstSchema(item, items); err != nil {
			return fmt.Errorf("invalid item at index %d: %w", i, err)
		}
	}
	return nil
}

func validatePrimitive(data any, expectedType string) error {
	switch expectedType {
	case "string":
		if _, ok := data.(string); !ok {
			return fmt.Errorf("expected string, got %T", data)
		}
	case "number":
		if _, ok := data.(float64); !ok {
			return fmt.Errorf("expected number, got %T", data)
		}
	case "integer":
		f, ok := data.(float64)
		if !ok {
			return fmt.Errorf("expected integer, got %T", data)
		}
		if f != float64(int64(f)) {
			return fmt.Errorf("expected integer, got %v", f)
		}
	case "boolean":
		if _, ok := data.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", data)
		}
	}
	return nil
}
