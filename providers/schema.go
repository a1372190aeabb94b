package providers

import (
	"encoding/json"
	"fmt"
	"strings"
)

// normalizeSchema turns any schema value (struct, *jsonschema.Schema, map, JSON
// bytes or string) into a generic map and removes keys listed in drop at every level.
func normalizeSchema(schema any, drop ...string) (map[string]any, error) {
	var raw []byte
	switch s := schema.(type) {
	case string:
		raw = []byte(s)
	case []byte:
		raw = s
	default:
		b, err := json.Marshal(schema)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal schema: %w", err)
		}
		raw = b
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("schema is not a JSON object: %w", err)
	}

	dropSet := make(map[string]bool, len(drop))
	for _, k := range drop {
		dropSet[k] = true
	}
	pruneSchema(m, dropSet, nil)
	return m, nil
}

func pruneSchema(m map[string]any, drop map[string]bool, transformType func(string) string) {
	for k, v := range m {
		if drop[k] {
			delete(m, k)
			continue
		}
		switch val := v.(type) {
		case map[string]any:
			if k == "properties" {
				for _, prop := range val {
					if pm, ok := prop.(map[string]any); ok {
						pruneSchema(pm, drop, transformType)
					}
				}
				continue
			}
			pruneSchema(val, drop, transformType)
		case string:
			if k == "type" && transformType != nil {
				m[k] = transformType(val)
			}
		}
	}
}

// geminiSchema adapts a JSON schema to the OpenAPI subset accepted by
// generationConfig.responseSchema: no $schema/$id/additionalProperties, upper-case types.
func geminiSchema(schema any) (map[string]any, error) {
	m, err := normalizeSchema(schema)
	if err != nil {
		return nil, err
	}
	drop := map[string]bool{"$schema": true, "$id": true, "$defs": true, "additionalProperties": true, "title": true}
	pruneSchema(m, drop, strings.ToUpper)
	return m, nil
}
