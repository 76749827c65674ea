package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const snapshotSchemaURL = "extraction.schema.json"

// BuildSnapshotSchema describes the JSON stored in documents.extracted_json.
func BuildSnapshotSchema() map[string]any {
	date := map[string]any{
		"type":    []any{"string", "null"},
		"pattern": `^\d{4}-\d{2}-\d{2}$`,
	}
	item := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"position", "code", "description", "unit", "quantity"},
		"properties": map[string]any{
			"position":    map[string]any{"type": "integer", "minimum": 0},
			"code":        map[string]any{"type": "string", "pattern": `^\d{2} \d{2} \d{2}$`},
			"description": map[string]any{"type": "string", "minLength": 1},
			"unit":        map[string]any{"type": "string", "pattern": `^[A-Z]{1,5}$`},
			"quantity":    map[string]any{"type": "string", "pattern": `^\d+\.\d{2}$`},
		},
	}
	pair := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"position", "label", "value"},
		"properties": map[string]any{
			"position": map[string]any{"type": "integer", "minimum": 0},
			"label":    map[string]any{"type": "string", "minLength": 1},
			"value":    map[string]any{"type": "string", "pattern": `^\d+(\.\d+)?$`},
		},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"tier", "start_date", "end_date", "line_items", "pairs"},
		"properties": map[string]any{
			"tier":       map[string]any{"type": "string", "enum": []any{"none", "labeled", "combined", "generic"}},
			"start_date": date,
			"end_date":   date,
			"line_items": map[string]any{"type": "array", "items": item},
			"pairs":      map[string]any{"type": "array", "items": pair},
		},
	}
}

// SnapshotValidator holds the compiled snapshot schema.
type SnapshotValidator struct {
	schema *jsonschema.Schema
}

func NewSnapshotValidator() (*SnapshotValidator, error) {
	b, err := json.Marshal(BuildSnapshotSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(snapshotSchemaURL, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(snapshotSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &SnapshotValidator{schema: schema}, nil
}

// Validate checks data against the snapshot schema.
func (v *SnapshotValidator) Validate(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("snapshot does not match schema: %w", err)
	}
	return nil
}
