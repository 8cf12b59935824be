package backendstub

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Request-body schemas for the wire contract. The stub rejects anything that
// does not validate, so contract tests catch a drifting client immediately.
var requestSchemas = map[string]string{
	"start-lab": `{
		"type": "object",
		"required": ["user_id"],
		"properties": {"user_id": {"type": "string", "minLength": 1}},
		"additionalProperties": false
	}`,
	"stop-lab": `{
		"type": "object",
		"required": ["user_id", "lab_name"],
		"properties": {
			"user_id": {"type": "string", "minLength": 1},
			"lab_name": {"type": "string", "minLength": 1}
		},
		"additionalProperties": false
	}`,
	"answer": `{
		"type": "object",
		"required": ["user_id", "answer"],
		"properties": {
			"user_id": {"type": "string", "minLength": 1},
			"answer": {"type": "string"}
		},
		"additionalProperties": false
	}`,
	"hint": `{
		"type": "object",
		"required": ["user_id"],
		"properties": {"user_id": {"type": "string", "minLength": 1}},
		"additionalProperties": false
	}`,
	"chat": `{
		"type": "object",
		"required": ["message", "user_id"],
		"properties": {
			"message": {"type": "string", "minLength": 1},
			"user_id": {"type": "string", "minLength": 1}
		},
		"additionalProperties": false
	}`,
}

var schemaCache sync.Map // map[string]*jsonschema.Schema

// validateBody checks raw against the named request schema and returns the
// parsed body on success.
func validateBody(name string, raw []byte) (map[string]any, error) {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	compiled, err := compiledSchema(name)
	if err != nil {
		return nil, err
	}
	if err := compiled.Validate(parsed); err != nil {
		return nil, fmt.Errorf("body does not match %s schema: %w", name, err)
	}

	body, ok := parsed.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("body is not an object")
	}
	return body, nil
}

func compiledSchema(name string) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	src, ok := requestSchemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}

	var def any
	if err := json.Unmarshal([]byte(src), &def); err != nil {
		return nil, fmt.Errorf("parse schema %q: %w", name, err)
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", name)
	if err := c.AddResource(url, def); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", name, err)
	}

	schemaCache.Store(name, compiled)
	return compiled, nil
}
