// Package config handles configuration loading and validation for expandd.
package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// profileSchema constrains user-authored profile files before they are
// unmarshaled: unknown keys and mistyped filters fail here with a
// readable error instead of silently producing a dead profile.
const profileSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "expandd application profile",
  "type": "object",
  "properties": {
    "name": { "type": "string", "minLength": 1 },
    "filter_class": { "type": "string", "format": "regex" },
    "filter_title": { "type": "string", "format": "regex" },
    "filter_exec": { "type": "string", "format": "regex" },
    "suppress_on_secure_input": { "type": "boolean" },
    "priority": { "type": "integer" }
  },
  "anyOf": [
    { "required": ["filter_class"] },
    { "required": ["filter_title"] },
    { "required": ["filter_exec"] }
  ],
  "additionalProperties": false
}`

var (
	compiledProfileSchema     *jsonschema.Schema
	compiledProfileSchemaErr  error
	compiledProfileSchemaOnce sync.Once
)

// compileProfileSchema compiles the embedded schema once, read-only
// thereafter. Format assertion is on so the regex filters are checked
// here, not just annotated.
func compileProfileSchema() (*jsonschema.Schema, error) {
	compiledProfileSchemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.AssertFormat = true
		if err := c.AddResource("profile.schema.json", strings.NewReader(profileSchema)); err != nil {
			compiledProfileSchemaErr = err
			return
		}
		compiledProfileSchema, compiledProfileSchemaErr = c.Compile("profile.schema.json")
	})
	return compiledProfileSchema, compiledProfileSchemaErr
}

// validateProfileDocument checks a raw YAML profile document against the
// embedded schema.
func validateProfileDocument(data []byte) error {
	schema, err := compileProfileSchema()
	if err != nil {
		return fmt.Errorf("compile profile schema: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}

	// Round-trip through JSON so the instance carries the value types
	// the validator expects.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("normalize document: %w", err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("normalize document: %w", err)
	}

	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	return nil
}
