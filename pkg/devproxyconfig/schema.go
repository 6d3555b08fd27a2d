package devproxyconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// configSchema is the JSON Schema for the top-level configuration document
// (§6). It only constrains the shape every config file must have
// (urlsToWatch, plugins) and stays permissive about unknown keys.
// Per-plugin sections are not checked here, and loading a config does not
// call the plugin packages' Validate() methods.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "devproxy configuration",
  "type": "object",
  "required": ["urlsToWatch"],
  "properties": {
    "urlsToWatch": {
      "type": "array",
      "items": { "type": "string" }
    },
    "plugins": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "enabled"],
        "properties": {
          "name": { "type": "string" },
          "enabled": { "type": "boolean" },
          "configSection": { "type": "string" }
        }
      }
    }
  }
}`

var (
	schemaOnce  sync.Once
	schemaValue *jsonschema.Schema
	schemaErr   error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("devproxy-config.json", bytes.NewReader([]byte(configSchema))); err != nil {
			schemaErr = fmt.Errorf("devproxyconfig: load schema resource: %w", err)
			return
		}
		schemaValue, schemaErr = compiler.Compile("devproxy-config.json")
	})
	return schemaValue, schemaErr
}

// ValidateSchema checks raw JSON document bytes against the configuration
// schema, independent of whether the document unmarshals cleanly into
// Config (unknown fields are allowed; missing required fields are not).
func ValidateSchema(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}
	return nil
}
