package appconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "seqLen":          { "type": "integer", "minimum": 1 },
    "batchSize":       { "type": "integer", "minimum": 1 },
    "includeTokenIds": { "type": "boolean" },
    "nbInputs":        { "type": "integer", "minimum": 1 },
    "warmup":          { "type": "integer", "minimum": 0 },
    "device":          { "type": "string", "enum": ["cpu", "cuda"] },
    "logLevel":        { "type": "string" },
    "logFile":         { "type": "string" },
    "resultsDir":      { "type": "string", "minLength": 1 },
    "tolerance":       { "type": "number", "minimum": 0 }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(configSchema)

// ValidateFile checks the config file at path against the schema, so keys
// the Config struct does not know are rejected before decoding drops them.
func ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file %q: %w", path, err)
	}
	if err := validateDocument(data); err != nil {
		return fmt.Errorf("config file %q: %w", path, err)
	}
	return nil
}

// validateDocument checks a raw JSON config file against the schema.
func validateDocument(data []byte) error {
	return validate(gojsonschema.NewBytesLoader(data))
}

// validateValue checks an already decoded Config against the schema.
func validateValue(cfg Config) error {
	return validate(gojsonschema.NewGoLoader(cfg))
}

func validate(doc gojsonschema.JSONLoader) error {
	result, err := gojsonschema.Validate(schemaLoader, doc)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var details []string
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(details, "; "))
}
