package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/grovetools/streamer-mode/config"
	"github.com/grovetools/streamer-mode/errors"
)

const resourceName = "streamer-mode.json"

// Validator validates the streamer-mode settings section against the schema
// generated from config.Settings.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator generates and compiles the settings schema.
func NewValidator() (*Validator, error) {
	data, err := config.GenerateSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to generate settings schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resourceName, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to add settings schema resource: %w", err)
	}

	schema, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to compile settings schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// Validate validates a settings section. It accepts anything that marshals to
// JSON: a decoded document map or a config.Settings value.
func (v *Validator) Validate(section interface{}) error {
	// Round-trip through JSON so YAML and TOML numeric types look like JSON numbers.
	jsonData, err := json.Marshal(section)
	if err != nil {
		return fmt.Errorf("failed to marshal settings to JSON for validation: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(jsonData))
	decoder.UseNumber()
	var dataToValidate interface{}
	if err := decoder.Decode(&dataToValidate); err != nil {
		return fmt.Errorf("failed to unmarshal JSON for validation: %w", err)
	}

	if err := v.schema.Validate(dataToValidate); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			var errorMessages []string
			collectErrors(validationErr, &errorMessages)
			cause := fmt.Errorf("schema validation failed:\n%s", strings.Join(errorMessages, "\n"))
			return errors.Wrap(cause, errors.ErrCodeConfigInvalid, "settings do not match the schema")
		}
		return fmt.Errorf("schema validation failed: %w", err)
	}

	return nil
}

// ValidateStore validates the effective streamer-mode section of a store.
// A store without the section is valid.
func (v *Validator) ValidateStore(store config.Store) error {
	raw, ok := store.Get(config.Section, "")
	if !ok {
		return nil
	}
	return v.Validate(raw)
}

// collectErrors recursively collects all validation errors into a slice
func collectErrors(err *jsonschema.ValidationError, messages *[]string) {
	if err.InstanceLocation != "" {
		*messages = append(*messages, fmt.Sprintf("- %s: %s", err.InstanceLocation, err.Message))
	}
	for _, cause := range err.Causes {
		collectErrors(cause, messages)
	}
}
