package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema generates the JSON Schema for the streamer-mode settings section.
// Every property is optional; unset values fall back to DefaultSettings.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		// Other consumers may keep their own keys next to ours.
		AllowAdditionalProperties:  true,
		ExpandedStruct:             true,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
		// Use YAML field names for property names
		FieldNameTag: "yaml",
	}

	schema := r.Reflect(&Settings{})
	schema.ID = ""
	schema.Title = "Streamer Mode Settings"
	schema.Description = "Schema for the 'streamer-mode' section of a settings document."
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return json.MarshalIndent(schema, "", "  ")
}
