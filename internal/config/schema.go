package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// JSONSchema describes the two accepted forms of renderOptions
func (RenderOptions) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "object", Description: "Render options as an object"},
			{Type: "string", Description: "Render options as a JSON-encoded object"},
		},
	}
}

// Schema returns the JSON Schema of payloadgen.json
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
	}
	s := r.Reflect(&Config{})
	s.Title = "payloadgen configuration"
	return json.MarshalIndent(s, "", "  ")
}
