package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"
	"google.golang.org/genai"
)

// Type is a schema type in the upper-case spelling the Gemini API uses.
type Type string

const (
	TypeObject  Type = "OBJECT"
	TypeString  Type = "STRING"
	TypeArray   Type = "ARRAY"
	TypeNumber  Type = "NUMBER"
	TypeInteger Type = "INTEGER"
	TypeBoolean Type = "BOOLEAN"
)

// Schema is the subset of the OpenAPI schema object both providers accept.
type Schema struct {
	Type       Type               `json:"type"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Items      *Schema            `json:"items,omitempty"`
	Enum       []string           `json:"enum,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

// Definition converts s to the JSON-schema form used by OpenAI structured
// outputs. Objects are closed since strict mode requires it.
func (s *Schema) Definition() jsonschema.Definition {
	def := jsonschema.Definition{
		Type:     jsonschema.DataType(strings.ToLower(string(s.Type))),
		Enum:     s.Enum,
		Required: s.Required,
	}
	if s.Items != nil {
		items := s.Items.Definition()
		def.Items = &items
	}
	if s.Type == TypeObject {
		def.Properties = make(map[string]jsonschema.Definition, len(s.Properties))
		for name, prop := range s.Properties {
			def.Properties[name] = prop.Definition()
		}
		def.AdditionalProperties = false
	}
	return def
}

// toGenai converts s to the schema type of the Gemini client.
func (s *Schema) toGenai() *genai.Schema {
	out := &genai.Schema{
		Type:     genai.Type(s.Type),
		Enum:     s.Enum,
		Required: s.Required,
	}
	if s.Items != nil {
		out.Items = s.Items.toGenai()
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = prop.toGenai()
		}
	}
	return out
}

// Decode unmarshals raw into v after stripping a markdown code fence some
// models wrap JSON output in.
func Decode(raw string, v any) error {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(raw, "```")
		raw = strings.TrimSpace(raw)
	}
	if raw == "" {
		return fmt.Errorf("empty json output")
	}
	return json.Unmarshal([]byte(raw), v)
}
