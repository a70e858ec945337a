package models

// JSONSchema describes the properties bag an executor accepts. It is
// marshalled to JSON and checked with gojsonschema at validation time.
type JSONSchema struct {
	Type                 string               `json:"type"`
	Properties           map[string]*Property `json:"properties,omitempty"`
	Required             []string             `json:"required,omitempty"`
	Title                string               `json:"title,omitempty"`
	Description          string               `json:"description,omitempty"`
	AdditionalProperties *bool                `json:"additionalProperties,omitempty"`
}

// Property represents a JSON Schema property
type Property struct {
	Type        any                  `json:"type,omitempty"`
	Description string               `json:"description,omitempty"`
	Enum        []any                `json:"enum,omitempty"`
	Default     any                  `json:"default,omitempty"`
	Format      string               `json:"format,omitempty"`
	Minimum     *float64             `json:"minimum,omitempty"`
	MinLength   *int                 `json:"minLength,omitempty"`
	Items       *Property            `json:"items,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
}

// ExecutorInfo is the public description of a registered node type.
type ExecutorInfo struct {
	Type        string      `json:"type"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Branching   bool        `json:"branching"`
	Schema      *JSONSchema `json:"schema,omitempty"`
}

func ObjectSchema(title string, props map[string]*Property, required ...string) *JSONSchema {
	return &JSONSchema{
		Type:       "object",
		Title:      title,
		Properties: props,
		Required:   required,
	}
}

func Prop(typ any, description string) *Property {
	return &Property{Type: typ, Description: description}
}

func EnumProp(description string, values ...any) *Property {
	return &Property{Type: "string", Description: description, Enum: values}
}

func MinProp(typ any, description string, minimum float64) *Property {
	return &Property{Type: typ, Description: description, Minimum: &minimum}
}
