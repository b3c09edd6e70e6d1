package protocol

// ToolDefinition describes a tool available to the model, in the
// Anthropic Messages API input_schema format. Definitions are built once
// at startup and never mutated afterwards.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ObjectSchema builds a JSON Schema object definition from a property
// map and the list of required property names.
func ObjectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
