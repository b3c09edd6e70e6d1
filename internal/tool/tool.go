package tool

import (
	"context"

	"github.com/coursemind-io/coursemind/pkg/protocol"
)

// Tool is the capability interface every tool implements. Execute
// returns a model-readable string; execution failures are returned as
// errors, never folded into the result string, so callers can tell
// "no results" answers apart from broken tools.
type Tool interface {
	Definition() protocol.ToolDefinition
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// SourceTracker is implemented by tools that record which course
// content backed their last successful execution.
type SourceTracker interface {
	LastSources() []string
	ResetSources()
}

// getString reads an optional string argument.
func getString(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// getInt reads an optional integer argument. JSON decoding hands tool
// arguments over as float64.
func getInt(args map[string]any, key string) *int {
	switch v := args[key].(type) {
	case float64:
		n := int(v)
		return &n
	case int:
		n := v
		return &n
	default:
		return nil
	}
}
