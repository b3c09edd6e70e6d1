package agent

import (
	"context"
	"log/slog"

	"github.com/coursemind-io/coursemind/internal/provider"
	"github.com/coursemind-io/coursemind/pkg/protocol"
)

const (
	defaultMaxToolRounds = 2
	maxAnswerTokens      = 800
)

// ToolDispatcher routes a model-issued tool call to its implementation.
// Unknown names come back as an ordinary result string; execution
// failures come back as errors.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, name string, args map[string]any) (string, error)
}

// Generator drives the multi-round conversation with the model service:
// it sends the user query, executes requested tools, feeds results back
// and terminates on a final text answer, round exhaustion, or a
// dispatch failure.
type Generator struct {
	Provider      provider.Provider
	Logger        *slog.Logger
	MaxToolRounds int
}

// NewGenerator creates a Generator with the default round limit.
func NewGenerator(p provider.Provider, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{Provider: p, Logger: logger}
}

// loopState is the round loop's explicit state machine. The two exits
// into terminal (normal text vs. exhaustion/failure cut-off) are
// distinct transitions out of querying.
type loopState int

const (
	stateQuerying loopState = iota
	stateToolRound
	stateTerminal
)

// Generate answers one user query. history is an opaque prior-conversation
// string appended to the system instructions; tools and dispatcher may be
// nil/empty for tool-less generation. Returns the model's final text, or
// "" when the terminal response carries no text block. Provider transport
// errors are fatal for the query; tool dispatch failures are not — they
// are framed as tool results the model gets to see and respond to.
func (g *Generator) Generate(ctx context.Context, query, history string, tools []protocol.ToolDefinition, dispatcher ToolDispatcher) (string, error) {
	system := systemPrompt
	if history != "" {
		system = systemPrompt + "\n\nPrevious conversation:\n" + history
	}

	maxRounds := g.MaxToolRounds
	if maxRounds <= 0 {
		maxRounds = defaultMaxToolRounds
	}

	messages := []protocol.Message{protocol.NewUserText(query)}

	var (
		resp   *protocol.ChatResponse
		rounds int
		failed bool
	)

	state := stateQuerying
	for {
		switch state {
		case stateQuerying:
			r, err := g.chat(ctx, system, messages, tools)
			if err != nil {
				return "", err
			}
			resp = r

			switch {
			case resp.StopReason != protocol.StopToolUse || dispatcher == nil:
				state = stateTerminal
			case failed:
				// A failed dispatch last round ends the loop with this
				// response, even if it requests another tool.
				state = stateTerminal
			case rounds >= maxRounds:
				// Round limit reached: a tool request in this response
				// is never executed.
				g.Logger.Debug("tool round limit reached", "rounds", rounds)
				state = stateTerminal
			default:
				state = stateToolRound
			}

		case stateToolRound:
			// The model's own tool-requesting turn goes into the
			// history verbatim, then one user turn with all results.
			messages = append(messages, protocol.Message{
				Role:    protocol.RoleAssistant,
				Content: resp.Content,
			})

			var results []protocol.ContentBlock
			for _, use := range resp.ToolUses() {
				g.Logger.Info("tool call", "tool", use.Name, "call_id", use.ID)
				out, err := dispatcher.Dispatch(ctx, use.Name, use.Input)
				if err != nil {
					out = "Tool execution error: " + err.Error()
					failed = true
					g.Logger.Warn("tool dispatch failed", "tool", use.Name, "error", err)
				}
				results = append(results, protocol.NewToolResult(use.ID, out))
			}
			if len(results) > 0 {
				messages = append(messages, protocol.Message{
					Role:    protocol.RoleUser,
					Content: results,
				})
			}

			rounds++
			state = stateQuerying

		case stateTerminal:
			return resp.FirstText(), nil
		}
	}
}

// chat performs one model-service call. Every call carries the same
// tool definitions; follow-ups without them would fail validation of
// the tool-result turns. Sampling is fixed at zero temperature with a
// bounded answer size.
func (g *Generator) chat(ctx context.Context, system string, messages []protocol.Message, tools []protocol.ToolDefinition) (*protocol.ChatResponse, error) {
	req := protocol.ChatRequest{
		System:      system,
		Messages:    messages,
		Tools:       tools,
		MaxTokens:   maxAnswerTokens,
		Temperature: 0,
	}
	g.Logger.Debug("chat request", "messages", len(messages), "tools", len(tools))
	return g.Provider.Chat(ctx, req)
}
