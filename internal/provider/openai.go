package provider

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/coursemind-io/coursemind/pkg/protocol"
)

// OpenAIProvider implements Provider on the OpenAI chat-completions API
// (and any compatible endpoint given a base URL). Block-structured turns
// are translated to the function-calling message shape on the way out
// and back again on the way in.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// OpenAIOption configures an OpenAIProvider.
type OpenAIOption func(*openai.ClientConfig, *OpenAIProvider)

// WithOpenAIBaseURL sets a custom API base URL.
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(cfg *openai.ClientConfig, _ *OpenAIProvider) { cfg.BaseURL = url }
}

// WithOpenAIModel sets the default model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(_ *openai.ClientConfig, p *OpenAIProvider) { p.model = model }
}

// NewOpenAI creates a new OpenAI-compatible provider.
func NewOpenAI(apiKey string, opts ...OpenAIOption) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	p := &OpenAIProvider{model: openai.GPT4o}
	for _, opt := range opts {
		opt(&cfg, p)
	}
	p.client = openai.NewClientWithConfig(cfg)
	return p
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Chat(ctx context.Context, req protocol.ChatRequest) (*protocol.ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	messages, err := toOpenAIMessages(req.System, req.Messages)
	if err != nil {
		return nil, err
	}

	oreq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
		Tools:       toOpenAITools(req.Tools),
	}

	resp, err := p.client.CreateChatCompletion(ctx, oreq)
	if err != nil {
		return nil, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty response")
	}

	return fromOpenAIChoice(resp.Choices[0], resp.Usage)
}

func toOpenAITools(defs []protocol.ToolDefinition) []openai.Tool {
	if len(defs) == 0 {
		return nil
	}
	tools := make([]openai.Tool, 0, len(defs))
	for _, d := range defs {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.InputSchema,
			},
		})
	}
	return tools
}

// toOpenAIMessages flattens block-structured turns: assistant tool_use
// blocks become tool_calls, and each tool_result block becomes its own
// tool-role message.
func toOpenAIMessages(system string, msgs []protocol.Message) ([]openai.ChatCompletionMessage, error) {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs)+1)
	if system != "" {
		out = append(out, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}

	for _, m := range msgs {
		var (
			text      string
			toolCalls []openai.ToolCall
			results   []openai.ChatCompletionMessage
		)
		for _, b := range m.Content {
			switch b.Type {
			case protocol.BlockText:
				if text != "" {
					text += "\n"
				}
				text += b.Text
			case protocol.BlockToolUse:
				args, err := json.Marshal(b.Input)
				if err != nil {
					return nil, fmt.Errorf("openai: marshal tool arguments: %w", err)
				}
				toolCalls = append(toolCalls, openai.ToolCall{
					ID:   b.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      b.Name,
						Arguments: string(args),
					},
				})
			case protocol.BlockToolResult:
				results = append(results, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    b.Content,
					ToolCallID: b.ToolUseID,
				})
			}
		}

		switch {
		case len(results) > 0:
			out = append(out, results...)
		case len(toolCalls) > 0:
			out = append(out, openai.ChatCompletionMessage{
				Role:      openai.ChatMessageRoleAssistant,
				Content:   text,
				ToolCalls: toolCalls,
			})
		default:
			out = append(out, openai.ChatCompletionMessage{
				Role:    m.Role,
				Content: text,
			})
		}
	}
	return out, nil
}

func fromOpenAIChoice(choice openai.ChatCompletionChoice, usage openai.Usage) (*protocol.ChatResponse, error) {
	var blocks []protocol.ContentBlock
	if choice.Message.Content != "" {
		blocks = append(blocks, protocol.ContentBlock{
			Type: protocol.BlockText,
			Text: choice.Message.Content,
		})
	}
	for _, tc := range choice.Message.ToolCalls {
		input := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &input); err != nil {
				return nil, fmt.Errorf("openai: parse tool arguments for %s: %w", tc.Function.Name, err)
			}
		}
		blocks = append(blocks, protocol.ContentBlock{
			Type:  protocol.BlockToolUse,
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: input,
		})
	}

	var stop protocol.StopReason
	switch choice.FinishReason {
	case openai.FinishReasonStop:
		stop = protocol.StopEndTurn
	case openai.FinishReasonToolCalls:
		stop = protocol.StopToolUse
	case openai.FinishReasonLength:
		stop = protocol.StopMaxTokens
	default:
		stop = protocol.StopOther
	}

	return &protocol.ChatResponse{
		Content:    blocks,
		StopReason: stop,
		Usage: protocol.Usage{
			InputTokens:  usage.PromptTokens,
			OutputTokens: usage.CompletionTokens,
		},
	}, nil
}
