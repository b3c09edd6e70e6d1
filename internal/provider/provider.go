package provider

import (
	"context"

	"github.com/coursemind-io/coursemind/pkg/protocol"
)

// Provider is the abstraction over language-model APIs.
type Provider interface {
	Chat(ctx context.Context, req protocol.ChatRequest) (*protocol.ChatResponse, error)
	Name() string
}
