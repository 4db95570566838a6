// Package llm defines the port for chat completion against the model proxy.
package llm

import "context"

// Message is one turn in a chat completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes a single chat completion call.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Response carries the model output and token accounting.
type Response struct {
	Content   string
	TokensIn  int
	TokensOut int
}

// Client is the port interface for the chat completion proxy.
type Client interface {
	ChatCompletion(ctx context.Context, req Request) (*Response, error)
}
