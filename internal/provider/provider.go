// Package provider wraps the Google GenAI SDK behind the small surface the
// rest of kindred needs: create a chat session bound to a system instruction
// and prior history, then stream replies fragment by fragment.
package provider

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"kindred/internal/logging"
)

// ErrUnavailable indicates the provider client could not be initialized
// (typically a missing or rejected API credential). This is terminal for the
// conversation feature and is surfaced at setup time, not retried.
var ErrUnavailable = errors.New("provider unavailable")

// Role identifies who produced a turn in provider-facing history.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one prior (role, text) pair used to seed a new session.
type Turn struct {
	Role Role
	Text string
}

// Session is a live dialogue context bound to one system instruction and the
// history it was seeded with. Exactly one Session is current at a time; the
// owner replaces rather than reuses superseded sessions.
type Session interface {
	// SendStreaming submits a user message and returns the reply as a lazy
	// fragment sequence. Fragments arrive in provider order on the content
	// channel, which is closed on completion. At most one error is delivered
	// on the error channel; both channels are closed when the stream ends.
	SendStreaming(ctx context.Context, text string) (<-chan string, <-chan error)
}

// Client owns the underlying GenAI client handle.
type Client struct {
	client *genai.Client
}

// NewClient initializes the provider with the given API credential.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", ErrUnavailable)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &Client{client: client}, nil
}

// CreateSession opens a new chat session seeded with the system instruction
// and, if given, prior turns in original order.
func (c *Client) CreateSession(ctx context.Context, model, instruction string, history []Turn) (Session, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
	}

	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		role := genai.RoleUser
		if turn.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}

	chat, err := c.client.Chats.Create(ctx, model, config, contents)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat session: %w", err)
	}

	logging.API("session created: model=%s instruction_len=%d history_turns=%d",
		model, len(instruction), len(history))

	return &chatSession{chat: chat}, nil
}

// chatSession adapts *genai.Chat to the Session interface.
type chatSession struct {
	chat *genai.Chat
}

// SendStreaming submits text and forwards reply fragments onto a channel.
// The producer goroutine exits when the provider finishes, errors, or the
// context is cancelled.
func (s *chatSession) SendStreaming(ctx context.Context, text string) (<-chan string, <-chan error) {
	contentChan := make(chan string, 100)
	errorChan := make(chan error, 1)

	go func() {
		defer close(contentChan)
		defer close(errorChan)

		for resp, err := range s.chat.SendMessageStream(ctx, genai.Part{Text: text}) {
			if err != nil {
				logging.APIError("stream error: %v", err)
				errorChan <- fmt.Errorf("stream error: %w", err)
				return
			}
			fragment := resp.Text()
			if fragment == "" {
				continue
			}
			select {
			case contentChan <- fragment:
			case <-ctx.Done():
				errorChan <- ctx.Err()
				return
			}
		}
	}()

	return contentChan, errorChan
}
