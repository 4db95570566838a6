package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/letterdesk/letterdesk/internal/adapter/otel"
	"github.com/letterdesk/letterdesk/internal/config"
	"github.com/letterdesk/letterdesk/internal/domain/letter"
	"github.com/letterdesk/letterdesk/internal/domain/panel"
	"github.com/letterdesk/letterdesk/internal/port/broadcast"
	"github.com/letterdesk/letterdesk/internal/port/llm"
)

// PanelService runs the draft/review/revise loop over the fixed persona
// panel until every reviewer approves or the round ceiling is reached.
type PanelService struct {
	llm      llm.Client
	hub      broadcast.Broadcaster
	cfg      config.Panel
	personas []panel.Persona
}

// NewPanelService creates a panel service. hub may be nil when no
// real-time streaming is wanted.
func NewPanelService(client llm.Client, hub broadcast.Broadcaster, cfg config.Panel) *PanelService {
	return &PanelService{
		llm:      client,
		hub:      hub,
		cfg:      cfg,
		personas: panel.Personas(),
	}
}

// Personas returns the fixed panel roster in invocation order.
func (s *PanelService) Personas() []panel.Persona {
	return s.personas
}

// MaxRounds returns the configured round ceiling.
func (s *PanelService) MaxRounds() int {
	return s.cfg.MaxRounds
}

// Run executes review rounds for the given request and returns the full
// transcript plus the reason the loop stopped. The transcript holds only
// persona replies; the task prompt is carried separately so that round
// arithmetic over the transcript length stays exact.
func (s *PanelService) Run(ctx context.Context, req letter.DraftRequest, requestID string) (*panel.Transcript, panel.TerminationReason, error) {
	ctx, span := otel.StartPanelSpan(ctx, requestID, string(req.Category))
	defer span.End()

	taskPrompt := buildTaskPrompt(req)
	transcript := &panel.Transcript{}

	for round := 1; round <= s.cfg.MaxRounds; round++ {
		s.broadcast(ctx, broadcast.EventPanelRound, broadcast.RoundEvent{
			RequestID: requestID,
			Round:     round,
			MaxRounds: s.cfg.MaxRounds,
		})

		for _, p := range s.personas {
			reply, err := s.invoke(ctx, p, taskPrompt, transcript, round)
			if err != nil {
				return transcript, panel.ReasonNone, fmt.Errorf("invoke %s round %d: %w", p.Name, round, err)
			}

			msg := transcript.Append(p.Role, reply)
			slog.Debug("persona replied",
				"agent", p.Name, "round", round, "verdict", p.Extract(reply).String())

			s.broadcast(ctx, broadcast.EventPanelMessage, broadcast.PanelMessageEvent{
				RequestID: requestID,
				Round:     round,
				Agent:     p.Name,
				Message:   msg.Content,
			})
		}

		if reason := panel.Evaluate(transcript, s.personas, s.cfg.MaxRounds); reason != panel.ReasonNone {
			return transcript, reason, nil
		}
	}

	// The ceiling check inside Evaluate fires at round MaxRounds, so this
	// is unreachable unless MaxRounds < 1.
	return transcript, panel.ReasonMaxRounds, nil
}

// invoke runs one chat completion for a persona. The persona sees its own
// instructions, the task prompt, and the full conversation so far with
// each reply labeled by its author.
func (s *PanelService) invoke(ctx context.Context, p panel.Persona, taskPrompt string, t *panel.Transcript, round int) (string, error) {
	ctx, span := otel.StartPersonaSpan(ctx, p.Name, round)
	defer span.End()

	messages := make([]llm.Message, 0, t.Len()+2)
	messages = append(messages,
		llm.Message{Role: "system", Content: p.Instructions},
		llm.Message{Role: "user", Content: taskPrompt},
	)
	for _, m := range t.Messages() {
		name := string(m.Role)
		for _, q := range s.personas {
			if q.Role == m.Role {
				name = q.Name
				break
			}
		}
		messages = append(messages, llm.Message{
			Role:    "user",
			Content: fmt.Sprintf("[%s] %s", name, m.Content),
		})
	}

	resp, err := s.llm.ChatCompletion(ctx, llm.Request{
		Model:       s.cfg.Model,
		Messages:    messages,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (s *PanelService) broadcast(ctx context.Context, eventType string, payload any) {
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, eventType, payload)
	}
}

// buildTaskPrompt renders the seed prompt the whole panel works from.
func buildTaskPrompt(req letter.DraftRequest) string {
	var b strings.Builder
	b.WriteString("Draft an insurance letter with the following parameters.\n\n")
	fmt.Fprintf(&b, "Letter type: %s\n", req.Category)
	fmt.Fprintf(&b, "Customer name: %s\n", sanitizePromptInput(req.Customer.Name))
	fmt.Fprintf(&b, "Policy number: %s\n", sanitizePromptInput(req.Customer.PolicyNumber))
	if req.Customer.Address != "" {
		fmt.Fprintf(&b, "Address: %s\n", sanitizePromptInput(req.Customer.Address))
	}
	if req.Customer.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", sanitizePromptInput(req.Customer.Phone))
	}
	if req.Customer.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", sanitizePromptInput(req.Customer.Email))
	}
	if req.Customer.AgentName != "" {
		fmt.Fprintf(&b, "Agent name: %s\n", sanitizePromptInput(req.Customer.AgentName))
	}
	fmt.Fprintf(&b, "\nRequest details: %s\n", sanitizePromptInput(req.Prompt))
	return b.String()
}

// sanitizePromptInput strips control characters from user-supplied text
// before it is embedded in the task prompt, and caps its length.
func sanitizePromptInput(s string) string {
	const maxLen = 4000

	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\t' || r >= 0x20 {
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if len(out) > maxLen {
		out = out[:maxLen]
	}
	return out
}
