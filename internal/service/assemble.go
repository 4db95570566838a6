package service

import (
	"time"

	"github.com/letterdesk/letterdesk/internal/domain/letter"
	"github.com/letterdesk/letterdesk/internal/domain/panel"
)

// fallbackLetter is returned when the writer never produced a message.
const fallbackLetter = "No final letter found in conversation"

// orchestrationType names the coordination scheme in API responses.
const orchestrationType = "approval_based_iterative"

// finalLetter extracts the letter body from the transcript: the writer's
// most recent message with approval sentinels stripped.
func finalLetter(t *panel.Transcript, personas []panel.Persona) string {
	var writer panel.Persona
	for _, p := range personas {
		if p.Role == panel.RoleWriter {
			writer = p
			break
		}
	}

	msg, ok := t.LastByRole(panel.RoleWriter)
	if !ok {
		return fallbackLetter
	}

	content := writer.StripSentinels(msg.Content)
	if content == "" {
		return fallbackLetter
	}
	return content
}

// buildApprovalStatus derives per-reviewer verdicts from each persona's
// most recent message, scanning the whole transcript backward so the
// status reflects the final word of every role.
func buildApprovalStatus(t *panel.Transcript, personas []panel.Persona, reason panel.TerminationReason) letter.ApprovalStatus {
	var st letter.ApprovalStatus

	for _, p := range personas {
		approved := false
		if msg, ok := t.LastByRole(p.Role); ok {
			approved = p.Extract(msg.Content) == panel.VerdictApproved
		}
		switch p.Role {
		case panel.RoleWriter:
			st.WriterApproved = approved
		case panel.RoleCompliance:
			st.ComplianceApproved = approved
		case panel.RoleCustomerService:
			st.CustomerServiceApproved = approved
		}
	}

	st.OverallApproved = st.WriterApproved && st.ComplianceApproved && st.CustomerServiceApproved

	switch {
	case st.OverallApproved:
		st.Status = letter.StatusFullyApproved
	case reason == panel.ReasonMaxRounds:
		st.Status = letter.StatusMaxRounds
	default:
		st.Status = letter.StatusNeedsImprovement
	}
	return st
}

// conversationLog renders the transcript for callers that asked for it,
// sentinels intact.
func conversationLog(t *panel.Transcript, personas []panel.Persona) []letter.ConversationEntry {
	names := make(map[panel.Role]string, len(personas))
	for _, p := range personas {
		names[p.Role] = p.Name
	}

	msgs := t.Messages()
	entries := make([]letter.ConversationEntry, 0, len(msgs))
	for _, m := range msgs {
		name := names[m.Role]
		if name == "" {
			name = string(m.Role)
		}
		entries = append(entries, letter.ConversationEntry{
			Round:     panel.RoundOf(m.Position, len(personas)),
			Agent:     name,
			Message:   m.Content,
			Timestamp: m.Timestamp,
		})
	}
	return entries
}

// assembleResult builds the caller-facing result from a finished run.
func assembleResult(t *panel.Transcript, personas []panel.Persona, reason panel.TerminationReason, req letter.DraftRequest) letter.GenerationResult {
	res := letter.GenerationResult{
		LetterContent:     finalLetter(t, personas),
		ApprovalStatus:    buildApprovalStatus(t, personas, reason),
		TotalRounds:       panel.RoundOf(t.Len(), len(personas)),
		OrchestrationType: orchestrationType,
		AgentsUsed:        panel.Names(personas),
		LetterType:        req.Category,
		CustomerName:      req.Customer.Name,
		Timestamp:         time.Now().UTC(),
	}
	if req.IncludeConversation {
		res.Conversation = conversationLog(t, personas)
	}
	return res
}
