package panel

import "strings"

// Verdict is the decoded approval signal of one persona message.
type Verdict int

const (
	// VerdictUnknown means neither sentinel was present. Aggregation treats
	// this as not-approved: missing or garbled output never counts as
	// approval.
	VerdictUnknown Verdict = iota
	VerdictApproved
	VerdictRejected
)

// String returns the verdict name for logs.
func (v Verdict) String() string {
	switch v {
	case VerdictApproved:
		return "approved"
	case VerdictRejected:
		return "rejected"
	}
	return "unknown"
}

// Extract decodes the persona's verdict from free text. The search is
// case-insensitive and position-independent. When both sentinels appear the
// approval wins; the round ceiling bounds the damage of that optimism.
// Pure function of the text.
func (p Persona) Extract(text string) Verdict {
	if indexFold(text, p.ApproveToken) >= 0 {
		return VerdictApproved
	}
	if indexFold(text, p.RejectToken) >= 0 {
		return VerdictRejected
	}
	return VerdictUnknown
}

// StripSentinels removes both of the persona's sentinel tokens from text and
// trims surrounding whitespace. Case-insensitive, all occurrences.
func (p Persona) StripSentinels(text string) string {
	for _, token := range []string{p.ApproveToken, p.RejectToken} {
		for {
			idx := indexFold(text, token)
			if idx < 0 {
				break
			}
			text = text[:idx] + text[idx+len(token):]
		}
	}
	return strings.TrimSpace(text)
}

// indexFold returns the byte offset of the first case-insensitive occurrence
// of token in text, or -1. Offsets are computed on text itself: mapping the
// whole string through ToUpper first would shift offsets whenever a rune
// changes byte length under case conversion (e.g. U+017F to S). Tokens are
// ASCII, so a match always spans exactly len(token) bytes of text.
func indexFold(text, token string) int {
	if token == "" {
		return -1
	}
	for i := 0; i+len(token) <= len(text); i++ {
		if strings.EqualFold(text[i:i+len(token)], token) {
			return i
		}
	}
	return -1
}
