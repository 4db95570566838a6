package letter

import "time"

// StatusLabel is the terminal outcome of one generation request.
type StatusLabel string

const (
	StatusPending          StatusLabel = "pending"
	StatusFullyApproved    StatusLabel = "fully_approved"
	StatusNeedsImprovement StatusLabel = "needs_improvement"
	StatusMaxRounds        StatusLabel = "max_rounds_exceeded"
)

// ApprovalStatus is derived from the transcript tail, never mutated directly.
type ApprovalStatus struct {
	WriterApproved          bool        `json:"writer_approved"`
	ComplianceApproved      bool        `json:"compliance_approved"`
	CustomerServiceApproved bool        `json:"customer_service_approved"`
	OverallApproved         bool        `json:"overall_approved"`
	Status                  StatusLabel `json:"status"`
}

// ConversationEntry is one transcript message in the optional generation log.
type ConversationEntry struct {
	Round     int       `json:"round"`
	Agent     string    `json:"agent"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// GenerationResult is the caller-facing payload of one generation run.
type GenerationResult struct {
	LetterContent     string              `json:"letter_content"`
	ApprovalStatus    ApprovalStatus      `json:"approval_status"`
	TotalRounds       int                 `json:"total_rounds"`
	OrchestrationType string              `json:"orchestration_type"`
	AgentsUsed        []string            `json:"agents_used"`
	LetterType        Category            `json:"letter_type"`
	CustomerName      string              `json:"customer_name"`
	Timestamp         time.Time           `json:"timestamp"`
	DocumentID        string              `json:"document_id,omitempty"`
	StorageError      string              `json:"storage_error,omitempty"`
	Conversation      []ConversationEntry `json:"agent_conversation,omitempty"`
}

// TypeSuggestion is the advisory classification result. Always best-effort:
// a failed parse yields the general category, never an error.
type TypeSuggestion struct {
	SuggestedType    Category   `json:"suggested_type"`
	Confidence       float64    `json:"confidence"`
	Reasoning        string     `json:"reasoning"`
	AlternativeTypes []Category `json:"alternative_types"`
}

// ValidationResult is the standalone compliance validation result. The score
// is a coarse heuristic mapped from the validity keyword, not a numeric
// extraction from the model output.
type ValidationResult struct {
	IsValid          bool      `json:"is_valid"`
	ComplianceIssues []string  `json:"compliance_issues"`
	Suggestions      []string  `json:"suggestions"`
	ComplianceScore  float64   `json:"compliance_score"`
	ValidatedBy      string    `json:"validated_by"`
	Timestamp        time.Time `json:"timestamp"`
}
