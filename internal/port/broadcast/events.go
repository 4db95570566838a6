package broadcast

// RoundEvent is the EventPanelRound payload, sent when a review round starts.
type RoundEvent struct {
	RequestID string `json:"request_id"`
	Round     int    `json:"round"`
	MaxRounds int    `json:"max_rounds"`
}

// PanelMessageEvent is the EventPanelMessage payload, sent for each persona
// reply with approval sentinels left intact so clients can render verdicts.
type PanelMessageEvent struct {
	RequestID string `json:"request_id"`
	Round     int    `json:"round"`
	Agent     string `json:"agent"`
	Message   string `json:"message"`
}

// DoneEvent is the EventPanelDone payload, sent when a panel run finishes.
type DoneEvent struct {
	RequestID   string `json:"request_id"`
	Status      string `json:"status"`
	TotalRounds int    `json:"total_rounds"`
	DocumentID  string `json:"document_id,omitempty"`
}
