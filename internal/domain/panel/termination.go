package panel

// TerminationReason records why the round loop stopped. Empty means keep
// going. Once the loop observes a non-empty reason it never resumes; the
// terminated state is absorbing for the request.
type TerminationReason string

const (
	ReasonNone        TerminationReason = ""
	ReasonAllApproved TerminationReason = "all_approved"
	ReasonMaxRounds   TerminationReason = "max_rounds"
)

// RoundState is the loop's explicit progress value: current round, the
// configured ceiling, and the panel size. Threaded through the orchestration
// loop rather than mutated on shared fields; scoped to a single request.
type RoundState struct {
	Round     int
	MaxRounds int
	GroupSize int
}

// Evaluate applies the termination policy after a message append. The round
// ceiling is checked before approvals so a ceiling hit always wins. Unanimous
// approval only counts when a full round exists and the most recent message
// of every persona within that round carries its approval sentinel; a persona
// absent from the round slice counts as not approved.
func Evaluate(t *Transcript, personas []Persona, maxRounds int) TerminationReason {
	groupSize := len(personas)
	if RoundOf(t.Len(), groupSize) >= maxRounds {
		return ReasonMaxRounds
	}

	slice := t.LastRound(groupSize)
	if slice == nil {
		return ReasonNone
	}

	for _, p := range personas {
		if !lastVerdictApproved(slice, p) {
			return ReasonNone
		}
	}
	return ReasonAllApproved
}

// lastVerdictApproved decodes the most recent message by p within the slice.
func lastVerdictApproved(slice []Message, p Persona) bool {
	for i := len(slice) - 1; i >= 0; i-- {
		if slice[i].Role == p.Role {
			return p.Extract(slice[i].Content) == VerdictApproved
		}
	}
	return false
}
