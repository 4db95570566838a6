package panel_test

import (
	"testing"

	"github.com/letterdesk/letterdesk/internal/domain/panel"
)

// appendRound appends one full rotation with the given per-role contents.
func appendRound(tr *panel.Transcript, writer, compliance, customerService string) {
	tr.Append(panel.RoleWriter, writer)
	tr.Append(panel.RoleCompliance, compliance)
	tr.Append(panel.RoleCustomerService, customerService)
}

func approvingRound(tr *panel.Transcript) {
	appendRound(tr,
		"Dear X... WRITER_APPROVED",
		"Looks compliant. COMPLIANCE_APPROVED",
		"Reads well. CUSTOMER_SERVICE_APPROVED",
	)
}

func rejectingRound(tr *panel.Transcript) {
	appendRound(tr,
		"Dear X... WRITER_NEEDS_IMPROVEMENT",
		"Missing disclaimer. COMPLIANCE_REJECTED",
		"Too cold. CUSTOMER_SERVICE_REJECTED",
	)
}

func TestEvaluateUnanimousApproval(t *testing.T) {
	personas := panel.Personas()
	var tr panel.Transcript
	approvingRound(&tr)

	if got := panel.Evaluate(&tr, personas, 5); got != panel.ReasonAllApproved {
		t.Errorf("Evaluate = %q, want all_approved", got)
	}
}

func TestEvaluateContinuesOnRejection(t *testing.T) {
	personas := panel.Personas()
	var tr panel.Transcript
	rejectingRound(&tr)

	if got := panel.Evaluate(&tr, personas, 5); got != panel.ReasonNone {
		t.Errorf("Evaluate = %q, want continue", got)
	}
}

func TestEvaluateApprovalAfterEarlierRejection(t *testing.T) {
	personas := panel.Personas()
	var tr panel.Transcript
	rejectingRound(&tr)
	approvingRound(&tr)

	if got := panel.Evaluate(&tr, personas, 5); got != panel.ReasonAllApproved {
		t.Errorf("Evaluate = %q, want all_approved despite round-1 rejections", got)
	}
}

func TestEvaluateCeilingAtExactlyMaxRounds(t *testing.T) {
	personas := panel.Personas()
	var tr panel.Transcript
	for range 4 {
		rejectingRound(&tr)
		if got := panel.Evaluate(&tr, personas, 5); got != panel.ReasonNone {
			t.Fatalf("terminated early at %d messages: %q", tr.Len(), got)
		}
	}

	rejectingRound(&tr) // round 5
	if got := panel.Evaluate(&tr, personas, 5); got != panel.ReasonMaxRounds {
		t.Errorf("Evaluate at round 5 = %q, want max_rounds", got)
	}
}

func TestEvaluateCeilingWinsOverApproval(t *testing.T) {
	personas := panel.Personas()
	var tr panel.Transcript
	for range 4 {
		rejectingRound(&tr)
	}
	approvingRound(&tr) // round 5: unanimous, but the ceiling is checked first

	if got := panel.Evaluate(&tr, personas, 5); got != panel.ReasonMaxRounds {
		t.Errorf("Evaluate = %q, want max_rounds (ceiling wins)", got)
	}
}

func TestEvaluateNeverApprovesPartialRound(t *testing.T) {
	personas := panel.Personas()
	var tr panel.Transcript
	tr.Append(panel.RoleWriter, "Dear X... WRITER_APPROVED")
	tr.Append(panel.RoleCompliance, "COMPLIANCE_APPROVED")

	if got := panel.Evaluate(&tr, personas, 5); got != panel.ReasonNone {
		t.Errorf("Evaluate on partial round = %q, want continue", got)
	}
}

func TestEvaluateMissingSentinelFailsClosed(t *testing.T) {
	personas := panel.Personas()
	var tr panel.Transcript
	appendRound(&tr,
		"Dear X... WRITER_APPROVED",
		"Looks fine to me.", // no sentinel at all
		"CUSTOMER_SERVICE_APPROVED",
	)

	if got := panel.Evaluate(&tr, personas, 5); got != panel.ReasonNone {
		t.Errorf("Evaluate = %q, want continue when a verdict is missing", got)
	}
}

func TestEvaluateUsesMostRecentMessagePerRole(t *testing.T) {
	// A doubled writer message inside the trailing slice: the later one rules.
	personas := panel.Personas()[:2] // writer + compliance, group size 2
	var tr panel.Transcript
	tr.Append(panel.RoleWriter, "WRITER_APPROVED")
	tr.Append(panel.RoleWriter, "WRITER_NEEDS_IMPROVEMENT")

	if got := panel.Evaluate(&tr, personas, 5); got != panel.ReasonNone {
		t.Errorf("Evaluate = %q, want continue (latest writer message rejects, compliance absent)", got)
	}
}
