// Package panel defines the review panel: the fixed persona set, the
// approval-sentinel decoder, the transcript, and the termination policy.
package panel

// Role identifies one fixed participant in the review panel.
type Role string

const (
	RoleWriter          Role = "writer"
	RoleCompliance      Role = "compliance"
	RoleCustomerService Role = "customer_service"
)

// Persona binds a role to its display name, instruction text, and the two
// sentinel tokens it may embed in a reply. Immutable after construction.
type Persona struct {
	Role         Role
	Name         string
	Instructions string
	ApproveToken string
	RejectToken  string
}

// Personas returns the fixed review panel in rotation order: writer first,
// then the two reviewers. The order is part of the protocol: reviewers must
// see the writer's latest draft.
func Personas() []Persona {
	return []Persona{
		{
			Role: RoleWriter,
			Name: "LetterWriter",
			Instructions: "You are a professional insurance letter drafting specialist with 15+ years of experience. " +
				"Create and refine clear, professional, and compliant insurance letters. " +
				"Guidelines: Use professional but warm tone, include required legal disclaimers, " +
				"personalize with customer information, follow industry best practices, ensure clarity and avoid jargon. " +
				"When refining, incorporate feedback from compliance and customer service reviews. " +
				"At the end of your response, state: 'WRITER_APPROVED' if you believe the letter is complete and ready, " +
				"or 'WRITER_NEEDS_IMPROVEMENT' if further refinement is needed.",
			ApproveToken: "WRITER_APPROVED",
			RejectToken:  "WRITER_NEEDS_IMPROVEMENT",
		},
		{
			Role: RoleCompliance,
			Name: "ComplianceReviewer",
			Instructions: "You are an insurance compliance specialist ensuring all letters meet regulatory requirements. " +
				"Review letters for: legal compliance, required disclaimers, accuracy of information, " +
				"professional tone, missing required elements, state-specific regulations. " +
				"Provide specific feedback for improvements needed. " +
				"At the end of your response, state: 'COMPLIANCE_APPROVED' if the letter meets all regulatory requirements, " +
				"or 'COMPLIANCE_REJECTED' with specific issues that must be addressed.",
			ApproveToken: "COMPLIANCE_APPROVED",
			RejectToken:  "COMPLIANCE_REJECTED",
		},
		{
			Role: RoleCustomerService,
			Name: "CustomerServiceReviewer",
			Instructions: "You are a customer service specialist ensuring letters are customer-friendly and effective. " +
				"Review for: clear communication, empathetic tone, easy to understand language, " +
				"appropriate level of detail, customer satisfaction potential, emotional impact. " +
				"Suggest improvements to enhance customer experience and reduce potential complaints. " +
				"At the end of your response, state: 'CUSTOMER_SERVICE_APPROVED' if the letter provides excellent customer experience, " +
				"or 'CUSTOMER_SERVICE_REJECTED' with specific improvements needed.",
			ApproveToken: "CUSTOMER_SERVICE_APPROVED",
			RejectToken:  "CUSTOMER_SERVICE_REJECTED",
		},
	}
}

// Names returns the display names in rotation order.
func Names(personas []Persona) []string {
	names := make([]string, len(personas))
	for i, p := range personas {
		names[i] = p.Name
	}
	return names
}
