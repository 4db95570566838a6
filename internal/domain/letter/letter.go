// Package letter defines the insurance correspondence domain entities.
package letter

import (
	"fmt"
	"time"

	"github.com/letterdesk/letterdesk/internal/domain"
)

// Category is the fixed vocabulary of supported letter types.
type Category string

const (
	CategoryClaimDenial     Category = "claim_denial"
	CategoryClaimApproval   Category = "claim_approval"
	CategoryPolicyRenewal   Category = "policy_renewal"
	CategoryCoverageChange  Category = "coverage_change"
	CategoryPremiumIncrease Category = "premium_increase"
	CategoryCancellation    Category = "cancellation"
	CategoryWelcome         Category = "welcome"
	CategoryGeneral         Category = "general"
)

// Categories returns the full vocabulary in declaration order. The order is
// load-bearing: the advisory parser picks the first category found in model
// output scanning in this order.
func Categories() []Category {
	return []Category{
		CategoryClaimDenial,
		CategoryClaimApproval,
		CategoryPolicyRenewal,
		CategoryCoverageChange,
		CategoryPremiumIncrease,
		CategoryCancellation,
		CategoryWelcome,
		CategoryGeneral,
	}
}

// ParseCategory validates that s is one of the fixed vocabulary entries.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown letter type %q", domain.ErrValidation, s)
}

// ReviewStatus is the stored review state of a persisted letter.
type ReviewStatus string

const (
	ReviewStatusApproved    ReviewStatus = "approved"
	ReviewStatusNeedsReview ReviewStatus = "needs_review"
	ReviewStatusSent        ReviewStatus = "sent"
	ReviewStatusRejected    ReviewStatus = "rejected"
)

// ParseReviewStatus validates a stored review status value.
func ParseReviewStatus(s string) (ReviewStatus, error) {
	switch ReviewStatus(s) {
	case ReviewStatusApproved, ReviewStatusNeedsReview, ReviewStatusSent, ReviewStatusRejected:
		return ReviewStatus(s), nil
	}
	return "", fmt.Errorf("%w: unknown review status %q", domain.ErrValidation, s)
}

// CustomerInfo carries the customer attributes embedded in the task prompt.
type CustomerInfo struct {
	Name         string `json:"name"`
	PolicyNumber string `json:"policy_number"`
	Address      string `json:"address,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	AgentName    string `json:"agent_name,omitempty"`
}

// DraftRequest holds the fields for one letter generation request.
type DraftRequest struct {
	Customer            CustomerInfo `json:"customer_info"`
	Category            Category     `json:"letter_type"`
	Prompt              string       `json:"user_prompt"`
	IncludeConversation bool         `json:"include_conversation"`
}

// Validate checks required fields and the category vocabulary.
func (r *DraftRequest) Validate() error {
	if r.Customer.Name == "" {
		return fmt.Errorf("%w: customer name is required", domain.ErrValidation)
	}
	if r.Customer.PolicyNumber == "" {
		return fmt.Errorf("%w: policy number is required", domain.ErrValidation)
	}
	if r.Prompt == "" {
		return fmt.Errorf("%w: user prompt is required", domain.ErrValidation)
	}
	if _, err := ParseCategory(string(r.Category)); err != nil {
		return err
	}
	return nil
}

// Letter is the persisted document produced by one successful generation.
type Letter struct {
	ID           string         `json:"id"`
	CustomerName string         `json:"customer_name"`
	PolicyNumber string         `json:"policy_number"`
	Category     Category       `json:"letter_type"`
	Content      string         `json:"content"`
	ReviewStatus ReviewStatus   `json:"review_status"`
	UserPrompt   string         `json:"user_prompt"`
	Approval     ApprovalStatus `json:"approval_details"`
	TotalRounds  int            `json:"total_rounds"`
	Deleted      bool           `json:"-"`
	DeletedAt    *time.Time     `json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Filter narrows a letter query. Zero values match everything.
type Filter struct {
	CustomerName string
	Category     Category
	Limit        int
}
