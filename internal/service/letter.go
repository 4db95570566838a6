package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/letterdesk/letterdesk/internal/adapter/otel"
	"github.com/letterdesk/letterdesk/internal/domain/letter"
	"github.com/letterdesk/letterdesk/internal/port/broadcast"
	"github.com/letterdesk/letterdesk/internal/port/database"
	"github.com/letterdesk/letterdesk/internal/port/events"
)

// LetterService coordinates letter generation and persistence.
type LetterService struct {
	store   database.Store
	panel   *PanelService
	pub     events.Publisher
	hub     broadcast.Broadcaster
	metrics *otel.Metrics
}

// NewLetterService creates a letter service. pub, hub, and metrics may be
// nil; the corresponding side effects are skipped.
func NewLetterService(store database.Store, panel *PanelService, pub events.Publisher, hub broadcast.Broadcaster, metrics *otel.Metrics) *LetterService {
	return &LetterService{
		store:   store,
		panel:   panel,
		pub:     pub,
		hub:     hub,
		metrics: metrics,
	}
}

// Draft runs the review panel for the request and persists the outcome.
// A storage failure does not fail the request: the generated letter is
// still returned with StorageError set so the caller can retry saving.
func (s *LetterService) Draft(ctx context.Context, req letter.DraftRequest) (*letter.GenerationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	started := time.Now()

	transcript, reason, err := s.panel.Run(ctx, req, requestID)
	if err != nil {
		if s.metrics != nil {
			s.metrics.GenerationFailures.Add(ctx, 1)
		}
		return nil, fmt.Errorf("panel run: %w", err)
	}

	result := assembleResult(transcript, s.panel.Personas(), reason, req)

	doc := &letter.Letter{
		CustomerName: req.Customer.Name,
		PolicyNumber: req.Customer.PolicyNumber,
		Category:     req.Category,
		Content:      result.LetterContent,
		ReviewStatus: reviewStatusFor(result.ApprovalStatus),
		UserPrompt:   req.Prompt,
		Approval:     result.ApprovalStatus,
		TotalRounds:  result.TotalRounds,
	}

	saved, err := s.store.SaveLetter(ctx, doc)
	if err != nil {
		// Degraded success: the letter exists, only persistence failed.
		slog.Error("letter storage failed", "request_id", requestID, "error", err)
		result.StorageError = err.Error()
	} else {
		result.DocumentID = saved.ID
	}

	s.publish(ctx, events.SubjectLetterGenerated, map[string]any{
		"request_id":  requestID,
		"document_id": result.DocumentID,
		"letter_type": req.Category,
		"status":      result.ApprovalStatus.Status,
	})

	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, broadcast.EventPanelDone, broadcast.DoneEvent{
			RequestID:   requestID,
			Status:      string(result.ApprovalStatus.Status),
			TotalRounds: result.TotalRounds,
			DocumentID:  result.DocumentID,
		})
	}

	if s.metrics != nil {
		s.metrics.LettersGenerated.Add(ctx, 1)
		s.metrics.ReviewRounds.Record(ctx, int64(result.TotalRounds))
		s.metrics.GenerationDuration.Record(ctx, time.Since(started).Seconds())
	}

	return &result, nil
}

// Get returns a stored letter by id.
func (s *LetterService) Get(ctx context.Context, id string) (*letter.Letter, error) {
	return s.store.GetLetter(ctx, id)
}

// Query returns stored letters matching the filter.
func (s *LetterService) Query(ctx context.Context, f letter.Filter) ([]letter.Letter, error) {
	return s.store.QueryLetters(ctx, f)
}

// UpdateStatus transitions the review status of a stored letter.
func (s *LetterService) UpdateStatus(ctx context.Context, id string, status letter.ReviewStatus) error {
	if err := s.store.UpdateLetterStatus(ctx, id, status); err != nil {
		return err
	}
	s.publish(ctx, events.SubjectLetterStatus, map[string]any{
		"document_id": id,
		"status":      status,
	})
	return nil
}

// SoftDelete marks a stored letter deleted.
func (s *LetterService) SoftDelete(ctx context.Context, id string) error {
	if err := s.store.SoftDeleteLetter(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.SubjectLetterDeleted, map[string]any{
		"document_id": id,
	})
	return nil
}

// publish sends an event best-effort. Failures are logged, never surfaced.
func (s *LetterService) publish(ctx context.Context, subject string, payload map[string]any) {
	if s.pub == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal event payload", "subject", subject, "error", err)
		return
	}
	if err := s.pub.Publish(ctx, subject, data); err != nil {
		slog.Warn("event publish failed", "subject", subject, "error", err)
	}
}

// reviewStatusFor maps a run outcome to the stored review state.
func reviewStatusFor(st letter.ApprovalStatus) letter.ReviewStatus {
	if st.OverallApproved {
		return letter.ReviewStatusApproved
	}
	return letter.ReviewStatusNeedsReview
}
