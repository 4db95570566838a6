package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/letterdesk/letterdesk/internal/domain"
	"github.com/letterdesk/letterdesk/internal/domain/letter"
	"github.com/letterdesk/letterdesk/internal/port/broadcast"
	"github.com/letterdesk/letterdesk/internal/port/events"
	"github.com/letterdesk/letterdesk/internal/service"
)

// mockStore is an in-memory database.Store.
type mockStore struct {
	mu      sync.Mutex
	letters map[string]*letter.Letter
	nextID  int
	saveErr error
}

func newMockStore() *mockStore {
	return &mockStore{letters: make(map[string]*letter.Letter)}
}

func (m *mockStore) SaveLetter(_ context.Context, doc *letter.Letter) (*letter.Letter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.nextID++
	saved := *doc
	saved.ID = string(rune('a' + m.nextID - 1))
	m.letters[saved.ID] = &saved
	return &saved, nil
}

func (m *mockStore) GetLetter(_ context.Context, id string) (*letter.Letter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.letters[id]
	if !ok || doc.Deleted {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (m *mockStore) QueryLetters(_ context.Context, f letter.Filter) ([]letter.Letter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []letter.Letter
	for _, doc := range m.letters {
		if doc.Deleted {
			continue
		}
		if f.CustomerName != "" && doc.CustomerName != f.CustomerName {
			continue
		}
		if f.Category != "" && doc.Category != f.Category {
			continue
		}
		out = append(out, *doc)
	}
	return out, nil
}

func (m *mockStore) UpdateLetterStatus(_ context.Context, id string, status letter.ReviewStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.letters[id]
	if !ok || doc.Deleted {
		return domain.ErrNotFound
	}
	doc.ReviewStatus = status
	return nil
}

func (m *mockStore) SoftDeleteLetter(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.letters[id]
	if !ok || doc.Deleted {
		return domain.ErrNotFound
	}
	doc.Deleted = true
	return nil
}

// mockPublisher records published subjects.
type mockPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *mockPublisher) Publish(_ context.Context, subject string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *mockPublisher) Subscribe(_ context.Context, _ string, _ events.Handler) (func(), error) {
	return func() {}, nil
}

func (p *mockPublisher) Drain() error      { return nil }
func (p *mockPublisher) Close() error      { return nil }
func (p *mockPublisher) IsConnected() bool { return true }

func (p *mockPublisher) published(subject string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.subjects {
		if s == subject {
			return true
		}
	}
	return false
}

func newLetterService(store *mockStore, pub *mockPublisher, replies []string) *service.LetterService {
	client := &scriptedLLM{replies: replies}
	panelSvc := service.NewPanelService(client, nil, panelConfig())
	var p events.Publisher
	if pub != nil {
		p = pub
	}
	return service.NewLetterService(store, panelSvc, p, nil, nil)
}

func TestDraftPersistsApprovedLetter(t *testing.T) {
	store := newMockStore()
	pub := &mockPublisher{}
	svc := newLetterService(store, pub, approveRound("Dear Ms. Smith,\n\nYour claim is denied."))

	res, err := svc.Draft(context.Background(), draftRequest())
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}

	if res.ApprovalStatus.Status != letter.StatusFullyApproved {
		t.Errorf("status = %q, want fully_approved", res.ApprovalStatus.Status)
	}
	if res.TotalRounds != 1 {
		t.Errorf("total rounds = %d, want 1", res.TotalRounds)
	}
	if res.DocumentID == "" {
		t.Error("expected a document id")
	}
	if res.StorageError != "" {
		t.Errorf("unexpected storage error: %q", res.StorageError)
	}

	saved, err := store.GetLetter(context.Background(), res.DocumentID)
	if err != nil {
		t.Fatalf("stored letter not found: %v", err)
	}
	if saved.ReviewStatus != letter.ReviewStatusApproved {
		t.Errorf("stored review status = %q, want approved", saved.ReviewStatus)
	}
	if !pub.published("letters.generated") {
		t.Error("letters.generated event not published")
	}
}

func TestDraftDegradedOnStorageFailure(t *testing.T) {
	store := newMockStore()
	store.saveErr = errors.New("connection refused")
	svc := newLetterService(store, nil, approveRound("Dear Ms. Smith,"))

	res, err := svc.Draft(context.Background(), draftRequest())
	if err != nil {
		t.Fatalf("Draft should succeed despite storage failure, got %v", err)
	}
	if res.StorageError == "" {
		t.Error("expected storage_error to be set")
	}
	if res.DocumentID != "" {
		t.Errorf("document id should be empty, got %q", res.DocumentID)
	}
	if res.LetterContent == "" || res.LetterContent == "No final letter found in conversation" {
		t.Errorf("letter content lost: %q", res.LetterContent)
	}
}

func TestDraftRejectsInvalidRequest(t *testing.T) {
	svc := newLetterService(newMockStore(), nil, nil)

	req := draftRequest()
	req.Customer.Name = ""
	if _, err := svc.Draft(context.Background(), req); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDraftIncludesConversationWhenAsked(t *testing.T) {
	svc := newLetterService(newMockStore(), nil, approveRound("Dear Ms. Smith,"))

	req := draftRequest()
	req.IncludeConversation = true
	res, err := svc.Draft(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Conversation) != 3 {
		t.Errorf("conversation entries = %d, want 3", len(res.Conversation))
	}

	req.IncludeConversation = false
	svc = newLetterService(newMockStore(), nil, approveRound("Dear Ms. Smith,"))
	res, err = svc.Draft(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if res.Conversation != nil {
		t.Errorf("conversation should be omitted, got %d entries", len(res.Conversation))
	}
}

func TestDraftBroadcastsDoneEvent(t *testing.T) {
	store := newMockStore()
	hub := &recordingHub{}
	client := &scriptedLLM{replies: approveRound("Dear Ms. Smith,")}
	panelSvc := service.NewPanelService(client, hub, panelConfig())
	svc := service.NewLetterService(store, panelSvc, nil, hub, nil)

	res, err := svc.Draft(context.Background(), draftRequest())
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}

	if got := hub.count("panel.done"); got != 1 {
		t.Fatalf("panel.done events = %d, want 1", got)
	}
	last := hub.payloads[len(hub.payloads)-1]
	done, ok := last.(broadcast.DoneEvent)
	if !ok {
		t.Fatalf("panel.done payload has type %T, want broadcast.DoneEvent", last)
	}
	if done.Status != string(letter.StatusFullyApproved) {
		t.Errorf("done status = %q, want fully_approved", done.Status)
	}
	if done.TotalRounds != 1 || done.DocumentID != res.DocumentID {
		t.Errorf("done payload = %+v", done)
	}
}

func TestUpdateStatusAndDelete(t *testing.T) {
	store := newMockStore()
	pub := &mockPublisher{}
	svc := newLetterService(store, pub, approveRound("Dear Ms. Smith,"))

	res, err := svc.Draft(context.Background(), draftRequest())
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.UpdateStatus(context.Background(), res.DocumentID, letter.ReviewStatusSent); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if !pub.published("letters.status") {
		t.Error("letters.status event not published")
	}

	if err := svc.SoftDelete(context.Background(), res.DocumentID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if !pub.published("letters.deleted") {
		t.Error("letters.deleted event not published")
	}

	if _, err := svc.Get(context.Background(), res.DocumentID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("deleted letter should be gone, got %v", err)
	}

	if err := svc.UpdateStatus(context.Background(), "missing", letter.ReviewStatusSent); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing id, got %v", err)
	}
}
