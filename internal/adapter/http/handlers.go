package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/letterdesk/letterdesk/internal/adapter/litellm"
	"github.com/letterdesk/letterdesk/internal/adapter/ws"
	"github.com/letterdesk/letterdesk/internal/domain"
	"github.com/letterdesk/letterdesk/internal/domain/letter"
	"github.com/letterdesk/letterdesk/internal/port/events"
	"github.com/letterdesk/letterdesk/internal/service"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Letters *service.LetterService
	Advisor *service.AdvisorService
	Auth    *service.AuthService
	LiteLLM *litellm.Client
	Pool    *pgxpool.Pool
	Queue   events.Publisher
	Hub     *ws.Hub
}

// DraftLetter handles POST /api/v1/letters/draft
func (h *Handlers) DraftLetter(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[letter.DraftRequest](w, r)
	if !ok {
		return
	}

	result, err := h.Letters.Draft(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeDomainError(w, err, "invalid draft request")
			return
		}
		slog.Error("letter generation failed", "error", err)
		writeError(w, http.StatusBadGateway, "letter generation failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SuggestLetterType handles POST /api/v1/letters/suggest-type
func (h *Handlers) SuggestLetterType(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[struct {
		Prompt string `json:"prompt"`
	}](w, r)
	if !ok {
		return
	}

	suggestion, err := h.Advisor.SuggestType(r.Context(), req.Prompt)
	if err != nil {
		writeDomainError(w, err, "type suggestion failed")
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}

// ValidateLetter handles POST /api/v1/letters/validate
func (h *Handlers) ValidateLetter(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[struct {
		LetterContent string `json:"letter_content"`
		LetterType    string `json:"letter_type"`
	}](w, r)
	if !ok {
		return
	}

	result, err := h.Advisor.Validate(r.Context(), req.LetterContent, letter.Category(req.LetterType))
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeDomainError(w, err, "invalid validation request")
			return
		}
		slog.Error("letter validation failed", "error", err)
		writeError(w, http.StatusBadGateway, "letter validation failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetLetter handles GET /api/v1/letters/{id}
func (h *Handlers) GetLetter(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	l, err := h.Letters.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "letter not found")
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// ListLetters handles GET /api/v1/letters
func (h *Handlers) ListLetters(w http.ResponseWriter, r *http.Request) {
	f := letter.Filter{
		CustomerName: r.URL.Query().Get("customer"),
		Category:     letter.Category(r.URL.Query().Get("type")),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		f.Limit = limit
	}
	if f.Category != "" {
		if _, err := letter.ParseCategory(string(f.Category)); err != nil {
			writeDomainError(w, err, "invalid letter type")
			return
		}
	}

	letters, err := h.Letters.Query(r.Context(), f)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if letters == nil {
		letters = []letter.Letter{}
	}
	writeJSON(w, http.StatusOK, letters)
}

// UpdateLetterStatus handles PATCH /api/v1/letters/{id}/status
func (h *Handlers) UpdateLetterStatus(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	req, ok := readJSON[struct {
		Status string `json:"status"`
	}](w, r)
	if !ok {
		return
	}

	status, err := letter.ParseReviewStatus(req.Status)
	if err != nil {
		writeDomainError(w, err, "invalid review status")
		return
	}
	if err := h.Letters.UpdateStatus(r.Context(), id, status); err != nil {
		writeDomainError(w, err, "letter not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "review_status": string(status)})
}

// DeleteLetter handles DELETE /api/v1/letters/{id}
func (h *Handlers) DeleteLetter(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	if err := h.Letters.SoftDelete(r.Context(), id); err != nil {
		writeDomainError(w, err, "letter not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Login handles POST /api/v1/auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}](w, r)
	if !ok {
		return
	}

	token, expiresIn, err := h.Auth.Login(req.Email, req.Password)
	if err != nil {
		slog.Debug("login failed", "email", req.Email, "error", err)
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   expiresIn,
	})
}

type healthStatus struct {
	Status   string `json:"status"`
	Postgres string `json:"postgres"`
	NATS     string `json:"nats"`
	LiteLLM  string `json:"litellm"`
}

// Health handles GET /health. Dependencies are probed concurrently;
// any unavailable dependency degrades the overall status without
// failing the endpoint.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := healthStatus{Status: "ok", Postgres: "disabled", NATS: "disabled", LiteLLM: "disabled"}

	var g errgroup.Group
	if h.Pool != nil {
		g.Go(func() error {
			if err := h.Pool.Ping(ctx); err != nil {
				status.Postgres = "unavailable"
				return err
			}
			status.Postgres = "ok"
			return nil
		})
	}
	if h.Queue != nil {
		g.Go(func() error {
			if !h.Queue.IsConnected() {
				status.NATS = "unavailable"
				return errors.New("nats disconnected")
			}
			status.NATS = "ok"
			return nil
		})
	}
	if h.LiteLLM != nil {
		g.Go(func() error {
			healthy, err := h.LiteLLM.Health(ctx)
			if err != nil || !healthy {
				status.LiteLLM = "unavailable"
				return errors.New("litellm unhealthy")
			}
			status.LiteLLM = "ok"
			return nil
		})
	}

	code := http.StatusOK
	if err := g.Wait(); err != nil {
		status.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}
