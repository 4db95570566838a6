package http

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		// Letters
		r.Post("/letters/draft", h.DraftLetter)
		r.Post("/letters/suggest-type", h.SuggestLetterType)
		r.Post("/letters/validate", h.ValidateLetter)
		r.Get("/letters", h.ListLetters)
		r.Get("/letters/{id}", h.GetLetter)
		r.Patch("/letters/{id}/status", h.UpdateLetterStatus)
		r.Delete("/letters/{id}", h.DeleteLetter)

		// Auth (login is exempted by the auth middleware)
		r.Post("/auth/login", h.Login)
	})
}
