package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/letterdesk/letterdesk/internal/config"
	"github.com/letterdesk/letterdesk/internal/domain"
	"github.com/letterdesk/letterdesk/internal/domain/letter"
	"github.com/letterdesk/letterdesk/internal/port/cache"
	"github.com/letterdesk/letterdesk/internal/port/llm"
)

// Advisory confidence and score levels. These are coarse labels mapped
// from the keyword parse, not numeric extractions from model output.
const (
	confidenceMatched  = 0.8
	confidenceFallback = 0.5
	scoreValid         = 0.85
	scoreInvalid       = 0.5
)

const suggestSystemPrompt = `You classify insurance correspondence requests.
Given a request, answer with the single best letter type from this list:
claim_denial, claim_approval, policy_renewal, coverage_change,
premium_increase, cancellation, welcome, general.
Name the type and briefly say why.`

const validateSystemPrompt = `You are an insurance compliance reviewer.
Review the letter below for regulatory compliance, required disclosures,
and professional tone. Start your answer with the single word VALID or
INVALID. Then list findings, one per line, prefixed with "ISSUE:" for
compliance problems and "SUGGESTION:" for improvements.`

// AdvisorService runs single-shot advisory operations outside the panel.
type AdvisorService struct {
	llm   llm.Client
	cache cache.Cache
	cfg   config.Advisor
}

// NewAdvisorService creates an advisor. cache may be nil to disable caching.
func NewAdvisorService(client llm.Client, c cache.Cache, cfg config.Advisor) *AdvisorService {
	return &AdvisorService{llm: client, cache: c, cfg: cfg}
}

// SuggestType classifies a request prompt into a letter category.
// Best-effort: a model failure or unparseable answer yields the general
// category with fallback confidence, never an error.
func (s *AdvisorService) SuggestType(ctx context.Context, prompt string) (*letter.TypeSuggestion, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", domain.ErrValidation)
	}

	key := "suggest:" + hashKey(prompt)
	if cached := s.cachedSuggestion(ctx, key); cached != nil {
		return cached, nil
	}

	resp, err := s.llm.ChatCompletion(ctx, llm.Request{
		Model: s.cfg.Model,
		Messages: []llm.Message{
			{Role: "system", Content: suggestSystemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		slog.Warn("type suggestion model call failed, falling back to general", "error", err)
		return &letter.TypeSuggestion{
			SuggestedType: letter.CategoryGeneral,
			Confidence:    confidenceFallback,
			Reasoning:     "classification unavailable",
		}, nil
	}

	suggestion := parseSuggestion(resp.Content)
	s.cacheSuggestion(ctx, key, suggestion)
	return suggestion, nil
}

// parseSuggestion picks the first category named in the model output,
// scanning in the fixed vocabulary order. No match falls back to general.
func parseSuggestion(content string) *letter.TypeSuggestion {
	lowered := strings.ToLower(content)
	for _, c := range letter.Categories() {
		if !strings.Contains(lowered, string(c)) {
			continue
		}
		sug := &letter.TypeSuggestion{
			SuggestedType: c,
			Confidence:    confidenceMatched,
			Reasoning:     strings.TrimSpace(content),
		}
		if c != letter.CategoryGeneral {
			sug.AlternativeTypes = []letter.Category{letter.CategoryGeneral}
		}
		return sug
	}
	return &letter.TypeSuggestion{
		SuggestedType: letter.CategoryGeneral,
		Confidence:    confidenceFallback,
		Reasoning:     "no known letter type named in model output, defaulting to general",
	}
}

// Validate runs a standalone compliance review of existing letter content.
func (s *AdvisorService) Validate(ctx context.Context, content string, letterType letter.Category) (*letter.ValidationResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: letter content is required", domain.ErrValidation)
	}
	if _, err := letter.ParseCategory(string(letterType)); err != nil {
		return nil, err
	}

	resp, err := s.llm.ChatCompletion(ctx, llm.Request{
		Model: s.cfg.Model,
		Messages: []llm.Message{
			{Role: "system", Content: validateSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Letter type: %s\n\n%s", letterType, content)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("validation model call: %w", err)
	}

	result := parseValidation(resp.Content)
	result.Timestamp = time.Now().UTC()
	return result, nil
}

func parseValidation(content string) *letter.ValidationResult {
	// INVALID must be checked first: VALID is a substring of it.
	upper := strings.ToUpper(content)
	isValid := !strings.Contains(upper, "INVALID") && strings.Contains(upper, "VALID")

	result := &letter.ValidationResult{
		IsValid:     isValid,
		ValidatedBy: "ComplianceReviewer",
	}
	if isValid {
		result.ComplianceScore = scoreValid
	} else {
		result.ComplianceScore = scoreInvalid
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "ISSUE:"):
			result.ComplianceIssues = append(result.ComplianceIssues, strings.TrimSpace(strings.TrimPrefix(line, "ISSUE:")))
		case strings.HasPrefix(line, "SUGGESTION:"):
			result.Suggestions = append(result.Suggestions, strings.TrimSpace(strings.TrimPrefix(line, "SUGGESTION:")))
		}
	}
	return result
}

func (s *AdvisorService) cachedSuggestion(ctx context.Context, key string) *letter.TypeSuggestion {
	if s.cache == nil {
		return nil
	}
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil || !ok {
		return nil
	}
	var sug letter.TypeSuggestion
	if err := json.Unmarshal(data, &sug); err != nil {
		return nil
	}
	return &sug
}

func (s *AdvisorService) cacheSuggestion(ctx context.Context, key string, sug *letter.TypeSuggestion) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(sug)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cfg.SuggestionTTL); err != nil {
		slog.Debug("suggestion cache set failed", "error", err)
	}
}

func hashKey(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}
