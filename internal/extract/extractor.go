package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// MaxExtractionChars bounds the excerpt sent in one extraction call.
const MaxExtractionChars = 400000

// ErrNothingExtracted is returned when the model reply holds no usable
// field after sanitizing.
var ErrNothingExtracted = errors.New("extraction returned no content")

// DivisionExtractor turns a division excerpt into structured scope details.
type DivisionExtractor struct {
	llm       Completer
	log       *slog.Logger
	maxTokens int
}

func NewDivisionExtractor(llm Completer, log *slog.Logger) *DivisionExtractor {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &DivisionExtractor{llm: llm, log: log, maxTokens: 4096}
}

// Details runs the extraction and returns the sanitized struct.
func (e *DivisionExtractor) Details(ctx context.Context, text, label string) (*DivisionDetails, error) {
	text = e.clip(text, MaxExtractionChars, label)

	raw, err := e.llm.Complete(ctx, CompletionRequest{
		System:    DivisionSystemPrompt,
		Prompt:    BuildDivisionPrompt(label, text),
		MaxTokens: e.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", label, err)
	}

	var details DivisionDetails
	if err := DecodeLenient(raw, &details); err != nil {
		e.log.Warn("failed to parse extraction response", "division", label, "raw", truncate(raw, 200), "error", err)
		return nil, fmt.Errorf("parse extraction for %s: %w", label, err)
	}
	if !details.Sanitize() {
		return nil, ErrNothingExtracted
	}
	e.log.Info("division extracted",
		"division", label,
		"materials", len(details.Materials),
		"submittals", len(details.Submittals),
	)
	return &details, nil
}

// Extract is Details rendered as opaque JSON.
func (e *DivisionExtractor) Extract(ctx context.Context, text, label string) (json.RawMessage, error) {
	details, err := e.Details(ctx, text, label)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("marshal extraction: %w", err)
	}
	return b, nil
}

// clip cuts text to limit bytes on a rune boundary.
func (e *DivisionExtractor) clip(text string, limit int, label string) string {
	if len(text) <= limit {
		return text
	}
	e.log.Warn("extraction input truncated", "division", label, "chars", len(text), "limit", limit)
	cut := limit
	for cut > 0 && !isRuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
