package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation marks malformed queries rejected before any remote call.
var ErrValidation = errors.New("validation failed")

// QueryMode selects the retrieval strategy.
type QueryMode string

const (
	ModeFullBook     QueryMode = "full-book"
	ModeSelectedText QueryMode = "selected-text"
)

const (
	maxQueryLength = 2000

	// Word-count bounds for a selected passage. Hard preconditions,
	// not soft filters.
	minSelectionWords = 20
	maxSelectionWords = 2000

	minMaxResults     = 1
	maxMaxResults     = 20
	defaultMaxResults = 5
)

// Query is a user request against the indexed corpus.
type Query struct {
	Text         string    `json:"query_text"`
	Mode         QueryMode `json:"query_mode"`
	SelectedText string    `json:"selected_text,omitempty"`
	SessionID    string    `json:"session_id,omitempty"`
	MaxResults   int       `json:"max_results"`
}

// Validate normalizes defaults and checks the query against its
// preconditions. All failures wrap ErrValidation.
func (q *Query) Validate() error {
	if q.Mode == "" {
		q.Mode = ModeFullBook
	}
	if q.MaxResults == 0 {
		q.MaxResults = defaultMaxResults
	}

	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: query_text must not be empty", ErrValidation)
	}
	if len(q.Text) > maxQueryLength {
		return fmt.Errorf("%w: query_text must not exceed %d characters", ErrValidation, maxQueryLength)
	}
	if q.Mode != ModeFullBook && q.Mode != ModeSelectedText {
		return fmt.Errorf("%w: unknown query_mode %q", ErrValidation, q.Mode)
	}
	if q.MaxResults < minMaxResults || q.MaxResults > maxMaxResults {
		return fmt.Errorf("%w: max_results must be between %d and %d", ErrValidation, minMaxResults, maxMaxResults)
	}
	if q.Mode == ModeSelectedText && q.SelectedText == "" {
		return fmt.Errorf("%w: selected_text is required when query_mode=%q", ErrValidation, ModeSelectedText)
	}
	if q.SelectedText != "" {
		words := len(strings.Fields(q.SelectedText))
		if words < minSelectionWords {
			return fmt.Errorf("%w: selected_text must contain at least %d words (got %d)", ErrValidation, minSelectionWords, words)
		}
		if words > maxSelectionWords {
			return fmt.Errorf("%w: selected_text must not exceed %d words (got %d)", ErrValidation, maxSelectionWords, words)
		}
	}
	return nil
}
