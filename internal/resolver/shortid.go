package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/dyluth/headcount/internal/ledger"
	"github.com/google/uuid"
)

// MinShortIDLength is the minimum length of a run ID prefix.
const MinShortIDLength = 6

// maxListed bounds how many matches an ambiguity message lists.
const maxListed = 10

// ResolveRunID resolves a run ID or a unique prefix of one to the full ID.
// A full UUID is checked for existence; a prefix must be at least
// MinShortIDLength characters and match exactly one recorded run.
func ResolveRunID(ctx context.Context, store ledger.Store, shortID string) (string, error) {
	if _, err := uuid.Parse(shortID); err == nil && len(shortID) == 36 {
		if _, err := store.GetRun(ctx, shortID); err != nil {
			if ledger.IsNotFound(err) {
				return "", &NotFoundError{ShortID: shortID}
			}
			return "", fmt.Errorf("failed to verify run existence: %w", err)
		}
		return shortID, nil
	}

	if len(shortID) < MinShortIDLength {
		return "", fmt.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(shortID))
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to search for run: %w", err)
	}
	var matches []string
	for _, r := range runs {
		if strings.HasPrefix(r.ID, strings.ToLower(shortID)) {
			matches = append(matches, r.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{ShortID: shortID}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{ShortID: shortID, Matches: matches}
	}
}

// NotFoundError indicates no run matched the short ID.
type NotFoundError struct {
	ShortID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no runs found matching '%s'", e.ShortID)
}

// AmbiguousError indicates several runs matched the short ID.
type AmbiguousError struct {
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d runs", e.ShortID, len(e.Matches))
}

// FormatAmbiguousError lists the matching run IDs for the user.
func FormatAmbiguousError(err *AmbiguousError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ambiguous short ID '%s' matches %d runs:\n", err.ShortID, len(err.Matches))
	for _, m := range err.Matches[:min(len(err.Matches), maxListed)] {
		fmt.Fprintf(&b, "  %s\n", m)
	}
	if extra := len(err.Matches) - maxListed; extra > 0 {
		fmt.Fprintf(&b, "  ...and %d more\n", extra)
	}
	b.WriteString("\nUse a longer prefix to uniquely identify the run.")
	return b.String()
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	_, ok := err.(*AmbiguousError)
	return ok
}
