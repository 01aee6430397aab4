// Package watch follows runs as they are recorded.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/dyluth/headcount/internal/ledger"
	"github.com/dyluth/headcount/internal/report"
)

// Format selects how streamed rounds are written.
type Format string

const (
	// FormatDefault writes one human-readable line per round.
	FormatDefault Format = "default"

	// FormatJSONL writes one JSON object per round.
	FormatJSONL Format = "jsonl"
)

// Validate checks if the Format is a known value.
func (f Format) Validate() error {
	switch f {
	case FormatDefault, FormatJSONL:
		return nil
	default:
		return fmt.Errorf("unknown output format: %q (must be 'default' or 'jsonl')", f)
	}
}

// RoundSource delivers recorded rounds; *ledger.Subscription is one.
type RoundSource interface {
	Events() <-chan *ledger.Round
	Errors() <-chan error
}

// StreamOptions filters and formats a round stream.
type StreamOptions struct {
	Format Format
	RunID  string // only this run when set
	// UntilFinished stops once a round shows every agent final. Useful with RunID.
	UntilFinished bool
}

// StreamRounds writes rounds from src to w until ctx is cancelled, the
// source closes, or, with UntilFinished, a run completes.
func StreamRounds(ctx context.Context, src RoundSource, w io.Writer, opts StreamOptions) error {
	if opts.Format == "" {
		opts.Format = FormatDefault
	}
	if err := opts.Format.Validate(); err != nil {
		return err
	}

	errs := src.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil

		case round, ok := <-src.Events():
			if !ok {
				return nil
			}
			if opts.RunID != "" && round.RunID != opts.RunID {
				continue
			}
			if err := writeRound(w, round, opts.Format); err != nil {
				return err
			}
			if opts.UntilFinished && len(round.Seats) > 0 && round.Final == len(round.Seats) {
				return nil
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Printf("[Watch] Subscription error: %v", err)
		}
	}
}

func writeRound(w io.Writer, round *ledger.Round, format Format) error {
	if format == FormatJSONL {
		data, err := json.Marshal(round)
		if err != nil {
			return fmt.Errorf("failed to marshal round: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write round: %w", err)
		}
		return nil
	}
	report.FormatRound(w, round)
	return nil
}

// PollForRun polls the store every interval until the run has stopped
// running, and returns it.
func PollForRun(ctx context.Context, store ledger.Store, runID string, interval, timeout time.Duration) (*ledger.Run, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-timeoutCh:
			return nil, fmt.Errorf("timeout waiting for run %s after %v", runID, timeout)

		case <-ticker.C:
			run, err := store.GetRun(ctx, runID)
			if err != nil {
				if ledger.IsNotFound(err) {
					continue
				}
				return nil, fmt.Errorf("failed to query run: %w", err)
			}
			if run.Status != ledger.RunStatusRunning {
				return run, nil
			}
		}
	}
}
