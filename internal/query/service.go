package query

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/attest-tracker/internal/entity"
	"github.com/joseph-ayodele/attest-tracker/internal/repository"
)

// State distinguishes an empty answer from a query that never ran.
type State int

const (
	NotRun State = iota
	NoResults
	Found
)

func (s State) String() string {
	switch s {
	case NoResults:
		return "no_results"
	case Found:
		return "found"
	default:
		return "not_run"
	}
}

type Result struct {
	State     State
	Range     entity.Interval
	Documents []entity.Document
}

// Observer receives the state of each finished query.
type Observer interface {
	ObserveQuery(state string)
}

type Service struct {
	docs     repository.DocumentRepository
	logger   *slog.Logger
	observer Observer
}

func NewService(docs repository.DocumentRepository, logger *slog.Logger, observer Observer) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, logger: logger, observer: observer}
}

// Run returns the documents valid at some point in [from, to], both ends inclusive.
// An inverted range is swapped. Storage failures are returned with State NotRun.
func (s *Service) Run(ctx context.Context, from, to entity.Date) (Result, error) {
	q := entity.Interval{Start: from, End: to}.Normalized()
	if q.Start.IsZero() || q.End.IsZero() {
		return Result{State: NotRun}, fmt.Errorf("query: both range ends are required")
	}

	docs, err := s.docs.FindOverlapping(ctx, q.Start, q.End)
	if err != nil {
		s.logger.Error("interval query failed", "from", q.Start.String(), "to", q.End.String(), "error", err)
		return Result{State: NotRun, Range: q}, fmt.Errorf("query %s..%s: %w", q.Start, q.End, err)
	}

	// the store predicate and the in-memory one must agree; drop anything that slipped through
	kept := docs[:0]
	for _, d := range docs {
		iv, ok := d.Interval()
		if !ok || !iv.Overlaps(q) {
			s.logger.Warn("store returned non-overlapping document", "document_id", d.ID)
			continue
		}
		kept = append(kept, d)
	}

	res := Result{State: NoResults, Range: q, Documents: kept}
	if len(kept) > 0 {
		res.State = Found
	}
	s.logger.Debug("interval query done",
		"from", q.Start.String(),
		"to", q.End.String(),
		"state", res.State.String(),
		"documents", len(kept),
	)
	if s.observer != nil {
		s.observer.ObserveQuery(res.State.String())
	}
	return res, nil
}

// On returns the documents valid on day d.
func (s *Service) On(ctx context.Context, d entity.Date) (Result, error) {
	return s.Run(ctx, d, d)
}
