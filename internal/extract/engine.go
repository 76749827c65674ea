package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/attest-tracker/internal/entity"
)

// Extraction is everything recovered from one document's text.
type Extraction struct {
	Interval  DateInterval
	LineItems []entity.LineItem
	Pairs     []entity.LabelValuePair
	Duration  time.Duration
}

// Engine runs the date, table and pair extractors over one text.
type Engine struct {
	logger    *slog.Logger
	tableOpts []TableOption
	validator *SnapshotValidator
}

func NewEngine(logger *slog.Logger, tableOpts ...TableOption) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	v, err := NewSnapshotValidator()
	if err != nil {
		return nil, err
	}
	return &Engine{logger: logger, tableOpts: tableOpts, validator: v}, nil
}

// Extract runs the three extractors concurrently. None of them can fail on
// its own; the only error is a canceled context.
func (e *Engine) Extract(ctx context.Context, raw string) (Extraction, error) {
	start := time.Now()
	var (
		interval DateInterval
		items    []entity.LineItem
		pairs    []entity.LabelValuePair
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		interval = ExtractInterval(raw)
		return gctx.Err()
	})
	g.Go(func() error {
		for it := range ExtractLineItems(raw, e.tableOpts...) {
			if err := gctx.Err(); err != nil {
				return err
			}
			items = append(items, it)
		}
		return nil
	})
	g.Go(func() error {
		for p := range ExtractPairs(raw) {
			if err := gctx.Err(); err != nil {
				return err
			}
			pairs = append(pairs, p)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Extraction{}, fmt.Errorf("extract: %w", err)
	}

	ex := Extraction{Interval: interval, LineItems: items, Pairs: pairs, Duration: time.Since(start)}
	if !interval.Found() {
		e.logger.Warn("dates not found", "text_bytes", len(raw))
	} else if !interval.Complete() {
		e.logger.Warn("date interval incomplete", "tier", interval.Tier.String(),
			"has_start", interval.Start != nil, "has_end", interval.End != nil)
	}
	e.logger.Debug("extraction done",
		"tier", interval.Tier.String(),
		"line_items", len(items),
		"pairs", len(pairs),
		"duration_ms", ex.Duration.Milliseconds(),
	)
	return ex, nil
}

// Snapshot encodes the extraction and validates it against the snapshot schema.
func (e *Engine) Snapshot(ex Extraction) ([]byte, error) {
	b, err := json.Marshal(ex.snapshot())
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}
	if err := e.validator.Validate(b); err != nil {
		return nil, err
	}
	return b, nil
}

type snapshot struct {
	Tier      string                  `json:"tier"`
	StartDate *entity.Date            `json:"start_date"`
	EndDate   *entity.Date            `json:"end_date"`
	LineItems []entity.LineItem       `json:"line_items"`
	Pairs     []entity.LabelValuePair `json:"pairs"`
}

func (ex Extraction) snapshot() snapshot {
	s := snapshot{
		Tier:      ex.Interval.Tier.String(),
		StartDate: ex.Interval.Start,
		EndDate:   ex.Interval.End,
		LineItems: ex.LineItems,
		Pairs:     ex.Pairs,
	}
	if s.LineItems == nil {
		s.LineItems = []entity.LineItem{}
	}
	if s.Pairs == nil {
		s.Pairs = []entity.LabelValuePair{}
	}
	return s
}
