package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/joseph-ayodele/attest-tracker/constants"
	"github.com/joseph-ayodele/attest-tracker/internal/common"
	"github.com/joseph-ayodele/attest-tracker/internal/entity"
	"github.com/joseph-ayodele/attest-tracker/internal/repository"
)

type Usecase struct {
	Documents   repository.DocumentRepository
	Text        TextSource
	Fields      FieldExtractor
	AllowedExts map[string]struct{} // lowercased sans '.'; nil -> constants.AllowedExtensions
	Observer    Observer
	logger      *slog.Logger
}

func NewUsecase(docs repository.DocumentRepository, text TextSource, fields FieldExtractor, logger *slog.Logger) *Usecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &Usecase{
		Documents: docs,
		Text:      text,
		Fields:    fields,
		logger:    logger,
	}
}

// IngestPath runs OCR on path and ingests the recognized text under the file's base name.
func (u *Usecase) IngestPath(ctx context.Context, path string) (Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Result{SourceName: path}, fmt.Errorf("abs path: %w", err)
	}
	name := filepath.Base(abs)
	if !AllowedExt(filepath.Ext(abs), u.AllowedExts) {
		err := fmt.Errorf("%w: %q", common.ErrUnsupportedFile, filepath.Ext(abs))
		u.observe(Result{SourceName: name, Outcome: constants.OutcomeFailed}, err)
		return Result{SourceName: name, Outcome: constants.OutcomeFailed}, err
	}
	if u.Text == nil {
		return Result{SourceName: name}, errors.New("ingest: no text source configured")
	}

	ocrRes, err := u.Text.Extract(ctx, abs)
	if err != nil {
		u.logger.Error("text extraction failed", "path", abs, "error", err)
		res := Result{SourceName: name, Outcome: constants.OutcomeFailed}
		u.observe(res, err)
		return res, err
	}
	u.logger.Debug("text extracted",
		"path", abs,
		"method", ocrRes.Method,
		"pages", ocrRes.Pages,
		"duration_ms", ocrRes.Duration.Milliseconds(),
	)
	return u.IngestText(ctx, name, ocrRes.Text)
}

// IngestText extracts fields from raw and admits the document unless its fingerprint is already stored.
func (u *Usecase) IngestText(ctx context.Context, sourceName, raw string) (Result, error) {
	ctx, _ = common.EnsureRequestID(ctx)
	logger := common.LoggerFrom(ctx, u.logger).With("source_name", sourceName)

	fp := Fingerprint(raw)
	res := Result{SourceName: sourceName, Fingerprint: FingerprintHex(raw)}

	ex, err := u.Fields.Extract(ctx, raw)
	if err != nil {
		res.Outcome = constants.OutcomeFailed
		u.observe(res, err)
		return res, err
	}
	res.Interval = ex.Interval
	res.LineItems = len(ex.LineItems)
	res.Pairs = len(ex.Pairs)

	snap, err := u.Fields.Snapshot(ex)
	if err != nil {
		// snapshot is auxiliary; the structured rows are still stored
		logger.Warn("extraction snapshot rejected", "error", err)
		snap = nil
	}

	doc := &entity.Document{
		SourceName:    sourceName,
		RawText:       raw,
		Fingerprint:   fp,
		StartDate:     ex.Interval.Start,
		EndDate:       ex.Interval.End,
		ExtractedJSON: snap,
	}
	ok, err := u.Documents.Admit(ctx, doc, ex.LineItems, ex.Pairs)
	if err != nil {
		logger.Error("admit document failed", "fingerprint", res.Fingerprint, "error", err)
		res.Outcome = constants.OutcomeFailed
		u.observe(res, err)
		return res, fmt.Errorf("admit document: %w", err)
	}

	switch {
	case !ok:
		res.Outcome = constants.OutcomeDuplicate
		if existing, err := u.Documents.GetByFingerprint(ctx, fp); err == nil {
			res.DocumentID = existing.ID
		}
	case !ex.Interval.Complete():
		res.Outcome = constants.OutcomeAdmittedWithoutDates
		res.DocumentID = doc.ID
	default:
		res.Outcome = constants.OutcomeAdmitted
		res.DocumentID = doc.ID
	}

	logger.Info("document ingested",
		"outcome", string(res.Outcome),
		"document_id", res.DocumentID,
		"fingerprint", res.Fingerprint,
		"tier", ex.Interval.Tier.String(),
		"line_items", res.LineItems,
		"pairs", res.Pairs,
	)
	u.observe(res, nil)
	return res, nil
}

func (u *Usecase) observe(r Result, err error) {
	if u.Observer != nil {
		u.Observer.ObserveIngest(r, err)
	}
}
