package ingest

import (
	"context"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/attest-tracker/constants"
	"github.com/joseph-ayodele/attest-tracker/internal/extract"
	"github.com/joseph-ayodele/attest-tracker/internal/ocr"
)

// Result is the per-document ingest outcome.
type Result struct {
	SourceName  string
	DocumentID  uuid.UUID // for duplicates, the stored original
	Outcome     constants.Outcome
	Fingerprint string
	Interval    extract.DateInterval
	LineItems   int
	Pairs       int
	Err         string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// TextSource is the OCR collaborator: file -> one page-joined text blob.
type TextSource interface {
	Extract(ctx context.Context, path string) (ocr.ExtractionResult, error)
}

// FieldExtractor turns raw text into structured fields.
type FieldExtractor interface {
	Extract(ctx context.Context, raw string) (extract.Extraction, error)
	Snapshot(ex extract.Extraction) ([]byte, error)
}

// Observer receives one call per finished ingestion.
type Observer interface {
	ObserveIngest(r Result, err error)
}

// Ingestor is the behavior the CLI and daemon depend on.
type Ingestor interface {
	IngestText(ctx context.Context, sourceName, raw string) (Result, error)
	IngestPath(ctx context.Context, path string) (Result, error)
	IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]Result, DirStats, error)
}
