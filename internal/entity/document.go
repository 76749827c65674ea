package entity

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Document is one admitted upload. It is immutable once stored.
type Document struct {
	ID            uuid.UUID       `json:"id"`
	SourceName    string          `json:"source_name"`
	RawText       string          `json:"raw_text"`
	Fingerprint   [32]byte        `json:"-"`
	StartDate     *Date           `json:"start_date,omitempty"`
	EndDate       *Date           `json:"end_date,omitempty"`
	ExtractedJSON json.RawMessage `json:"extracted_json,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// FingerprintHex is the lowercase hex digest, matching the original text_hash column.
func (d *Document) FingerprintHex() string {
	return hex.EncodeToString(d.Fingerprint[:])
}

// Interval returns the validity interval when both dates are present.
func (d *Document) Interval() (Interval, bool) {
	if d.StartDate == nil || d.EndDate == nil {
		return Interval{}, false
	}
	return Interval{Start: *d.StartDate, End: *d.EndDate}, true
}

// LineItem is one row of the services table.
type LineItem struct {
	DocumentID  uuid.UUID `json:"-"`
	Position    int       `json:"position"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Unit        string    `json:"unit"`
	Quantity    Quantity  `json:"quantity"`
}

// LabelValuePair is a loosely matched (word, number) occurrence.
type LabelValuePair struct {
	DocumentID uuid.UUID `json:"-"`
	Position   int       `json:"position"`
	Label      string    `json:"label"`
	Value      string    `json:"value"`
}
