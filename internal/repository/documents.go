package repository

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/attest-tracker/internal/common"
	"github.com/joseph-ayodele/attest-tracker/internal/entity"
)

const (
	tableDocuments = "documents"
	tableLineItems = "line_items"
	tablePairs     = "label_value_pairs"
)

var documentColumns = []string{
	"id", "source_name", "raw_text", "fingerprint", "start_date", "end_date", "extracted_json", "created_at",
}

type DocumentRepository interface {
	// Admit stores doc with its rows unless a document with the same fingerprint exists.
	// It reports false, nil for a duplicate; the stored original is left untouched.
	Admit(ctx context.Context, doc *entity.Document, items []entity.LineItem, pairs []entity.LabelValuePair) (bool, error)
	FindOverlapping(ctx context.Context, from, to entity.Date) ([]entity.Document, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	GetByFingerprint(ctx context.Context, fingerprint [32]byte) (*entity.Document, error)
	List(ctx context.Context, limit, offset int) ([]entity.Document, error)
	ListLineItems(ctx context.Context, documentID uuid.UUID) ([]entity.LineItem, error)
	ListPairs(ctx context.Context, documentID uuid.UUID) ([]entity.LabelValuePair, error)
}

type documentRepository struct {
	store  *Store
	logger *slog.Logger
}

func NewDocumentRepository(store *Store, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepository{
		store:  store,
		logger: logger,
	}
}

func (r *documentRepository) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.store.Dialect())
}

func (r *documentRepository) Admit(ctx context.Context, doc *entity.Document, items []entity.LineItem, pairs []entity.LabelValuePair) (bool, error) {
	if doc == nil {
		return false, fmt.Errorf("%w: nil document", common.ErrInvalidInput)
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	tx, err := r.store.Driver().Tx(ctx)
	if err != nil {
		return false, common.StorageError("begin admit", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var extracted any
	if len(doc.ExtractedJSON) > 0 {
		extracted = string(doc.ExtractedJSON)
	}
	q, args := r.builder().Insert(tableDocuments).
		Columns(documentColumns...).
		Values(
			doc.ID,
			doc.SourceName,
			doc.RawText,
			doc.FingerprintHex(),
			nullableDate(doc.StartDate),
			nullableDate(doc.EndDate),
			extracted,
			r.store.timeArg(doc.CreatedAt),
		).
		OnConflict(entsql.ConflictColumns("fingerprint"), entsql.DoNothing()).
		Query()

	var res sql.Result
	if err := tx.Exec(ctx, q, args, &res); err != nil {
		r.logger.Error("failed to insert document", "fingerprint", doc.FingerprintHex(), "error", err)
		return false, common.StorageError("insert document", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, common.StorageError("insert document", err)
	}
	if n == 0 {
		r.logger.Info("duplicate document rejected", "fingerprint", doc.FingerprintHex())
		return false, nil
	}

	if len(items) > 0 {
		ins := r.builder().Insert(tableLineItems).
			Columns("document_id", "position", "code", "description", "unit", "quantity", "quantity_literal")
		for i := range items {
			items[i].DocumentID = doc.ID
			it := items[i]
			ins.Values(doc.ID, it.Position, it.Code, it.Description, it.Unit, it.Quantity.String(), it.Quantity.Literal)
		}
		q, args := ins.Query()
		if err := tx.Exec(ctx, q, args, nil); err != nil {
			r.logger.Error("failed to insert line items", "document_id", doc.ID, "error", err)
			return false, common.StorageError("insert line items", err)
		}
	}

	if len(pairs) > 0 {
		ins := r.builder().Insert(tablePairs).
			Columns("document_id", "position", "label", "value")
		for i := range pairs {
			pairs[i].DocumentID = doc.ID
			p := pairs[i]
			ins.Values(doc.ID, p.Position, p.Label, p.Value)
		}
		q, args := ins.Query()
		if err := tx.Exec(ctx, q, args, nil); err != nil {
			r.logger.Error("failed to insert label value pairs", "document_id", doc.ID, "error", err)
			return false, common.StorageError("insert pairs", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, common.StorageError("commit admit", err)
	}
	committed = true
	r.logger.Debug("document admitted",
		"document_id", doc.ID,
		"fingerprint", doc.FingerprintHex(),
		"line_items", len(items),
		"pairs", len(pairs),
	)
	return true, nil
}

// FindOverlapping returns documents whose [start_date, end_date] intersects [from, to],
// both ends inclusive. Inverted bounds on either side are evaluated on their [min, max].
func (r *documentRepository) FindOverlapping(ctx context.Context, from, to entity.Date) ([]entity.Document, error) {
	q := entity.Interval{Start: from, End: to}.Normalized()
	lo, hi := q.Start.String(), q.End.String()

	sel := r.builder().Select(documentColumns...).
		From(entsql.Table(tableDocuments)).
		Where(entsql.And(
			entsql.NotNull("start_date"),
			entsql.NotNull("end_date"),
			entsql.Or(
				entsql.And(entsql.LTE("start_date", hi), entsql.GTE("end_date", lo)),
				entsql.And(entsql.LTE("end_date", hi), entsql.GTE("start_date", lo)),
			),
		)).
		OrderBy("start_date", "id")

	docs, err := r.queryDocuments(ctx, sel)
	if err != nil {
		r.logger.Error("failed to query overlapping documents", "from", lo, "to", hi, "error", err)
		return nil, err
	}
	return docs, nil
}

func (r *documentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	sel := r.builder().Select(documentColumns...).
		From(entsql.Table(tableDocuments)).
		Where(entsql.EQ("id", id))
	return r.one(ctx, sel)
}

func (r *documentRepository) GetByFingerprint(ctx context.Context, fingerprint [32]byte) (*entity.Document, error) {
	sel := r.builder().Select(documentColumns...).
		From(entsql.Table(tableDocuments)).
		Where(entsql.EQ("fingerprint", hex.EncodeToString(fingerprint[:])))
	return r.one(ctx, sel)
}

func (r *documentRepository) List(ctx context.Context, limit, offset int) ([]entity.Document, error) {
	sel := r.builder().Select(documentColumns...).
		From(entsql.Table(tableDocuments)).
		OrderBy("created_at", "id")
	if limit > 0 {
		sel.Limit(limit)
	}
	if offset > 0 {
		sel.Offset(offset)
	}
	return r.queryDocuments(ctx, sel)
}

func (r *documentRepository) ListLineItems(ctx context.Context, documentID uuid.UUID) ([]entity.LineItem, error) {
	q, args := r.builder().Select("position", "code", "description", "unit", "quantity", "quantity_literal").
		From(entsql.Table(tableLineItems)).
		Where(entsql.EQ("document_id", documentID)).
		OrderBy("position").
		Query()

	var rows entsql.Rows
	if err := r.store.Driver().Query(ctx, q, args, &rows); err != nil {
		return nil, common.StorageError("list line items", err)
	}
	defer rows.Close()

	var out []entity.LineItem
	for rows.Next() {
		it := entity.LineItem{DocumentID: documentID}
		var literal string
		if err := rows.Scan(&it.Position, &it.Code, &it.Description, &it.Unit, &it.Quantity, &literal); err != nil {
			return nil, common.StorageError("scan line item", err)
		}
		it.Quantity.Literal = literal
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageError("list line items", err)
	}
	return out, nil
}

func (r *documentRepository) ListPairs(ctx context.Context, documentID uuid.UUID) ([]entity.LabelValuePair, error) {
	q, args := r.builder().Select("position", "label", "value").
		From(entsql.Table(tablePairs)).
		Where(entsql.EQ("document_id", documentID)).
		OrderBy("position").
		Query()

	var rows entsql.Rows
	if err := r.store.Driver().Query(ctx, q, args, &rows); err != nil {
		return nil, common.StorageError("list pairs", err)
	}
	defer rows.Close()

	var out []entity.LabelValuePair
	for rows.Next() {
		p := entity.LabelValuePair{DocumentID: documentID}
		if err := rows.Scan(&p.Position, &p.Label, &p.Value); err != nil {
			return nil, common.StorageError("scan pair", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageError("list pairs", err)
	}
	return out, nil
}

func (r *documentRepository) one(ctx context.Context, sel *entsql.Selector) (*entity.Document, error) {
	docs, err := r.queryDocuments(ctx, sel.Limit(1))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, common.ErrNotFound
	}
	return &docs[0], nil
}

func (r *documentRepository) queryDocuments(ctx context.Context, sel *entsql.Selector) ([]entity.Document, error) {
	q, args := sel.Query()
	var rows entsql.Rows
	if err := r.store.Driver().Query(ctx, q, args, &rows); err != nil {
		return nil, common.StorageError("query documents", err)
	}
	defer rows.Close()

	var out []entity.Document
	for rows.Next() {
		doc, err := scanDocument(&rows)
		if err != nil {
			return nil, common.StorageError("scan document", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageError("query documents", err)
	}
	return out, nil
}

func scanDocument(rows *entsql.Rows) (entity.Document, error) {
	var (
		doc         entity.Document
		fingerprint string
		start, end  sql.Null[entity.Date]
		extracted   []byte
		created     timestamp
	)
	if err := rows.Scan(&doc.ID, &doc.SourceName, &doc.RawText, &fingerprint, &start, &end, &extracted, &created); err != nil {
		return entity.Document{}, err
	}
	raw, err := hex.DecodeString(fingerprint)
	if err != nil || len(raw) != len(doc.Fingerprint) {
		return entity.Document{}, fmt.Errorf("malformed fingerprint %q", fingerprint)
	}
	copy(doc.Fingerprint[:], raw)
	if start.Valid {
		d := start.V
		doc.StartDate = &d
	}
	if end.Valid {
		d := end.V
		doc.EndDate = &d
	}
	if len(extracted) > 0 {
		doc.ExtractedJSON = append([]byte(nil), extracted...)
	}
	doc.CreatedAt = time.Time(created)
	return doc, nil
}

func nullableDate(d *entity.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

// timestamp scans TIMESTAMPTZ values (Postgres) and RFC 3339 text (SQLite).
type timestamp time.Time

func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*t = timestamp(v)
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		return errors.New("created_at is null")
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (t *timestamp) parse(s string) error {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = timestamp(parsed)
			return nil
		}
	}
	return fmt.Errorf("cannot parse timestamp %q", s)
}
