package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/fixedfield/internal/fixedpoint"
)

// ErrRecordNotFound is returned when a record ID does not exist.
var ErrRecordNotFound = errors.New("record not found")

// RecordInfo describes a stored record.
type RecordInfo struct {
	ID    string `json:"id"`
	Model string `json:"model"`
	Seq   int64  `json:"seq"`
}

// Attribute is one raw attribute of a record.
type Attribute struct {
	Field   string `json:"field"`
	Raw     int64  `json:"raw"`
	Present bool   `json:"present"`
}

// Record is the attribute storage of one record. It implements
// fixedpoint.Attributes.
type Record struct {
	store *Store
	info  RecordInfo
}

var _ fixedpoint.Attributes = (*Record)(nil)

// CreateRecord inserts a new empty record of the given model and returns its ID.
func (s *Store) CreateRecord(ctx context.Context, model string) (string, error) {
	if model == "" {
		return "", fmt.Errorf("create record: model is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("create record: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM records`).Scan(&seq); err != nil {
		return "", fmt.Errorf("create record: next seq: %w", err)
	}

	id := s.ids.Generate()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (id, model, seq)
		VALUES (?, ?, ?)
	`, id, model, seq)
	if err != nil {
		return "", fmt.Errorf("create record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("create record: commit: %w", err)
	}

	return id, nil
}

// Record loads the record with the given ID.
// Returns ErrRecordNotFound if it does not exist.
func (s *Store) Record(ctx context.Context, id string) (*Record, error) {
	var info RecordInfo
	err := s.db.QueryRowContext(ctx, `
		SELECT id, model, seq FROM records WHERE id = ?
	`, id).Scan(&info.ID, &info.Model, &info.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %q: %w", id, ErrRecordNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	return &Record{store: s, info: info}, nil
}

// ListRecords returns the records of a model ordered by seq.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListRecords(ctx context.Context, model string) ([]RecordInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, model, seq
		FROM records
		WHERE model = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, model)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []RecordInfo{}
	for rows.Next() {
		var info RecordInfo
		if err := rows.Scan(&info.ID, &info.Model, &info.Seq); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return records, nil
}

// ID returns the record ID.
func (r *Record) ID() string {
	return r.info.ID
}

// Model returns the model the record belongs to.
func (r *Record) Model() string {
	return r.info.Model
}

// Info returns the record metadata.
func (r *Record) Info() RecordInfo {
	return r.info
}

// ReadRaw implements fixedpoint.Attributes. A missing row and a NULL raw
// column both read as absent.
func (r *Record) ReadRaw(ctx context.Context, field string) (int64, bool, error) {
	var raw sql.NullInt64
	err := r.store.db.QueryRowContext(ctx, `
		SELECT raw FROM attributes WHERE record_id = ? AND field = ?
	`, r.info.ID, field).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read attribute %q: %w", field, err)
	}
	return raw.Int64, raw.Valid, nil
}

// WriteRaw implements fixedpoint.Attributes.
func (r *Record) WriteRaw(ctx context.Context, field string, raw int64) error {
	return r.write(ctx, field, sql.NullInt64{Int64: raw, Valid: true})
}

// ClearRaw removes the recorded value so that the field reads as absent.
func (r *Record) ClearRaw(ctx context.Context, field string) error {
	return r.write(ctx, field, sql.NullInt64{})
}

func (r *Record) write(ctx context.Context, field string, raw sql.NullInt64) error {
	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO attributes (record_id, field, raw)
		VALUES (?, ?, ?)
		ON CONFLICT(record_id, field) DO UPDATE SET raw = excluded.raw
	`, r.info.ID, field, raw)
	if err != nil {
		return fmt.Errorf("write attribute %q: %w", field, err)
	}
	return nil
}

// Attributes returns every stored attribute of the record ordered by field.
func (r *Record) Attributes(ctx context.Context) ([]Attribute, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT field, raw
		FROM attributes
		WHERE record_id = ?
		ORDER BY field COLLATE BINARY ASC
	`, r.info.ID)
	if err != nil {
		return nil, fmt.Errorf("query attributes: %w", err)
	}
	defer rows.Close()

	attrs := []Attribute{}
	for rows.Next() {
		var (
			a   Attribute
			raw sql.NullInt64
		)
		if err := rows.Scan(&a.Field, &raw); err != nil {
			return nil, fmt.Errorf("scan attribute: %w", err)
		}
		a.Raw, a.Present = raw.Int64, raw.Valid
		attrs = append(attrs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attributes: %w", err)
	}

	return attrs, nil
}
