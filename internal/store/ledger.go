package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state of a conversion.
type Status string

const (
	StatusRunning Status = "running"
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
)

// Conversion is one ledger row.
type Conversion struct {
	ID         string           `json:"id"`
	Seq        int64            `json:"seq"`
	Batch      string           `json:"batch,omitempty"`
	Sample     string           `json:"sample"`
	Match      string           `json:"match"`
	Region     string           `json:"region"`
	Input      string           `json:"input"`
	Output     string           `json:"output"`
	Format     string           `json:"format"`
	MaxEvents  int64            `json:"max_events"`
	Status     Status           `json:"status"`
	Events     int64            `json:"events"`
	Electrons  int64            `json:"electrons"`
	Accepted   int64            `json:"accepted"`
	Rejected   map[string]int64 `json:"rejected"`
	Digest     string           `json:"digest,omitempty"`
	WeightMode string           `json:"weight_mode,omitempty"`
	Error      string           `json:"error,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at,omitzero"`
}

// Outcome is what a finished pass reports to the ledger.
type Outcome struct {
	Events     int64
	Electrons  int64
	Accepted   int64
	Rejected   map[string]int64
	Digest     string
	WeightMode string
}

// BeginConversion records a new running conversion. ID and the
// combination fields must be set; Seq, Status and StartedAt are assigned.
func (s *Store) BeginConversion(ctx context.Context, c Conversion) (Conversion, error) {
	if c.ID == "" {
		return Conversion{}, fmt.Errorf("begin conversion: empty id")
	}
	c.Status = StatusRunning
	c.StartedAt = s.now().UTC()
	c.Rejected = map[string]int64{}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO conversions
		(id, seq, batch, sample, match_mode, region, input_path, output_path, format, max_events, status, started_at)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM conversions), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING seq
	`,
		c.ID,
		c.Batch,
		c.Sample,
		c.Match,
		c.Region,
		c.Input,
		c.Output,
		c.Format,
		c.MaxEvents,
		string(c.Status),
		formatTime(c.StartedAt),
	).Scan(&c.Seq)
	if err != nil {
		return Conversion{}, fmt.Errorf("begin conversion: %w", err)
	}
	return c, nil
}

// FinishConversion marks a running conversion ok with its outcome.
func (s *Store) FinishConversion(ctx context.Context, id string, out Outcome) error {
	rejected, err := marshalRejections(out.Rejected)
	if err != nil {
		return fmt.Errorf("finish conversion: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE conversions
		SET status = ?, events = ?, electrons = ?, accepted = ?, rejections = ?,
		    digest = ?, weight_mode = ?, finished_at = ?
		WHERE id = ? AND status = ?
	`,
		string(StatusOK),
		out.Events,
		out.Electrons,
		out.Accepted,
		rejected,
		out.Digest,
		out.WeightMode,
		formatTime(s.now()),
		id,
		string(StatusRunning),
	)
	if err != nil {
		return fmt.Errorf("finish conversion: %w", err)
	}
	return s.checkTransition(ctx, res, id)
}

// FailConversion marks a running conversion failed. Partial counts are
// recorded when known.
func (s *Store) FailConversion(ctx context.Context, id string, out Outcome, cause error) error {
	rejected, err := marshalRejections(out.Rejected)
	if err != nil {
		return fmt.Errorf("fail conversion: %w", err)
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE conversions
		SET status = ?, events = ?, electrons = ?, accepted = ?, rejections = ?,
		    weight_mode = ?, error = ?, finished_at = ?
		WHERE id = ? AND status = ?
	`,
		string(StatusFailed),
		out.Events,
		out.Electrons,
		out.Accepted,
		rejected,
		out.WeightMode,
		msg,
		formatTime(s.now()),
		id,
		string(StatusRunning),
	)
	if err != nil {
		return fmt.Errorf("fail conversion: %w", err)
	}
	return s.checkTransition(ctx, res, id)
}

// checkTransition distinguishes an unknown id from a finished one when an
// update matched no row.
func (s *Store) checkTransition(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}
	c, err := s.GetConversion(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s is %s", ErrNotRunning, id, c.Status)
}

const conversionColumns = `id, seq, batch, sample, match_mode, region, input_path, output_path, format,
	max_events, status, events, electrons, accepted, rejections, digest, weight_mode, error,
	started_at, finished_at`

// GetConversion returns one conversion by id.
// Returns ErrConversionNotFound if not found.
func (s *Store) GetConversion(ctx context.Context, id string) (Conversion, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+conversionColumns+` FROM conversions WHERE id = ?`, id)
	c, err := scanConversion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Conversion{}, fmt.Errorf("%w: %s", ErrConversionNotFound, id)
	}
	return c, err
}

// ListConversions returns every conversion, ordered by seq ASC, id ASC.
func (s *Store) ListConversions(ctx context.Context) ([]Conversion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+conversionColumns+`
		FROM conversions
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list conversions: %w", err)
	}
	defer rows.Close()

	var out []Conversion
	for rows.Next() {
		c, err := scanConversion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversions: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConversion(row scanner) (Conversion, error) {
	var c Conversion
	var status, rejected, started, finished string
	if err := row.Scan(
		&c.ID, &c.Seq, &c.Batch, &c.Sample, &c.Match, &c.Region, &c.Input, &c.Output, &c.Format,
		&c.MaxEvents, &status, &c.Events, &c.Electrons, &c.Accepted, &rejected, &c.Digest,
		&c.WeightMode, &c.Error, &started, &finished,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Conversion{}, err
		}
		return Conversion{}, fmt.Errorf("scan conversion: %w", err)
	}
	c.Status = Status(status)

	var err error
	if c.Rejected, err = unmarshalRejections(rejected); err != nil {
		return Conversion{}, err
	}
	if c.StartedAt, err = parseTime(started); err != nil {
		return Conversion{}, err
	}
	if c.FinishedAt, err = parseTime(finished); err != nil {
		return Conversion{}, err
	}
	return c, nil
}
