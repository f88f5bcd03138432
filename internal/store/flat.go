package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/roach88/eleflat/internal/ntuple"
)

// FlatTableName is the table holding flat rows.
const FlatTableName = "electrons"

// flatSchema derives the electrons DDL from ntuple.Columns so the table
// always carries one column per flat branch.
func flatSchema() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE " + FlatTableName + " (\n    seq INTEGER PRIMARY KEY")
	for _, c := range ntuple.Columns {
		typ := "REAL"
		if c.IsInt() {
			typ = "INTEGER"
		}
		fmt.Fprintf(&b, ",\n    %q %s NOT NULL", c.Name, typ)
	}
	b.WriteString("\n)")
	return b.String()
}

func quotedColumns() string {
	names := make([]string, len(ntuple.Columns))
	for i, c := range ntuple.Columns {
		names[i] = fmt.Sprintf("%q", c.Name)
	}
	return strings.Join(names, ", ")
}

// FlatTable is a RowSink writing to a SQLite flat table.
//
// Every row is inserted in one transaction; Close commits it. A table
// that was never closed holds no rows.
type FlatTable struct {
	db   *sql.DB
	tx   *sql.Tx
	stmt *sql.Stmt
	path string
	seq  int64
}

// CreateFlatTable creates a fresh flat-table database at path, replacing
// any existing file.
func CreateFlatTable(ctx context.Context, path string) (*FlatTable, error) {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("replace %s: %w", p, err)
		}
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, flatSchema()); err != nil {
		db.Close()
		return nil, fmt.Errorf("create %s table: %w", FlatTableName, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("begin flat table transaction: %w", err)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ntuple.Columns)+1), ", ")
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO "+FlatTableName+" (seq, "+quotedColumns()+") VALUES ("+placeholders+")")
	if err != nil {
		tx.Rollback()
		db.Close()
		return nil, fmt.Errorf("prepare flat insert: %w", err)
	}
	return &FlatTable{db: db, tx: tx, stmt: stmt, path: path}, nil
}

// Append inserts one row.
func (t *FlatTable) Append(ctx context.Context, row *ntuple.FlatElectron) error {
	t.seq++
	args := make([]any, 0, len(ntuple.Columns)+1)
	args = append(args, t.seq)
	for _, c := range ntuple.Columns {
		if c.IsInt() {
			args = append(args, *c.I32(row))
		} else {
			args = append(args, float64(*c.F32(row)))
		}
	}
	if _, err := t.stmt.ExecContext(ctx, args...); err != nil {
		return fmt.Errorf("insert row %d into %s: %w", t.seq, t.path, err)
	}
	return nil
}

// Rows returns the number of rows appended.
func (t *FlatTable) Rows() int64 { return t.seq }

// Close commits the rows and closes the database.
func (t *FlatTable) Close() error {
	var errs []error
	if err := t.stmt.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close flat insert: %w", err))
	}
	if err := t.tx.Commit(); err != nil {
		errs = append(errs, fmt.Errorf("commit %s: %w", t.path, err))
	}
	if err := t.db.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// FlatReader reads rows back from a SQLite flat table.
type FlatReader struct {
	db   *sql.DB
	path string
}

// OpenFlatTable opens an existing flat table for reading.
func OpenFlatTable(path string) (*FlatReader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open flat table: %w", err)
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &FlatReader{db: db, path: path}, nil
}

// Entries returns the number of rows.
func (r *FlatReader) Entries() int64 {
	var n int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM " + FlatTableName).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Rows calls fn for every row in insertion order. The row is reused
// between calls.
func (r *FlatReader) Rows(ctx context.Context, fn func(*ntuple.FlatElectron) error) error {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+quotedColumns()+" FROM "+FlatTableName+" ORDER BY seq ASC")
	if err != nil {
		return fmt.Errorf("read %s: %w", r.path, err)
	}
	defer rows.Close()

	var row ntuple.FlatElectron
	f64 := make([]float64, len(ntuple.Columns))
	dest := make([]any, len(ntuple.Columns))
	for i, c := range ntuple.Columns {
		if c.IsInt() {
			dest[i] = c.I32(&row)
		} else {
			dest[i] = &f64[i]
		}
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("scan %s: %w", r.path, err)
		}
		for i, c := range ntuple.Columns {
			if !c.IsInt() {
				*c.F32(&row) = float32(f64[i])
			}
		}
		if err := fn(&row); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Close closes the database.
func (r *FlatReader) Close() error {
	return r.db.Close()
}
