package rootio

import (
	"context"
	"errors"
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/roach88/eleflat/internal/ntuple"
)

// FlatTreeTitle is the title of every flat output tree.
const FlatTreeTitle = "Flat_ntuple"

// TreeSink writes flat rows to a ROOT tree, one scalar branch per column.
type TreeSink struct {
	file *riofs.File
	w    rtree.Writer
	buf  ntuple.FlatElectron
	path string
	rows int64
}

// CreateTreeSink creates (or truncates) file and opens a flat tree named
// name in it.
func CreateTreeSink(file, name string) (*TreeSink, error) {
	f, err := groot.Create(file)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", file, err)
	}
	s := &TreeSink{file: f, path: file}
	w, err := rtree.NewWriter(f, name, flatWriteVars(&s.buf), rtree.WithTitle(FlatTreeTitle))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create tree %s in %s: %w", name, file, err)
	}
	s.w = w
	return s, nil
}

// Append writes one row.
func (s *TreeSink) Append(_ context.Context, row *ntuple.FlatElectron) error {
	s.buf = *row
	if _, err := s.w.Write(); err != nil {
		return fmt.Errorf("write row %d to %s: %w", s.rows, s.path, err)
	}
	s.rows++
	return nil
}

// Rows returns the number of rows written.
func (s *TreeSink) Rows() int64 { return s.rows }

// Close flushes the tree and closes the file.
func (s *TreeSink) Close() error {
	werr := s.w.Close()
	if werr != nil {
		werr = fmt.Errorf("close tree in %s: %w", s.path, werr)
	}
	return errors.Join(werr, s.file.Close())
}

func flatWriteVars(r *ntuple.FlatElectron) []rtree.WriteVar {
	vars := make([]rtree.WriteVar, len(ntuple.Columns))
	for i, c := range ntuple.Columns {
		vars[i] = rtree.WriteVar{Name: c.Name, Value: columnPtr(c, r)}
	}
	return vars
}

func flatReadVars(r *ntuple.FlatElectron) []rtree.ReadVar {
	vars := make([]rtree.ReadVar, len(ntuple.Columns))
	for i, c := range ntuple.Columns {
		vars[i] = rtree.ReadVar{Name: c.Name, Value: columnPtr(c, r)}
	}
	return vars
}

func columnPtr(c ntuple.Column, r *ntuple.FlatElectron) any {
	if c.IsInt() {
		return c.I32(r)
	}
	return c.F32(r)
}
