package rootio

import (
	"context"
	"fmt"

	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/roach88/eleflat/internal/ntuple"
)

// FlatSource reads rows back from a flat tree written by TreeSink.
type FlatSource struct {
	file *riofs.File
	tree rtree.Tree
	path string
}

// OpenFlatSource opens the flat tree name in file.
func OpenFlatSource(file, name string) (*FlatSource, error) {
	f, tree, err := openTree(file, name)
	if err != nil {
		return nil, err
	}
	return &FlatSource{file: f, tree: tree, path: file}, nil
}

// Entries returns the number of rows.
func (s *FlatSource) Entries() int64 { return s.tree.Entries() }

// Rows calls fn for every row in storage order. The row is reused between
// calls.
func (s *FlatSource) Rows(ctx context.Context, fn func(*ntuple.FlatElectron) error) error {
	var row ntuple.FlatElectron
	r, err := rtree.NewReader(s.tree, flatReadVars(&row))
	if err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}
	defer r.Close()

	return r.Read(func(rtree.RCtx) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(&row)
	})
}

// Close releases the file.
func (s *FlatSource) Close() error {
	return s.file.Close()
}
