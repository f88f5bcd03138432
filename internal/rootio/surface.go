package rootio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/hbook/rootcnv"
	"go-hep.org/x/hep/hbook"

	"github.com/roach88/eleflat/internal/weights"
)

// ReadSurface loads the kinematic weight surface stored as the 2-D
// histogram name in file. A missing file or histogram is reported as
// weights.ErrMissingSurface so callers can regenerate and retry.
func ReadSurface(file, name string) (*weights.Surface, error) {
	if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s does not exist", weights.ErrMissingSurface, file)
	}
	f, err := groot.Open(file)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", file, err)
	}
	defer f.Close()

	obj, err := riofs.Dir(f).Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %s in %s", weights.ErrMissingSurface, ErrHistNotFound, name, file)
	}
	h2, ok := obj.(rhist.H2)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s is a %T", ErrHistNotFound, name, file, obj)
	}
	h := rootcnv.H2D(h2)
	return weights.FromH2D(h)
}

// WriteSurface stores h as the 2-D histogram name in a new file.
func WriteSurface(file, name string, h *hbook.H2D) (err error) {
	f, err := groot.Create(file)
	if err != nil {
		return fmt.Errorf("create %s: %w", file, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	dir, base, err := mkdirFor(f, name)
	if err != nil {
		return err
	}
	if err := dir.Put(base, rhist.NewH2DFrom(h)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
