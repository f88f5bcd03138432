// Package weights implements the per-electron kinematic reweighting factor.
//
// A Surface is a read-only 2-D grid indexed by (pt, etaSC). Inside the grid
// the weight is interpolated bilinearly between bin centres; outside it the
// bin index is clamped to the nearest edge bin and that bin's raw content is
// returned, so out-of-range tails never extrapolate.
package weights

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"go-hep.org/x/hep/hbook"
)

var (
	ErrInvalidSurface     = errors.New("invalid weight surface")
	ErrMissingSurface     = errors.New("kinematic weight surface not available")
	ErrMissingEntryCounts = errors.New("entry counts for high-mass ratio not available")
)

// Surface is an immutable 2-D weight grid. Content is indexed [iy][ix].
type Surface struct {
	xEdges  []float64
	yEdges  []float64
	xCenter []float64
	yCenter []float64
	content [][]float64
}

// NewSurface builds a Surface from ascending bin edges and contents laid out
// as content[iy][ix]. The inputs are copied.
func NewSurface(xEdges, yEdges []float64, content [][]float64) (*Surface, error) {
	if err := checkEdges("x", xEdges); err != nil {
		return nil, err
	}
	if err := checkEdges("y", yEdges); err != nil {
		return nil, err
	}
	nx, ny := len(xEdges)-1, len(yEdges)-1
	if len(content) != ny {
		return nil, fmt.Errorf("%w: %d content rows for %d y bins", ErrInvalidSurface, len(content), ny)
	}
	s := &Surface{
		xEdges:  append([]float64(nil), xEdges...),
		yEdges:  append([]float64(nil), yEdges...),
		xCenter: centers(xEdges),
		yCenter: centers(yEdges),
		content: make([][]float64, ny),
	}
	for iy, row := range content {
		if len(row) != nx {
			return nil, fmt.Errorf("%w: row %d has %d bins, want %d", ErrInvalidSurface, iy, len(row), nx)
		}
		s.content[iy] = append([]float64(nil), row...)
	}
	return s, nil
}

// FromH2D converts a go-hep histogram into a Surface, using each bin's sum
// of weights as its content.
func FromH2D(h *hbook.H2D) (*Surface, error) {
	if h == nil {
		return nil, fmt.Errorf("%w: nil histogram", ErrInvalidSurface)
	}
	nx, ny := h.Binning.Nx, h.Binning.Ny
	bins := h.Binning.Bins
	if nx < 1 || ny < 1 || len(bins) != nx*ny {
		return nil, fmt.Errorf("%w: %dx%d binning with %d bins", ErrInvalidSurface, nx, ny, len(bins))
	}

	xEdges := make([]float64, 0, nx+1)
	for ix := 0; ix < nx; ix++ {
		xEdges = append(xEdges, bins[ix].XRange.Min)
	}
	xEdges = append(xEdges, bins[nx-1].XRange.Max)

	yEdges := make([]float64, 0, ny+1)
	for iy := 0; iy < ny; iy++ {
		yEdges = append(yEdges, bins[iy*nx].YRange.Min)
	}
	yEdges = append(yEdges, bins[(ny-1)*nx].YRange.Max)

	content := make([][]float64, ny)
	for iy := range content {
		content[iy] = make([]float64, nx)
		for ix := range content[iy] {
			content[iy][ix] = bins[iy*nx+ix].SumW()
		}
	}
	return NewSurface(xEdges, yEdges, content)
}

// Dims returns the number of x and y bins.
func (s *Surface) Dims() (nx, ny int) {
	return len(s.xEdges) - 1, len(s.yEdges) - 1
}

// Content returns the raw content of bin (ix, iy).
func (s *Surface) Content(ix, iy int) float64 {
	return s.content[iy][ix]
}

// Lookup returns the weight at (x, y).
//
// When both coordinates fall inside [low, high) of their axis the weight is
// interpolated; otherwise each bin index is clamped to the grid and the raw
// bin content is returned.
func (s *Surface) Lookup(x, y float64) float64 {
	nx, ny := s.Dims()
	ix := findBin(s.xEdges, x)
	iy := findBin(s.yEdges, y)
	if ix < 0 || ix >= nx || iy < 0 || iy >= ny {
		return s.content[clamp(iy, ny)][clamp(ix, nx)]
	}
	return s.Interpolate(x, y)
}

// Interpolate performs bilinear interpolation between the four bin centres
// surrounding (x, y). Neighbour indices are clamped to the grid, so points
// within the outer half of an edge bin take that bin's value along the
// clamped axis. The result always lies between its neighbours' contents.
func (s *Surface) Interpolate(x, y float64) float64 {
	x0, x1, tx := neighbours(s.xCenter, x)
	y0, y1, ty := neighbours(s.yCenter, y)
	q00 := s.content[y0][x0]
	q10 := s.content[y0][x1]
	q01 := s.content[y1][x0]
	q11 := s.content[y1][x1]
	return (1-tx)*(1-ty)*q00 + tx*(1-ty)*q10 + (1-tx)*ty*q01 + tx*ty*q11
}

// findBin returns i with edges[i] <= v < edges[i+1], -1 below the first
// edge (and for NaN) and len(edges)-1 at or above the last edge.
func findBin(edges []float64, v float64) int {
	if math.IsNaN(v) || v < edges[0] {
		return -1
	}
	return sort.Search(len(edges), func(i int) bool { return edges[i] > v }) - 1
}

func neighbours(centers []float64, v float64) (lo, hi int, t float64) {
	last := len(centers) - 1
	if !(v > centers[0]) {
		return 0, 0, 0
	}
	if v >= centers[last] {
		return last, last, 0
	}
	hi = sort.Search(len(centers), func(i int) bool { return centers[i] > v })
	lo = hi - 1
	return lo, hi, (v - centers[lo]) / (centers[hi] - centers[lo])
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func centers(edges []float64) []float64 {
	c := make([]float64, len(edges)-1)
	for i := range c {
		c[i] = 0.5 * (edges[i] + edges[i+1])
	}
	return c
}

func checkEdges(axis string, edges []float64) error {
	if len(edges) < 2 {
		return fmt.Errorf("%w: %s axis needs at least two edges", ErrInvalidSurface, axis)
	}
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return fmt.Errorf("%w: %s edges not ascending at index %d", ErrInvalidSurface, axis, i)
		}
	}
	return nil
}
