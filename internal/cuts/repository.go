package cuts

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/eleflat/internal/layout"
	"github.com/roach88/eleflat/internal/physics"
)

//go:embed schema.cue
var schemaCUE string

// Cut is one variable's threshold in a cut set.
type Cut struct {
	Value     float64 `json:"value"`
	Symmetric bool    `json:"symmetric"`
}

// CutSet maps variable names to cuts for one (region, working point).
type CutSet map[string]Cut

// Variables returns the variable names in sorted order.
func (cs CutSet) Variables() []string {
	names := make([]string, 0, len(cs))
	for name := range cs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Repository loads cut sets from a directory of CUE files named
// cuts_<region>_<dateTag>_WP_<wp>.cue. Loaded sets are cached.
//
// Thread-safety: Repository is safe for concurrent use.
type Repository struct {
	dir     string
	dateTag string

	mu    sync.Mutex
	cache map[string]CutSet
}

// OpenRepository checks that dir exists.
func OpenRepository(dir, dateTag string) (*Repository, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrRepositoryNotFound, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("open cut repository: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrRepositoryNotFound, dir)
	}
	return &Repository{dir: dir, dateTag: dateTag, cache: map[string]CutSet{}}, nil
}

// Path returns the file holding the cut set for (region, wp).
func (r *Repository) Path(region physics.Region, wp WorkingPoint) (string, error) {
	name, err := regionName(region)
	if err != nil {
		return "", err
	}
	if !wp.valid() {
		return "", fmt.Errorf("%w: %d", ErrUnknownWorkingPoint, int(wp))
	}
	return layout.CutSetPath(r.dir, name, r.dateTag, wp.String()), nil
}

// Load returns the cut set for (region, wp).
func (r *Repository) Load(region physics.Region, wp WorkingPoint) (CutSet, error) {
	path, err := r.Path(region, wp)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cs, ok := r.cache[path]; ok {
		return cs, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrCutSetNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read cut set: %w", err)
	}
	cs, err := ParseCutSet(path, data)
	if err != nil {
		return nil, err
	}
	r.cache[path] = cs
	return cs, nil
}

// ParseCutSet compiles a CUE cut set, unifies it with the schema and
// decodes it. The result must be concrete.
func ParseCutSet(filename string, data []byte) (CutSet, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile cut set schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, formatCUEError(err))
	}

	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, formatCUEError(err))
	}

	cutsVal := unified.LookupPath(cue.ParsePath("cuts"))
	if !cutsVal.Exists() {
		return nil, fmt.Errorf("%s: %w: no cuts field", filename, ErrInvalidCutSet)
	}
	var cs CutSet
	if err := cutsVal.Decode(&cs); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, formatCUEError(err))
	}
	return cs, nil
}
