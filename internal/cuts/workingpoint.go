package cuts

import (
	"fmt"
	"strings"

	"github.com/roach88/eleflat/internal/physics"
)

// WorkingPoint is an electron-ID working point, loosest first.
type WorkingPoint int

const (
	Veto WorkingPoint = iota
	Loose
	Medium
	Tight
)

// WorkingPoints lists all working points in index order.
var WorkingPoints = []WorkingPoint{Veto, Loose, Medium, Tight}

var wpNames = [...]string{"Veto", "Loose", "Medium", "Tight"}

func (wp WorkingPoint) String() string {
	if wp.valid() {
		return wpNames[wp]
	}
	return fmt.Sprintf("WorkingPoint(%d)", int(wp))
}

func (wp WorkingPoint) valid() bool { return wp >= Veto && wp <= Tight }

// ParseWorkingPoint accepts a name ("veto", "Tight") or an index ("0".."3").
func ParseWorkingPoint(s string) (WorkingPoint, error) {
	s = strings.TrimSpace(s)
	for i, name := range wpNames {
		if strings.EqualFold(s, name) || s == fmt.Sprint(i) {
			return WorkingPoint(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownWorkingPoint, s)
}

// regionName maps the cut regions to their file-name token.
func regionName(r physics.Region) (string, error) {
	switch r {
	case physics.RegionBarrel:
		return "barrel", nil
	case physics.RegionEndcap:
		return "endcap", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedRegion, r)
}
