package cuts

import "github.com/roach88/eleflat/internal/physics"

// override is a hand-tuned cut that is not taken from the optimization.
type override struct {
	barrel, endcap [4]float64
	symmetric      bool
}

// overrides take precedence over the repository. The missing-hits values
// are the summer 2016 ones.
var overrides = map[string]override{
	"expectedMissingInnerHits": {
		barrel: [4]float64{2, 1, 1, 1},
		endcap: [4]float64{3, 1, 1, 1},
	},
	"d0": {
		barrel:    [4]float64{0.05, 0.05, 0.05, 0.05},
		endcap:    [4]float64{0.10, 0.10, 0.10, 0.10},
		symmetric: true,
	},
	"dz": {
		barrel:    [4]float64{0.10, 0.10, 0.10, 0.10},
		endcap:    [4]float64{0.20, 0.20, 0.20, 0.20},
		symmetric: true,
	},
}

func lookupOverride(variable string, wp WorkingPoint, region physics.Region) (Cut, bool) {
	o, ok := overrides[variable]
	if !ok {
		return Cut{}, false
	}
	values := o.barrel
	if region == physics.RegionEndcap {
		values = o.endcap
	}
	return Cut{Value: values[wp], Symmetric: o.symmetric}, true
}

// IsOverride reports whether variable is cut by hand rather than from the
// repository.
func IsOverride(variable string) bool {
	_, ok := overrides[variable]
	return ok
}
