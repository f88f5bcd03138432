package physics

import (
	"fmt"
	"strings"
)

// Sample identifies an input Monte Carlo sample.
type Sample int

const (
	SampleDY Sample = iota + 1
	SampleTT
	SampleGJ
	SampleDoubleEle1to300
	SampleDoubleEle300to6500
)

var sampleNames = map[Sample]string{
	SampleDY:                 "DY",
	SampleTT:                 "TT",
	SampleGJ:                 "GJ",
	SampleDoubleEle1to300:    "DoubleEleFlat1to300",
	SampleDoubleEle300to6500: "DoubleEleFlat300to6500",
}

// Samples lists every known sample in declaration order.
var Samples = []Sample{SampleDY, SampleTT, SampleGJ, SampleDoubleEle1to300, SampleDoubleEle300to6500}

// String returns the sample's file base name, e.g. "DY" or "DoubleEleFlat1to300".
func (s Sample) String() string {
	if name, ok := sampleNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Sample(%d)", int(s))
}

// ParseSample accepts the file base name case-insensitively. The short
// aliases "DoubleEle1to300" and "DoubleEle300to6500" are also accepted.
func ParseSample(s string) (Sample, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, sample := range Samples {
		name := strings.ToLower(sample.String())
		if key == name || key == strings.Replace(name, "flat", "", 1) {
			return sample, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSample, s)
}

// MatchMode selects electrons by their generator truth-match code.
type MatchMode int

const (
	MatchTrue MatchMode = iota + 1
	MatchFake
	MatchAny
)

// Truth-match codes stored in the isTrue branch.
const (
	TruthUnmatched     int32 = 0
	TruthPrompt        int32 = 1
	TruthNonPromptFake int32 = 3
)

// String returns "true", "fake" or "any".
func (m MatchMode) String() string {
	switch m {
	case MatchTrue:
		return "true"
	case MatchFake:
		return "fake"
	case MatchAny:
		return "any"
	}
	return fmt.Sprintf("MatchMode(%d)", int(m))
}

// ParseMatchMode accepts "true", "fake", "any" (and "trueAndFake" for any).
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return MatchTrue, nil
	case "fake":
		return MatchFake, nil
	case "any", "trueandfake":
		return MatchAny, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMatchMode, s)
}

// Accepts reports whether a truth code is compatible with the mode.
// True requires the prompt code, fake requires one of the two fake codes
// and any imposes no constraint.
func (m MatchMode) Accepts(isTrue int32) bool {
	switch m {
	case MatchTrue:
		return isTrue == TruthPrompt
	case MatchFake:
		return isTrue == TruthUnmatched || isTrue == TruthNonPromptFake
	case MatchAny:
		return true
	}
	return false
}

// Region is a pseudorapidity region.
type Region int

const (
	RegionBarrel Region = iota + 1
	RegionEndcap
	RegionFull
)

// String returns "barrel", "endcap" or "full".
func (r Region) String() string {
	switch r {
	case RegionBarrel:
		return "barrel"
	case RegionEndcap:
		return "endcap"
	case RegionFull:
		return "full"
	}
	return fmt.Sprintf("Region(%d)", int(r))
}

// ParseRegion accepts "barrel"/"eb", "endcap"/"ee", "full"/"alleta".
func ParseRegion(s string) (Region, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "barrel", "eb":
		return RegionBarrel, nil
	case "endcap", "ee":
		return RegionEndcap, nil
	case "full", "alleta", "all":
		return RegionFull, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRegion, s)
}
