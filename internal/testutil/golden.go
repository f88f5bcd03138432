package testutil

import (
	"bytes"
	"fmt"
	"strconv"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/eleflat/internal/ntuple"
)

// AssertGolden compares data against testdata/golden/<name>.golden.
//
// To regenerate golden files, run the package tests with -update.
func AssertGolden(t *testing.T, name string, data []byte) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}

// FormatRows renders rows one per line as name=value pairs in column
// order. Floats are printed with six decimals.
func FormatRows(rows []ntuple.FlatElectron) []byte {
	var buf bytes.Buffer
	for i := range rows {
		fmt.Fprintf(&buf, "row %d:", i)
		for _, c := range ntuple.Columns {
			buf.WriteByte(' ')
			buf.WriteString(c.Name)
			buf.WriteByte('=')
			if c.IsInt() {
				buf.WriteString(strconv.FormatInt(int64(*c.I32(&rows[i])), 10))
			} else {
				buf.WriteString(strconv.FormatFloat(float64(*c.F32(&rows[i])), 'f', 6, 64))
			}
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
