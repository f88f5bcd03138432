package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"math"

	"github.com/roach88/eleflat/internal/ntuple"
)

// DomainRows prefixes every row digest. The version suffix allows the row
// encoding to change without colliding with old digests.
const DomainRows = "eleflat/rows/v1"

// Rows accumulates a digest over flat rows in emission order.
// The zero value is not usable; call NewRows.
type Rows struct {
	h     hash.Hash
	count int64
}

// NewRows starts a digest: SHA256(domain || 0x00 || row_1 || '\n' || ...).
func NewRows() *Rows {
	h := sha256.New()
	h.Write([]byte(DomainRows))
	h.Write([]byte{0x00})
	return &Rows{h: h}
}

// Add folds one row into the digest.
func (d *Rows) Add(r *ntuple.FlatElectron) error {
	b, err := MarshalCanonical(RowObject(r))
	if err != nil {
		return fmt.Errorf("digest row %d: %w", d.count, err)
	}
	d.h.Write(b)
	d.h.Write([]byte{'\n'})
	d.count++
	return nil
}

// Count returns the number of rows added.
func (d *Rows) Count() int64 { return d.count }

// Sum returns the hex digest of the rows added so far.
func (d *Rows) Sum() string {
	return hex.EncodeToString(d.h.Sum(nil))
}

// RowObject maps a flat row to its canonical object: ints as-is, float32
// columns as their bit pattern.
func RowObject(r *ntuple.FlatElectron) map[string]any {
	obj := make(map[string]any, len(ntuple.Columns))
	for _, c := range ntuple.Columns {
		if c.IsInt() {
			obj[c.Name] = *c.I32(r)
		} else {
			obj[c.Name] = math.Float32bits(*c.F32(r))
		}
	}
	return obj
}

// OfRows digests a slice of rows.
func OfRows(rows []ntuple.FlatElectron) (string, error) {
	d := NewRows()
	for i := range rows {
		if err := d.Add(&rows[i]); err != nil {
			return "", err
		}
	}
	return d.Sum(), nil
}
