package store

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/roach88/eleflat/internal/physics"
)

// LedgerSheet is the sheet name of a ledger export.
const LedgerSheet = "conversions"

// exportHeader lists the exported columns; rejection counts follow in
// physics.Reasons order.
var exportHeader = []string{
	"seq", "id", "batch", "sample", "match", "region", "status",
	"events", "electrons", "accepted", "weight_mode", "digest",
	"started_at", "finished_at", "output", "error",
}

// ExportXLSX writes conversions to a spreadsheet at path, one row each.
func ExportXLSX(path string, conversions []Conversion) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", LedgerSheet); err != nil {
		return fmt.Errorf("export ledger: %w", err)
	}

	header := make([]any, 0, len(exportHeader)+len(physics.Reasons))
	for _, h := range exportHeader {
		header = append(header, h)
	}
	for _, r := range physics.Reasons {
		header = append(header, "rejected_"+string(r))
	}
	if err := f.SetSheetRow(LedgerSheet, "A1", &header); err != nil {
		return fmt.Errorf("export ledger: %w", err)
	}

	for i, c := range conversions {
		row := []any{
			c.Seq, c.ID, c.Batch, c.Sample, c.Match, c.Region, string(c.Status),
			c.Events, c.Electrons, c.Accepted, c.WeightMode, c.Digest,
			formatTime(c.StartedAt), exportTime(c), c.Output, strings.TrimSpace(c.Error),
		}
		for _, r := range physics.Reasons {
			row = append(row, c.Rejected[string(r)])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export ledger: %w", err)
		}
		if err := f.SetSheetRow(LedgerSheet, cell, &row); err != nil {
			return fmt.Errorf("export ledger row %d: %w", i, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("export ledger: %w", err)
	}
	return nil
}

func exportTime(c Conversion) string {
	if c.FinishedAt.IsZero() {
		return ""
	}
	return formatTime(c.FinishedAt)
}
