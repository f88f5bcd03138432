package cli

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/hbook"

	"github.com/roach88/eleflat/internal/overlay"
	"github.com/roach88/eleflat/internal/rootio"
	"github.com/roach88/eleflat/internal/store"
	"github.com/roach88/eleflat/internal/testutil"
)

// workspace is a self-contained input and tag directory with a config file.
type workspace struct {
	dir    string
	tuples string
	tag    string
	repo   string
	config string
}

func newWorkspace(t *testing.T, extra string) *workspace {
	t.Helper()
	t.Setenv("ELEFLAT_CONFIG", "")
	dir := t.TempDir()
	ws := &workspace{
		dir:    dir,
		tuples: filepath.Join(dir, "tuples"),
		tag:    filepath.Join(dir, "2019-08-23"),
		repo:   filepath.Join(dir, "cut_repository"),
		config: filepath.Join(dir, "eleflat.yaml"),
	}
	require.NoError(t, os.MkdirAll(ws.tuples, 0o755))
	for _, sample := range []string{"DY", "TT"} {
		require.NoError(t, rootio.WriteEvents(filepath.Join(ws.tuples, sample+".root"), "ntupler/ElectronTree", testutil.SampleEvents()))
	}

	cfg := strings.Join([]string{
		"input_dir: " + ws.tuples,
		"tag_dir: " + ws.tag,
		"cut_repository: " + ws.repo,
		"metrics_file: " + filepath.Join(dir, "metrics", "eleflat.prom"),
		"progress_every: 1",
		extra,
	}, "\n")
	require.NoError(t, os.WriteFile(ws.config, []byte(cfg), 0o644))
	return ws
}

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (ws *workspace) run(t *testing.T, args ...string) (int, CLIResponse, json.RawMessage) {
	t.Helper()
	full := append([]string{"--config", ws.config, "--format", "json"}, args...)
	code, stdout, stderr := execute(t, full...)

	var envelope struct {
		CLIResponse
		Data json.RawMessage `json:"data"`
	}
	if stdout != "" {
		require.NoError(t, json.Unmarshal([]byte(stdout), &envelope), "stdout: %s\nstderr: %s", stdout, stderr)
	}
	return code, envelope.CLIResponse, envelope.Data
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestConvert_WritesTableLedgerAndMetrics(t *testing.T) {
	ws := newWorkspace(t, "")

	code, resp, data := ws.run(t, "convert", "--sample", "TT", "--match", "any", "--region", "full")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "ok", resp.Status)

	c := decode[conversion](t, data)
	assert.Equal(t, "TT/any/full", c.Job)
	assert.Equal(t, filepath.Join(ws.tag, "TT_flat_ntuple_trueAndFake_alleta_full.root"), c.Output)
	assert.Equal(t, int64(4), c.Summary.Events)
	assert.Equal(t, int64(2), c.Summary.Accepted)
	assert.Equal(t, "unit", c.Summary.WeightMode)
	assert.FileExists(t, c.Output)

	metrics, err := os.ReadFile(filepath.Join(ws.dir, "metrics", "eleflat.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `eleflat_events_total{match="any",region="full",sample="TT"} 4`)

	code, _, data = ws.run(t, "runs")
	require.Equal(t, ExitSuccess, code)
	runs := decode[[]store.Conversion](t, data)
	require.Len(t, runs, 1)
	assert.Equal(t, c.ID, runs[0].ID)
	assert.Equal(t, store.StatusOK, runs[0].Status)
	assert.Equal(t, c.Summary.Digest, runs[0].Digest)

	code, _, data = ws.run(t, "verify", c.ID)
	require.Equal(t, ExitSuccess, code)
	v := decode[verification](t, data)
	assert.True(t, v.Match)
	assert.Equal(t, int64(2), v.Rows)
}

func TestConvert_IdempotentDigest(t *testing.T) {
	ws := newWorkspace(t, "")

	_, _, first := ws.run(t, "convert", "--sample", "DY", "--match", "any", "--region", "full")
	_, _, second := ws.run(t, "convert", "--sample", "DY", "--match", "any", "--region", "full")
	a, b := decode[conversion](t, first), decode[conversion](t, second)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Summary.Digest, b.Summary.Digest)
}

func TestConvert_SQLiteTamperIsDetected(t *testing.T) {
	ws := newWorkspace(t, "")

	code, _, data := ws.run(t, "convert", "--sample", "TT", "--match", "any", "--region", "full", "--format-out", "sqlite")
	require.Equal(t, ExitSuccess, code)
	c := decode[conversion](t, data)
	assert.True(t, strings.HasSuffix(c.Output, "_full.db"))

	code, _, _ = ws.run(t, "verify", c.ID)
	require.Equal(t, ExitSuccess, code)

	db, err := sql.Open("sqlite3", c.Output)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE electrons SET "pt" = 99`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	code, _, data = ws.run(t, "verify", c.ID)
	assert.Equal(t, ExitFailure, code)
	v := decode[verification](t, data)
	assert.False(t, v.Match)
	assert.Equal(t, v.ExpectedRows, v.Rows)
}

func TestConvert_MissingSurfaceFailsBeforeReading(t *testing.T) {
	ws := newWorkspace(t, "")

	code, resp, _ := ws.run(t, "convert", "--sample", "DY", "--match", "true", "--region", "barrel")
	assert.Equal(t, ExitCommandError, code)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "weight surface")

	_, _, data := ws.run(t, "runs")
	runs := decode[[]store.Conversion](t, data)
	require.Len(t, runs, 1)
	assert.Equal(t, store.StatusFailed, runs[0].Status)
	assert.Zero(t, runs[0].Events)
}

func TestConvert_WithSurface(t *testing.T) {
	ws := newWorkspace(t, "")
	h := hbook.NewH2D(2, 0, 200, 2, -2.5, 2.5)
	for _, pt := range []float64{50, 150} {
		for _, eta := range []float64{-1, 1} {
			h.Fill(pt, eta, 2)
		}
	}
	require.NoError(t, os.MkdirAll(ws.tag, 0o755))
	require.NoError(t, rootio.WriteSurface(filepath.Join(ws.tag, "kinematicWeights.root"), "hKinematicWeights", h))

	code, _, data := ws.run(t, "convert", "--sample", "DY", "--match", "true", "--region", "barrel")
	require.Equal(t, ExitSuccess, code)
	c := decode[conversion](t, data)
	assert.Equal(t, "surface", c.Summary.WeightMode)
	assert.Equal(t, int64(1), c.Summary.Accepted)

	src, err := rootio.OpenFlatSource(c.Output, "electronTree")
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, int64(1), src.Entries())
}

func TestConvert_MaxEventsNamesOutput(t *testing.T) {
	ws := newWorkspace(t, "")

	code, _, data := ws.run(t, "convert", "--sample", "TT", "--match", "any", "--region", "full", "--max-events", "1")
	require.Equal(t, ExitSuccess, code)
	c := decode[conversion](t, data)
	assert.Equal(t, int64(1), c.Summary.Events)
	assert.Equal(t, filepath.Join(ws.tag, "TT_flat_ntuple_trueAndFake_alleta_1.root"), c.Output)
}

func TestConvert_BadArguments(t *testing.T) {
	ws := newWorkspace(t, "")

	code, _, _ := ws.run(t, "convert", "--sample", "QCD")
	assert.Equal(t, ExitCommandError, code)

	code, _, _ = ws.run(t, "convert", "--sample", "DY", "--format-out", "csv")
	assert.Equal(t, ExitCommandError, code)

	code, _, _ = ws.run(t, "convert", "--sample", "GJ", "--match", "any", "--region", "full")
	assert.Equal(t, ExitCommandError, code, "missing input file")
}

func TestConvert_InvalidConfig(t *testing.T) {
	ws := newWorkspace(t, "output_format: csv")
	code, _, _ := ws.run(t, "convert", "--sample", "TT")
	assert.Equal(t, ExitCommandError, code)
}

func TestBatch_ReportsFailedJobs(t *testing.T) {
	ws := newWorkspace(t, "")
	plan := filepath.Join(ws.dir, "plan.yaml")
	require.NoError(t, os.WriteFile(plan, []byte(`
name: partial
jobs:
  - {sample: TT, match: any, region: full}
  - {sample: DY, match: true, region: barrel}
  - {sample: TT, match: fake, region: endcap}
`), 0o644))

	code, _, data := ws.run(t, "batch", plan, "--no-hook")
	assert.Equal(t, ExitFailure, code)

	report := decode[batchReport](t, data)
	assert.Equal(t, "partial", report.Plan)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Jobs, 3)
	assert.Equal(t, "ok", report.Jobs[0].Status)
	assert.Equal(t, "failed", report.Jobs[1].Status)
	assert.Contains(t, report.Jobs[1].Error, "weight surface")
	assert.Equal(t, "ok", report.Jobs[2].Status)
	require.NotNil(t, report.Jobs[2].Conversion)
	assert.Equal(t, int64(1), report.Jobs[2].Conversion.Summary.Accepted)

	_, _, runsData := ws.run(t, "runs")
	runs := decode[[]store.Conversion](t, runsData)
	require.Len(t, runs, 3)
	for _, r := range runs {
		assert.Equal(t, "partial", r.Batch)
	}
}

func TestBatch_InvalidPlan(t *testing.T) {
	ws := newWorkspace(t, "")
	plan := filepath.Join(ws.dir, "plan.yaml")
	require.NoError(t, os.WriteFile(plan, []byte("jobs: []\n"), 0o644))

	code, _, _ := ws.run(t, "batch", plan)
	assert.Equal(t, ExitCommandError, code)
}

type cutRow struct {
	WorkingPoint string  `json:"working_point"`
	Variable     string  `json:"variable"`
	Value        float64 `json:"value"`
	Symmetric    bool    `json:"symmetric"`
	Source       string  `json:"source"`
}

func TestCuts_Override(t *testing.T) {
	ws := newWorkspace(t, "")

	code, _, data := ws.run(t, "cuts", "dz", "--region", "endcap")
	require.Equal(t, ExitSuccess, code)
	rows := decode[[]cutRow](t, data)
	require.Len(t, rows, 4)
	for _, r := range rows {
		assert.Equal(t, 0.2, r.Value)
		assert.True(t, r.Symmetric)
		assert.Equal(t, "override", r.Source)
	}
	assert.Equal(t, "Veto", rows[0].WorkingPoint)
}

func TestCuts_Repository(t *testing.T) {
	ws := newWorkspace(t, "")
	require.NoError(t, os.MkdirAll(ws.repo, 0o755))
	for i, wp := range []string{"Veto", "Loose", "Medium", "Tight"} {
		body := "cuts: hOverE: value: " + []string{"0.2", "0.1", "0.05", "0.02"}[i] + "\n"
		name := filepath.Join(ws.repo, "cuts_barrel_2019-08-23_WP_"+wp+".cue")
		require.NoError(t, os.WriteFile(name, []byte(body), 0o644))
	}

	code, _, data := ws.run(t, "cuts", "hOverE", "--region", "barrel", "--wp", "Loose")
	require.Equal(t, ExitSuccess, code)
	rows := decode[[]cutRow](t, data)
	require.Len(t, rows, 1)
	assert.Equal(t, "Loose", rows[0].WorkingPoint)
	assert.Equal(t, 0.1, rows[0].Value)
	assert.Equal(t, "repository", rows[0].Source)

	code, _, _ = ws.run(t, "cuts", "hOverE", "--region", "endcap")
	assert.Equal(t, ExitCommandError, code, "endcap cut sets are missing")
}

func TestCuts_MissingRepository(t *testing.T) {
	ws := newWorkspace(t, "")
	code, _, _ := ws.run(t, "cuts", "hOverE", "--region", "barrel")
	assert.Equal(t, ExitCommandError, code)
}

func TestOverlay(t *testing.T) {
	ws := newWorkspace(t, "")
	for _, sample := range []string{"DY", "TT"} {
		code, _, _ := ws.run(t, "convert", "--sample", sample, "--match", "any", "--region", "full")
		require.Equal(t, ExitSuccess, code)
	}

	code, _, data := ws.run(t, "overlay", "hOverE", "--region", "barrel", "--no-cuts")
	require.Equal(t, ExitSuccess, code)
	plot := decode[overlay.Plot](t, data)
	assert.Equal(t, 100, plot.Binning.Bins)
	assert.Equal(t, int64(1), plot.Signal.Entries)
	assert.InDelta(t, 1.0, plot.Signal.SumW, 1e-9)
	require.Len(t, plot.Backgrounds, 2, "no GJ table")
	assert.Zero(t, plot.Backgrounds[0].Entries)

	code, _, data = ws.run(t, "overlay", "dz", "--region", "barrel")
	require.Equal(t, ExitSuccess, code)
	plot = decode[overlay.Plot](t, data)
	assert.Len(t, plot.Markers, 8)

	code, _, _ = ws.run(t, "overlay", "nope", "--region", "barrel", "--no-cuts")
	assert.Equal(t, ExitCommandError, code)
}

func TestOverlay_MissingTables(t *testing.T) {
	ws := newWorkspace(t, "")
	code, _, _ := ws.run(t, "overlay", "hOverE", "--no-cuts")
	assert.Equal(t, ExitCommandError, code)
}

func TestRuns_ExportsSpreadsheet(t *testing.T) {
	ws := newWorkspace(t, "")
	code, _, _ := ws.run(t, "convert", "--sample", "TT", "--match", "any", "--region", "full")
	require.Equal(t, ExitSuccess, code)

	xlsx := filepath.Join(ws.dir, "ledger.xlsx")
	code, _, _ = ws.run(t, "runs", "--xlsx", xlsx)
	require.Equal(t, ExitSuccess, code)
	assert.FileExists(t, xlsx)
}

func TestRuns_TextOutput(t *testing.T) {
	ws := newWorkspace(t, "")
	code, stdout, _ := execute(t, "--config", ws.config, "convert", "--sample", "TT", "--match", "any", "--region", "full")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "TT/any/full ->")
	assert.Contains(t, stdout, "accepted:   2")

	code, stdout, _ = execute(t, "--config", ws.config, "runs")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "TT/any/full")
	assert.Contains(t, stdout, "accepted=2")
}

func TestRuns_NoLedger(t *testing.T) {
	ws := newWorkspace(t, "")
	code, _, _ := ws.run(t, "runs")
	assert.Equal(t, ExitCommandError, code, "ledger file does not exist yet")

	disabled := newWorkspace(t, `ledger: ""`)
	code, _, _ = disabled.run(t, "runs")
	assert.Equal(t, ExitCommandError, code)
}

func TestVerify_UnknownRun(t *testing.T) {
	ws := newWorkspace(t, "")
	code, _, _ := ws.run(t, "convert", "--sample", "TT", "--match", "any", "--region", "full")
	require.Equal(t, ExitSuccess, code)

	code, _, _ = ws.run(t, "verify", "no-such-run")
	assert.Equal(t, ExitCommandError, code)
}
