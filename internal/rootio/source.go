package rootio

import (
	"context"
	"errors"
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/roach88/eleflat/internal/ntuple"
)

// TreeSource reads events from an event-structured input tree.
type TreeSource struct {
	file      *riofs.File
	tree      rtree.Tree
	path      string
	maxEvents int64
}

// OpenTreeSource opens the input tree name in file. maxEvents > 0 limits
// reading to the first maxEvents entries.
func OpenTreeSource(file, name string, maxEvents int64) (*TreeSource, error) {
	f, tree, err := openTree(file, name)
	if err != nil {
		return nil, err
	}
	return &TreeSource{file: f, tree: tree, path: file, maxEvents: maxEvents}, nil
}

// Entries returns the number of events the source will yield.
func (s *TreeSource) Entries() int64 {
	return readRange(s.tree.Entries(), s.maxEvents)
}

// Events calls fn for every event in storage order. The event's slices
// are reused between calls.
func (s *TreeSource) Events(ctx context.Context, fn func(*ntuple.Event) error) error {
	var ev ntuple.Event
	r, err := rtree.NewReader(s.tree, eventReadVars(&ev), rtree.WithRange(0, s.Entries()))
	if err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}
	defer r.Close()

	return r.Read(func(rtree.RCtx) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(&ev)
	})
}

// Close releases the input file.
func (s *TreeSource) Close() error {
	return s.file.Close()
}

func eventReadVars(ev *ntuple.Event) []rtree.ReadVar {
	return []rtree.ReadVar{
		{Name: "nEle", Value: &ev.NEle},
		{Name: "rho", Value: &ev.Rho},
		{Name: "nPV", Value: &ev.NPV},
		{Name: "genWeight", Value: &ev.GenWeight},
		{Name: "pt", Value: &ev.Pt},
		{Name: "genPt", Value: &ev.GenPt},
		{Name: "eSC", Value: &ev.ESC},
		{Name: "etaSC", Value: &ev.EtaSC},
		{Name: "phiSC", Value: &ev.PhiSC},
		{Name: "isoChargedHadrons", Value: &ev.IsoChargedHadrons},
		{Name: "isoNeutralHadrons", Value: &ev.IsoNeutralHadrons},
		{Name: "isoPhotons", Value: &ev.IsoPhotons},
		{Name: "isTrue", Value: &ev.IsTrue},
		{Name: "d0", Value: &ev.D0},
		{Name: "dz", Value: &ev.Dz},
		{Name: "dEtaSeed", Value: &ev.DEtaSeed},
		{Name: "dPhiIn", Value: &ev.DPhiIn},
		{Name: "full5x5_sigmaIetaIeta", Value: &ev.Full5x5SigmaIEtaIEta},
		{Name: "hOverE", Value: &ev.HOverE},
		{Name: "ooEmooP", Value: &ev.OOEmOOP},
		{Name: "expectedMissingInnerHits", Value: &ev.ExpectedMissingInnerHits},
		{Name: "passConversionVeto", Value: &ev.PassConversionVeto},
	}
}

func eventWriteVars(ev *ntuple.Event) []rtree.WriteVar {
	rvars := eventReadVars(ev)
	wvars := make([]rtree.WriteVar, len(rvars))
	for i, rv := range rvars {
		wvars[i] = rtree.WriteVar{Name: rv.Name, Value: rv.Value}
	}
	return wvars
}

// WriteEvents writes events as an event-structured tree named name into a
// new file. It produces inputs in the layout OpenTreeSource reads.
func WriteEvents(file, name string, events []*ntuple.Event) (err error) {
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

	var buf ntuple.Event
	w, err := rtree.NewWriter(dir, base, eventWriteVars(&buf), rtree.WithTitle("ElectronTree"))
	if err != nil {
		return fmt.Errorf("create tree %s: %w", name, err)
	}
	for i, ev := range events {
		if err := ev.Validate(); err != nil {
			w.Close()
			return fmt.Errorf("event %d: %w", i, err)
		}
		buf = *ev
		if _, err := w.Write(); err != nil {
			w.Close()
			return fmt.Errorf("write event %d: %w", i, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close tree %s: %w", name, err)
	}
	return nil
}
