package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/roach88/eleflat/internal/flatten"
	"github.com/roach88/eleflat/internal/physics"
	"github.com/roach88/eleflat/internal/testutil"
)

var ttAnyFull = flatten.Job{Sample: physics.SampleTT, Match: physics.MatchAny, Region: physics.RegionFull}

func TestRecorderObservesConversion(t *testing.T) {
	Convey("Given a recorder attached to a conversion", t, func() {
		rec := New()
		obs := rec.Observer(ttAnyFull)
		sink := &testutil.MemorySink{}

		sum, err := flatten.Run(context.Background(), ttAnyFull, flatten.Options{Observer: obs},
			testutil.NewMemorySource(testutil.SampleEvents()...), sink)
		So(err, ShouldBeNil)
		rec.ObserveConversion(ttAnyFull, nil, 3*time.Second)

		Convey("Then event and electron counters match the summary", func() {
			So(promtest.ToFloat64(rec.events.WithLabelValues("TT", "any", "full")), ShouldEqual, float64(sum.Events))
			So(promtest.ToFloat64(rec.electrons.WithLabelValues("TT", "any", "full", OutcomeAccepted)), ShouldEqual, float64(sum.Accepted))
			for reason, n := range sum.Rejected {
				So(promtest.ToFloat64(rec.electrons.WithLabelValues("TT", "any", "full", string(reason))), ShouldEqual, float64(n))
			}
			So(promtest.ToFloat64(rec.electrons.WithLabelValues("TT", "any", "full", string(physics.RejectTruth))), ShouldEqual, 0)
		})

		Convey("Then the conversion is counted as ok", func() {
			So(promtest.ToFloat64(rec.conversions.WithLabelValues("TT", "any", "full", StatusOK)), ShouldEqual, 1)
			So(promtest.CollectAndCount(rec.duration), ShouldEqual, 1)
		})
	})
}

func TestRecorderFailedConversion(t *testing.T) {
	Convey("Given a failed conversion", t, func() {
		rec := New()
		job := flatten.Job{Sample: physics.SampleDY, Match: physics.MatchTrue, Region: physics.RegionBarrel}
		rec.ObserveConversion(job, errors.New("boom"), time.Second)

		Convey("Then it is counted under failed", func() {
			So(promtest.ToFloat64(rec.conversions.WithLabelValues("DY", "true", "barrel", StatusFailed)), ShouldEqual, 1)
			So(promtest.ToFloat64(rec.conversions.WithLabelValues("DY", "true", "barrel", StatusOK)), ShouldEqual, 0)
		})
	})
}

func TestRecorderTextfile(t *testing.T) {
	Convey("Given a recorder with a const label", t, func() {
		rec := New(WithConstLabels(prometheus.Labels{"tag": "2019-08-23"}), WithBuckets([]float64{1, 10}))
		obs := rec.Observer(ttAnyFull)
		obs.ObserveEvent()
		obs.ObserveElectron(physics.Accepted)
		rec.ObserveConversion(ttAnyFull, nil, 2*time.Second)

		Convey("When writing the textfile", func() {
			path := filepath.Join(t.TempDir(), "eleflat.prom")
			So(rec.WriteTextfile(path), ShouldBeNil)

			data, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			text := string(data)

			Convey("Then every metric family is present", func() {
				So(text, ShouldContainSubstring, "eleflat_events_total")
				So(text, ShouldContainSubstring, "eleflat_electrons_total")
				So(text, ShouldContainSubstring, "eleflat_conversions_total")
				So(text, ShouldContainSubstring, "eleflat_conversion_duration_seconds_bucket")
				So(text, ShouldContainSubstring, `outcome="accepted"`)
				So(text, ShouldContainSubstring, `tag="2019-08-23"`)
				So(strings.Contains(text, `le="10"`), ShouldBeTrue)
			})
		})
	})
}

func TestRecordersAreIndependent(t *testing.T) {
	Convey("Given two recorders", t, func() {
		a, b := New(), New()
		a.Observer(ttAnyFull).ObserveEvent()

		Convey("Then their registries do not share state", func() {
			So(promtest.ToFloat64(a.events.WithLabelValues("TT", "any", "full")), ShouldEqual, 1)
			So(promtest.ToFloat64(b.events.WithLabelValues("TT", "any", "full")), ShouldEqual, 0)
			So(a.Registry(), ShouldNotEqual, b.Registry())
		})
	})
}
