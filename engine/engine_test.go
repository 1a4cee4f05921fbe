package engine

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"gmbp/offspring"
	"gmbp/prng"
	"gmbp/rate"
	"gmbp/sink"
	"gmbp/stopping"
	"gmbp/system"
)

func newDeathSystem(initial int64, rateVal float64) *system.System {
	sys := system.New(system.State{initial})
	sys.AddTransition(system.NewTransition(0, rate.Constant{Value: rateVal}, offspring.NewFixed([]int64{-1})))
	return sys
}

func newYuleSystem(initial int64, birthRate float64) *system.System {
	sys := system.New(system.State{initial})
	sys.AddTransition(system.NewTransition(0, rate.Constant{Value: birthRate}, offspring.NewFixed([]int64{2})))
	return sys
}

func TestPureDeathProcessReachesExtinction(t *testing.T) {
	Convey("Given a pure-death process with 50 individuals and constant per-capita death rate", t, func() {
		sys := newDeathSystem(50, 1.0)
		So(sys.Freeze(), ShouldBeNil)

		seed := int64(123)
		src := prng.New(&seed)
		buf := sink.NewBuffer()
		sim := NewSimulator(sys, src, buf, 0, true)

		Convey("Simulating over a long horizon reaches extinction", func() {
			reason, err := sim.Simulate(context.Background(), UniformGrid(1000), 10, 0.01)
			So(err, ShouldBeNil)
			So(reason, ShouldEqual, ReasonExtinct)

			Convey("State counts never go negative along the recorded trajectory", func() {
				for _, row := range buf.Snapshot() {
					for _, v := range row.State {
						So(v, ShouldBeGreaterThanOrEqualTo, int64(0))
					}
				}
			})

			Convey("The final recorded state is extinct", func() {
				rows := buf.Snapshot()
				last := rows[len(rows)-1]
				So(last.State.Extinct(), ShouldBeTrue)
			})
		})
	})
}

func TestYuleProcessGrowsAndCompletesGrid(t *testing.T) {
	Convey("Given a pure-birth (Yule) process", t, func() {
		sys := newYuleSystem(1, 0.05)
		So(sys.Freeze(), ShouldBeNil)

		seed := int64(7)
		src := prng.New(&seed)
		buf := sink.NewBuffer()
		sim := NewSimulator(sys, src, buf, 0, true)

		Convey("Simulating to grid completion produces a monotone, non-decreasing trajectory", func() {
			reason, err := sim.Simulate(context.Background(), UniformGrid(20), 10, 0.01)
			So(err, ShouldBeNil)
			So(reason, ShouldEqual, ReasonGridComplete)

			rows := buf.Snapshot()
			So(len(rows), ShouldBeGreaterThan, 0)
			for i := 1; i < len(rows); i++ {
				So(rows[i].Time, ShouldBeGreaterThanOrEqualTo, rows[i-1].Time)
				So(rows[i].State[0], ShouldBeGreaterThanOrEqualTo, rows[i-1].State[0])
			}
		})
	})
}

func TestStoppingCriterionHaltsSimulation(t *testing.T) {
	Convey("Given a Yule process with a population-size stopping criterion", t, func() {
		sys := newYuleSystem(1, 1.0)
		sys.AddStop(stopping.Criterion{Indices: []int{0}, Comparator: stopping.GE, Value: 20})
		So(sys.Freeze(), ShouldBeNil)

		seed := int64(99)
		src := prng.New(&seed)
		buf := sink.NewBuffer()
		sim := NewSimulator(sys, src, buf, 0, true)

		Convey("The run terminates with ReasonStopped once the threshold is met", func() {
			reason, err := sim.Simulate(context.Background(), UniformGrid(10000), 10, 0.01)
			So(err, ShouldBeNil)
			So(reason, ShouldEqual, ReasonStopped)

			rows := buf.Snapshot()
			last := rows[len(rows)-1]
			So(last.State[0], ShouldBeGreaterThanOrEqualTo, int64(20))
		})
	})
}

func TestCancellationStopsTheLoopPromptly(t *testing.T) {
	Convey("Given a slow-growing Yule process and an already-cancelled context", t, func() {
		sys := newYuleSystem(1, 0.0001)
		So(sys.Freeze(), ShouldBeNil)

		src := prng.New(nil)
		buf := sink.NewBuffer()
		sim := NewSimulator(sys, src, buf, 0, true)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("Simulate returns ReasonCancelled immediately", func() {
			reason, err := sim.Simulate(ctx, UniformGrid(1_000_000), 10, 0.01)
			So(reason, ShouldEqual, ReasonCancelled)
			So(err, ShouldEqual, ErrCancelled)
		})
	})
}

func TestInhomogeneousSwitchRateDominatesEnvelope(t *testing.T) {
	Convey("Given a death process whose rate switches upward partway through the horizon", t, func() {
		sys := system.New(system.State{200})
		sys.AddTransition(system.NewTransition(0,
			rate.Switch{Pre: 0.1, Post: 5.0, TSwitch: 5},
			offspring.NewFixed([]int64{-1})))
		So(sys.Freeze(), ShouldBeNil)
		So(sys.Homogeneous(), ShouldBeFalse)

		seed := int64(55)
		src := prng.New(&seed)
		buf := sink.NewBuffer()
		sim := NewSimulator(sys, src, buf, 0, true)

		Convey("The thinning loop runs to extinction or grid completion without an envelope violation", func() {
			reason, err := sim.Simulate(context.Background(), UniformGrid(50), 20, 0.02)
			So(err, ShouldBeNil)
			So(reason, ShouldBeIn, ReasonExtinct, ReasonGridComplete)
		})
	})
}

func TestReplicatesAreIsolatedAndReproducible(t *testing.T) {
	Convey("Given a factory producing independent death-process systems", t, func() {
		factory := func(rep int64) (*system.System, error) {
			return newDeathSystem(30, 1.0), nil
		}
		seedFor := func(rep int64) *int64 {
			s := int64(1000 + rep)
			return &s
		}

		Convey("Running it twice with the same seeds produces identical trajectories", func() {
			run := func() []sink.Row {
				buf := sink.NewBuffer()
				err := RunReplicates(context.Background(), 4, 2, factory, seedFor, UniformGrid(50), 10, 0.01, buf)
				So(err, ShouldBeNil)
				return buf.Snapshot()
			}

			first := run()
			second := run()

			byReplicate := func(rows []sink.Row) map[int64][]sink.Row {
				m := map[int64][]sink.Row{}
				for _, r := range rows {
					m[r.Replicate] = append(m[r.Replicate], r)
				}
				return m
			}

			a, b := byReplicate(first), byReplicate(second)
			So(len(a), ShouldEqual, len(b))
			for rep := range a {
				So(len(a[rep]), ShouldEqual, len(b[rep]))
				for i := range a[rep] {
					So(a[rep][i].Time, ShouldEqual, b[rep][i].Time)
					So(a[rep][i].State, ShouldResemble, b[rep][i].State)
				}
			}
		})
	})
}

func TestRunReplicatesRespectsContextCancellation(t *testing.T) {
	Convey("Given many slow replicates and a context cancelled shortly after starting", t, func() {
		factory := func(rep int64) (*system.System, error) {
			return newYuleSystem(1, 0.0001), nil
		}
		seedFor := func(rep int64) *int64 { return nil }

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		defer cancel()

		buf := sink.NewBuffer()
		err := RunReplicates(ctx, 8, 4, factory, seedFor, UniformGrid(1_000_000), 10, 0.01, buf)

		Convey("RunReplicates returns without hanging, surfacing the cancellation", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
