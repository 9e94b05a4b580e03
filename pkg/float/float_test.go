package float

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/matzehuels/keygraph/pkg/clock"
	"github.com/matzehuels/keygraph/pkg/layout"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

func origins() layout.Positions {
	return layout.Positions{
		"A": {X: 100, Y: 100}, "A-child": {X: 100, Y: 100},
		"B": {X: 400, Y: 250}, "B-child": {X: 400, Y: 250},
	}
}

func TestParamRanges(t *testing.T) {
	a := New(origins(), nil, Options{Rand: seeded(1)})
	for id := range origins() {
		p, ok := a.Params(id)
		if !ok {
			t.Fatalf("no params for %s", id)
		}
		for _, angle := range []float64{p.AngleX, p.AngleY} {
			if angle < 0 || angle >= 2*math.Pi {
				t.Errorf("%s: angle %v out of [0, 2π)", id, angle)
			}
		}
		for _, speed := range []float64{p.SpeedX, p.SpeedY} {
			if speed < 0.03 || speed >= 0.05 {
				t.Errorf("%s: speed %v out of [0.03, 0.05)", id, speed)
			}
		}
		for _, amp := range []float64{p.AmplitudeX, p.AmplitudeY} {
			if amp < 5 || amp >= 15 {
				t.Errorf("%s: amplitude %v out of [5, 15)", id, amp)
			}
		}
		if p.Origin != origins()[id] {
			t.Errorf("%s: origin %+v", id, p.Origin)
		}
	}
	if _, ok := a.Params("ghost"); ok {
		t.Error("Params(ghost) should not exist")
	}
}

func TestSeededDeterminism(t *testing.T) {
	a := New(origins(), nil, Options{Rand: seeded(42)})
	b := New(origins(), nil, Options{Rand: seeded(42)})
	for id := range origins() {
		pa, _ := a.Params(id)
		pb, _ := b.Params(id)
		if pa != pb {
			t.Errorf("%s: %+v != %+v", id, pa, pb)
		}
	}
}

func TestTicks(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	var frames []layout.Positions
	a := New(origins(), func(p layout.Positions) { frames = append(frames, p) },
		Options{Clock: clk, Rand: seeded(3)})

	before, _ := a.Params("A")
	a.Start()
	a.Start() // no double scheduling

	clk.Advance(59 * time.Millisecond)
	if len(frames) != 0 {
		t.Fatalf("tick before 60ms: %d frames", len(frames))
	}
	clk.Advance(time.Millisecond)
	if len(frames) != 1 {
		t.Fatalf("frames after 60ms = %d, want 1", len(frames))
	}

	wantX := before.Origin.X + before.AmplitudeX*math.Sin(before.AngleX+before.SpeedX)
	wantY := before.Origin.Y + before.AmplitudeY*math.Cos(before.AngleY+before.SpeedY)
	got := frames[0]["A"]
	if math.Abs(got.X-wantX) > 1e-9 || math.Abs(got.Y-wantY) > 1e-9 {
		t.Errorf("A after one tick = %+v, want (%v, %v)", got, wantX, wantY)
	}

	clk.Advance(600 * time.Millisecond)
	if len(frames) != 11 || a.Ticks() != 11 {
		t.Errorf("frames = %d, ticks = %d; want 11", len(frames), a.Ticks())
	}
	if len(frames[0]) != 4 {
		t.Errorf("frame covers %d nodes, want 4", len(frames[0]))
	}
}

func TestStaysWithinAmplitude(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	var last layout.Positions
	a := New(origins(), func(p layout.Positions) { last = p }, Options{Clock: clk, Rand: seeded(9)})
	a.Start()

	for range 500 {
		clk.Advance(DefaultTick)
		for id, p := range last {
			params, _ := a.Params(id)
			if math.Abs(p.X-params.Origin.X) > params.AmplitudeX+1e-9 ||
				math.Abs(p.Y-params.Origin.Y) > params.AmplitudeY+1e-9 {
				t.Fatalf("%s drifted to %+v from %+v", id, p, params.Origin)
			}
		}
	}
}

func TestStop(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	frames := 0
	a := New(origins(), func(layout.Positions) { frames++ }, Options{Clock: clk, Rand: seeded(1)})
	a.Start()
	clk.Advance(120 * time.Millisecond)
	a.Stop()
	clk.Advance(time.Second)

	if frames != 2 {
		t.Errorf("frames = %d, want 2", frames)
	}
	if a.Running() {
		t.Error("Running() after Stop")
	}
	if clk.Pending() != 0 {
		t.Errorf("pending timers = %d", clk.Pending())
	}
}

func TestPanicInTickIsRecovered(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	calls := 0
	var recovered []error
	a := New(origins(), func(layout.Positions) {
		calls++
		if calls == 1 {
			panic("renderer gone")
		}
	}, Options{
		Clock:       clk,
		Rand:        seeded(1),
		OnRecovered: func(err error) { recovered = append(recovered, err) },
	})
	a.Start()
	clk.Advance(180 * time.Millisecond)

	if calls != 3 {
		t.Errorf("sink calls = %d, want 3", calls)
	}
	if len(recovered) != 1 {
		t.Errorf("recovered = %v, want one error", recovered)
	}
}

func TestCustomTick(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	a := New(origins(), nil, Options{Clock: clk, Rand: seeded(1), Tick: 10 * time.Millisecond})
	a.Start()
	clk.Advance(100 * time.Millisecond)
	if a.Ticks() != 10 {
		t.Errorf("ticks = %d, want 10", a.Ticks())
	}
}

func TestEmpty(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	frames := 0
	a := New(layout.Positions{}, func(layout.Positions) { frames++ }, Options{Clock: clk})
	a.Start()
	clk.Advance(DefaultTick)
	if frames != 1 {
		t.Errorf("frames = %d, want 1", frames)
	}
}
