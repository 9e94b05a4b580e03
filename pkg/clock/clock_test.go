package clock

import (
	"reflect"
	"testing"
	"time"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeAdvanceOrder(t *testing.T) {
	c := NewFake(epoch)
	var got []string

	c.AfterFunc(300*time.Millisecond, func() { got = append(got, "c") })
	c.AfterFunc(100*time.Millisecond, func() { got = append(got, "a") })
	c.AfterFunc(100*time.Millisecond, func() { got = append(got, "b") })

	c.Advance(99 * time.Millisecond)
	if len(got) != 0 {
		t.Fatalf("fired early: %v", got)
	}

	c.Advance(time.Second)
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	if c.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", c.Pending())
	}
}

func TestFakeNestedScheduling(t *testing.T) {
	c := NewFake(epoch)
	var at []time.Duration

	var tick func()
	tick = func() {
		at = append(at, c.Now().Sub(epoch))
		if len(at) < 3 {
			c.AfterFunc(60*time.Millisecond, tick)
		}
	}
	c.AfterFunc(60*time.Millisecond, tick)

	c.Advance(200 * time.Millisecond)

	want := []time.Duration{60 * time.Millisecond, 120 * time.Millisecond, 180 * time.Millisecond}
	if !reflect.DeepEqual(at, want) {
		t.Errorf("ticks at %v, want %v", at, want)
	}
	if got := c.Now().Sub(epoch); got != 200*time.Millisecond {
		t.Errorf("Now() = +%v, want +200ms", got)
	}
}

func TestFakeStop(t *testing.T) {
	c := NewFake(epoch)
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Error("first Stop() = false, want true")
	}
	if timer.Stop() {
		t.Error("second Stop() = true, want false")
	}

	c.Advance(2 * time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestFakeZeroDelayIsNotSynchronous(t *testing.T) {
	c := NewFake(epoch)
	fired := false
	c.AfterFunc(0, func() { fired = true })

	if fired {
		t.Fatal("AfterFunc(0) ran synchronously")
	}
	c.Advance(0)
	if !fired {
		t.Error("AfterFunc(0) did not run on Advance(0)")
	}
}

func TestRealAfterFunc(t *testing.T) {
	done := make(chan struct{})
	Real{}.AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Real.AfterFunc never fired")
	}
}
