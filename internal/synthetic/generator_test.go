package synthetic

import (
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"github.com/janisvco/stepfeed/internal/readings"
)

func TestStepWalk(t *testing.T) {
	s := readings.NewStore()
	w := &StepWalk{target: s, rng: rand.New(rand.NewPCG(1, 2))}

	w.Seed()
	if s.Steps() != 1250 || s.Speed() != 3.5 {
		t.Fatalf("seed = %d steps, %v speed", s.Steps(), s.Speed())
	}

	prev := s.Steps()
	for i := 0; i < 200; i++ {
		w.Step()
		delta := s.Steps() - prev
		if delta < 5 || delta > 14 {
			t.Fatalf("step %d: delta = %d, want 5..14", i, delta)
		}
		prev = s.Steps()

		speed := s.Speed()
		if speed < 3.0 || speed > 6.0 {
			t.Fatalf("step %d: speed = %v, want 3.0..6.0", i, speed)
		}
	}
}

func TestHeartWalk(t *testing.T) {
	s := readings.NewStore()
	w := &HeartWalk{target: s, rng: rand.New(rand.NewPCG(3, 4))}

	w.Seed()
	if s.HeartRate() != 65 {
		t.Fatalf("seed heart rate = %v, want 65", s.HeartRate())
	}

	wrapped := false
	for i := 0; i < 200; i++ {
		prev := s.HeartRate()
		w.Step()
		hr := s.HeartRate()

		if prev > heartCeiling {
			if hr != heartFloor {
				t.Fatalf("step %d: %v above ceiling should wrap to %v, got %v", i, prev, heartFloor, hr)
			}
			wrapped = true
			continue
		}
		if d := hr - prev; d < 3 || d > 10 {
			t.Fatalf("step %d: delta = %v, want 3..10", i, d)
		}
	}
	if !wrapped {
		t.Error("heart rate never wrapped in 200 steps")
	}
}

func TestGenerator_StartStop(t *testing.T) {
	var seeds, steps atomic.Int32
	g := NewGenerator("test", 5*time.Millisecond,
		func() { seeds.Add(1) },
		func() { steps.Add(1) },
		nil,
	)

	if g.Running() {
		t.Fatal("new generator should not be running")
	}

	g.Start()
	if !g.Running() {
		t.Fatal("expected running after Start")
	}

	deadline := time.Now().Add(time.Second)
	for steps.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if steps.Load() < 3 {
		t.Fatalf("steps = %d, want >= 3", steps.Load())
	}

	g.Stop()
	if g.Running() {
		t.Fatal("expected stopped after Stop")
	}

	after := steps.Load()
	time.Sleep(30 * time.Millisecond)
	if steps.Load() != after {
		t.Errorf("generator kept stepping after Stop: %d -> %d", after, steps.Load())
	}

	g.Stop() // idempotent
}

func TestGenerator_RestartReseeds(t *testing.T) {
	var seeds atomic.Int32
	g := NewGenerator("test", time.Hour, func() { seeds.Add(1) }, func() {}, nil)

	g.Start()
	g.Start()
	defer g.Stop()

	if seeds.Load() != 2 {
		t.Errorf("seeds = %d, want 2", seeds.Load())
	}
}

func TestNewStepWalk_WritesStore(t *testing.T) {
	s := readings.NewStore()
	g := NewStepWalk(s, nil)
	g.Start()
	g.Stop()

	if s.Steps() != 1250 {
		t.Errorf("Steps = %d, want seed 1250", s.Steps())
	}
}
