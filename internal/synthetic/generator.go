package synthetic

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/janisvco/stepfeed/internal/readings"
)

// Target is the slice of the Store the walks read and write.
type Target interface {
	readings.Writer
	Steps() int64
	HeartRate() float64
}

// Generator runs a seed step once, then a walk step on a fixed interval.
type Generator struct {
	name     string
	interval time.Duration
	seed     func()
	step     func()
	logger   *slog.Logger

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewGenerator creates a stopped generator.
func NewGenerator(name string, interval time.Duration, seed, step func(), logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		name:     name,
		interval: interval,
		seed:     seed,
		step:     step,
		logger:   logger.With("generator", name),
	}
}

// Start seeds the target and begins ticking. A running generator is
// restarted.
func (g *Generator) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopLocked()

	g.logger.Info("starting synthetic data")
	if g.seed != nil {
		g.seed()
	}

	g.stop = make(chan struct{})
	g.done = make(chan struct{})
	go g.loop(g.stop, g.done)
}

// Stop halts the generator and waits for the current step to finish.
func (g *Generator) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopLocked() {
		g.logger.Info("stopped synthetic data")
	}
}

// Running reports whether the generator is ticking.
func (g *Generator) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stop != nil
}

func (g *Generator) stopLocked() bool {
	if g.stop == nil {
		return false
	}
	close(g.stop)
	<-g.done
	g.stop = nil
	g.done = nil
	return true
}

func (g *Generator) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			g.step()
		}
	}
}

// Walk parameters.
const (
	StepInterval  = 1 * time.Second
	HeartInterval = 2 * time.Second

	seedSteps     = 1250
	seedSpeed     = 3.5
	seedHeartRate = 65

	heartFloor   = 60
	heartCeiling = 160
)

// StepWalk advances steps by 5..14 and picks a speed in [3.0, 6.0].
type StepWalk struct {
	target Target
	rng    *rand.Rand
}

// Seed sets the initial steps and speed.
func (w *StepWalk) Seed() {
	w.target.SetSteps(seedSteps)
	w.target.SetSpeed(seedSpeed)
}

// Step advances the walk once.
func (w *StepWalk) Step() {
	w.target.SetSteps(w.target.Steps() + int64(w.rng.IntN(10)+5))
	w.target.SetSpeed(math.Round((3+w.rng.Float64()*3)*10) / 10)
}

// HeartWalk climbs heart rate by 3..10 bpm and drops back to 60 once past 160.
type HeartWalk struct {
	target Target
	rng    *rand.Rand
}

// Seed sets the initial heart rate.
func (w *HeartWalk) Seed() {
	w.target.SetHeartRate(seedHeartRate)
}

// Step advances the walk once.
func (w *HeartWalk) Step() {
	hr := w.target.HeartRate()
	if hr > heartCeiling {
		w.target.SetHeartRate(heartFloor)
		return
	}
	w.target.SetHeartRate(hr + float64(w.rng.IntN(8)+3))
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// NewStepWalk returns a generator for steps and speed.
func NewStepWalk(target Target, logger *slog.Logger) *Generator {
	w := &StepWalk{target: target, rng: newRand()}
	return NewGenerator("steps", StepInterval, w.Seed, w.Step, logger)
}

// NewHeartWalk returns a generator for heart rate.
func NewHeartWalk(target Target, logger *slog.Logger) *Generator {
	w := &HeartWalk{target: target, rng: newRand()}
	return NewGenerator("heart", HeartInterval, w.Seed, w.Step, logger)
}
