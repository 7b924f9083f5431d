package connection

import (
	"context"

	"github.com/janisvco/stepfeed/internal/readings"
	"github.com/janisvco/stepfeed/internal/synthetic"
)

// Diagnostic is a Manager with developer controls. The controls bypass the
// transport; only construct one for a dev panel.
type Diagnostic struct {
	*Manager
	steps *synthetic.Generator
	heart *synthetic.Generator
}

// NewDiagnostic creates a Manager that also exposes developer controls.
func NewDiagnostic(cfg Config, tokens TokenSource, opts ...Option) *Diagnostic {
	m := NewManager(cfg, tokens, opts...)
	d := &Diagnostic{Manager: m}
	d.steps = synthetic.NewStepWalk(m.store, m.logger)
	d.heart = synthetic.NewHeartWalk(m.store, m.logger)
	return d
}

// StartMockStepData starts the step/speed generator and reports connected.
func (d *Diagnostic) StartMockStepData() {
	d.SetConnectionState(readings.StateConnected)
	d.steps.Start()
}

// StopMockStepData stops the step/speed generator.
func (d *Diagnostic) StopMockStepData() {
	d.steps.Stop()
}

// StartMockHeartData starts the heart rate generator and reports connected.
func (d *Diagnostic) StartMockHeartData() {
	d.SetConnectionState(readings.StateConnected)
	d.heart.Start()
}

// StopMockHeartData stops the heart rate generator.
func (d *Diagnostic) StopMockHeartData() {
	d.heart.Stop()
}

// SetConnectionState overrides the session state.
func (d *Diagnostic) SetConnectionState(st readings.ConnectionState) {
	d.mu.Lock()
	if !d.running || d.stopped {
		// No loop to serialize through.
		d.s.state = st
		d.store.SetConnectionState(st)
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	ack := make(chan struct{})
	d.post(event{kind: evSetState, state: st, done: ack})
	select {
	case <-ack:
	case <-d.done:
	}
}

// SetBRBEnabled overrides the be-right-back flag.
func (d *Diagnostic) SetBRBEnabled(v bool) {
	d.store.SetBRBEnabled(v)
}

// SetHeartEnabled overrides the heart tracking flag.
func (d *Diagnostic) SetHeartEnabled(v bool) {
	d.store.SetHeartEnabled(v)
}

// Stop stops both generators, then the session.
func (d *Diagnostic) Stop(ctx context.Context) error {
	d.steps.Stop()
	d.heart.Stop()
	return d.Manager.Stop(ctx)
}
