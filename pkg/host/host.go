// Package host owns the engine. Every mutation and query funnels through
// one goroutine via a command channel, so the engine itself never needs
// locks: HTTP handlers submit closures and the tick loop runs them
// between simulation steps.
package host

import (
	"context"
	"time"

	"github.com/Schwaller/graphlens/pkg/engine"
	"github.com/Schwaller/graphlens/pkg/logging"
	"github.com/Schwaller/graphlens/pkg/pubsub"
)

// Host drives the engine tick loop and publishes render frames.
type Host struct {
	eng      *engine.Engine
	pub      pubsub.Publisher
	interval time.Duration
	cmds     chan func(*engine.Engine)
}

// New wraps an engine. interval is the simulation tick period.
func New(eng *engine.Engine, pub pubsub.Publisher, interval time.Duration) *Host {
	if interval <= 0 {
		interval = 30 * time.Millisecond
	}
	return &Host{
		eng:      eng,
		pub:      pub,
		interval: interval,
		cmds:     make(chan func(*engine.Engine), 64),
	}
}

// Do submits a command to run on the owner goroutine. It does not wait
// for the command to execute.
func (h *Host) Do(fn func(*engine.Engine)) {
	h.cmds <- fn
}

// DoSync runs a command on the owner goroutine and waits for it. Use it
// when a handler needs a result out of the engine.
func (h *Host) DoSync(fn func(*engine.Engine)) {
	done := make(chan struct{})
	h.cmds <- func(e *engine.Engine) {
		fn(e)
		close(done)
	}
	<-done
}

// Frame fetches the current render snapshot.
func (h *Host) Frame() engine.Frame {
	var f engine.Frame
	h.DoSync(func(e *engine.Engine) { f = e.Frame() })
	return f
}

// Run processes commands and ticks until the context is cancelled.
// Frames are published on the frame topic whenever state changed, at
// most once per tick.
func (h *Host) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	logging.Info("engine loop started", "tickMs", h.interval.Milliseconds())

	dirty := true
	for {
		select {
		case <-ctx.Done():
			logging.Info("engine loop stopped")
			return

		case cmd := <-h.cmds:
			cmd(h.eng)
			dirty = true

		case <-ticker.C:
			if h.eng.Active() {
				h.eng.Tick()
				dirty = true
			}
			if dirty {
				h.publishFrame()
				dirty = false
			}
		}
	}
}

func (h *Host) publishFrame() {
	if h.pub == nil {
		return
	}
	frame := h.eng.Frame()
	if err := h.pub.Publish(pubsub.TopicFrame, "frame", frame); err != nil {
		logging.Warn("frame publish failed", "error", err)
		return
	}
	logging.Trace("frame published", "nodes", len(frame.Nodes), "moving", frame.Moving)
}
