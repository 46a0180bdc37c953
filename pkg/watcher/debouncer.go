package watcher

import (
	"context"
	"time"

	"github.com/Schwaller/graphlens/pkg/logging"
)

// Debouncer coalesces bursts of change events. A flush happens once the
// input has been quiet for quietPeriod, or maxWait after the first event
// of a burst, whichever comes first.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins debouncing until the context is cancelled or the input
// closes.
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Debouncer) run(ctx context.Context) {
	var (
		quiet       *time.Timer
		deadline    *time.Timer
		accumulated = make(map[ChangeType][]string)
		count       int
	)
	quietC := func() <-chan time.Time {
		if quiet == nil {
			return nil
		}
		return quiet.C
	}
	deadlineC := func() <-chan time.Time {
		if deadline == nil {
			return nil
		}
		return deadline.C
	}

	flush := func() {
		if count == 0 {
			return
		}
		logging.Debug("flushing debounced changes", "count", count)

		// Dataset first: a dataset reload resets positions anyway.
		for _, kind := range []ChangeType{ChangeDataset, ChangePositions} {
			if paths := accumulated[kind]; len(paths) > 0 {
				d.output <- ChangeEvent{Type: kind, Paths: paths, Timestamp: time.Now()}
			}
		}

		accumulated = make(map[ChangeType][]string)
		count = 0
		if quiet != nil {
			quiet.Stop()
			quiet = nil
		}
		if deadline != nil {
			deadline.Stop()
			deadline = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			close(d.output)
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				close(d.output)
				return
			}
			accumulated[event.Type] = append(accumulated[event.Type], event.Paths...)
			count++

			if quiet == nil {
				quiet = time.NewTimer(d.quietPeriod)
			} else {
				if !quiet.Stop() {
					select {
					case <-quiet.C:
					default:
					}
				}
				quiet.Reset(d.quietPeriod)
			}
			if deadline == nil {
				deadline = time.NewTimer(d.maxWait)
			}

		case <-quietC():
			flush()

		case <-deadlineC():
			flush()
		}
	}
}

// Output returns the debounced event stream.
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
