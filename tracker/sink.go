package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Sink consumes completed plays. Sinks run on their own goroutines and
// may be slow or fail without stalling observation.
type Sink interface {
	Name() string
	OnPlay(record PlayRecord) error
}

// SinkError surfaces a delivery that failed after all retries.
type SinkError struct {
	Sink     string
	Attempts int
	Err      error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink %s failed after %d attempts: %v", e.Sink, e.Attempts, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

// sinkQueueDepth bounds each sink's backlog. When a sink falls this far
// behind, the newest record is dropped: a session log that is complete
// up to a point beats one with silent holes in the middle.
const sinkQueueDepth = 16

// Delivery retry schedule.
var retryDelays = []time.Duration{50 * time.Millisecond, 100 * time.Millisecond, 200 * time.Millisecond}

// sinkWorker owns one sink's queue and delivery loop.
type sinkWorker struct {
	sink  Sink
	queue chan PlayRecord
	errs  chan<- error
}

func newSinkWorker(sink Sink, errs chan<- error) *sinkWorker {
	return &sinkWorker{
		sink:  sink,
		queue: make(chan PlayRecord, sinkQueueDepth),
		errs:  errs,
	}
}

// offer enqueues a record without blocking. On overflow the record is
// dropped and the drop is reported.
func (w *sinkWorker) offer(record PlayRecord) {
	select {
	case w.queue <- record:
	default:
		w.reportErr(&SinkError{
			Sink: w.sink.Name(),
			Err:  fmt.Errorf("backlog full (%d records), dropping newest", sinkQueueDepth),
		})
	}
}

// run delivers queued records in order until ctx is cancelled.
func (w *sinkWorker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case record := <-w.queue:
			w.deliver(ctx, record)
		}
	}
}

func (w *sinkWorker) deliver(ctx context.Context, record PlayRecord) {
	var err error
	for attempt := 0; attempt <= len(retryDelays); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryDelays[attempt-1]):
			}
		}
		err = w.sink.OnPlay(record)
		if err == nil {
			return
		}
		log.Debug().
			Str("sink", w.sink.Name()).
			Int("attempt", attempt+1).
			Err(err).
			Msg("sink delivery failed")
	}
	w.reportErr(&SinkError{Sink: w.sink.Name(), Attempts: len(retryDelays) + 1, Err: err})
}

func (w *sinkWorker) reportErr(err error) {
	select {
	case w.errs <- err:
	default:
		// Error channel unread; drop rather than block the worker.
		log.Warn().Err(err).Msg("sink error dropped (error channel full)")
	}
}
