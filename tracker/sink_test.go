package tracker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSink struct {
	calls   atomic.Int32
	failFor int32
}

func (s *countingSink) Name() string { return "counting" }

func (s *countingSink) OnPlay(PlayRecord) error {
	n := s.calls.Add(1)
	if n <= s.failFor {
		return errors.New("transient failure")
	}
	return nil
}

func TestSinkWorkerRetriesUntilSuccess(t *testing.T) {
	sink := &countingSink{failFor: 2}
	errs := make(chan error, 4)
	w := newSinkWorker(sink, errs)

	w.deliver(context.Background(), PlayRecord{})

	assert.Equal(t, int32(3), sink.calls.Load())
	select {
	case err := <-errs:
		t.Fatalf("unexpected error after eventual success: %v", err)
	default:
	}
}

func TestSinkWorkerGivesUpAfterRetries(t *testing.T) {
	sink := &countingSink{failFor: 100}
	errs := make(chan error, 4)
	w := newSinkWorker(sink, errs)

	w.deliver(context.Background(), PlayRecord{})

	// One initial attempt plus the three scheduled retries.
	assert.Equal(t, int32(4), sink.calls.Load())

	var sinkErr *SinkError
	require.ErrorAs(t, <-errs, &sinkErr)
	assert.Equal(t, 4, sinkErr.Attempts)
	assert.Equal(t, "counting", sinkErr.Sink)
}

func TestSinkWorkerOfferDropsNewestWhenFull(t *testing.T) {
	sink := &countingSink{}
	errs := make(chan error, 4)
	w := newSinkWorker(sink, errs)

	// Fill the queue without a running consumer.
	for i := 0; i < sinkQueueDepth; i++ {
		w.offer(PlayRecord{ExScore: uint32(i)})
	}
	w.offer(PlayRecord{ExScore: 999})

	var sinkErr *SinkError
	require.ErrorAs(t, <-errs, &sinkErr)

	// The oldest records survive; the overflow record is gone.
	first := <-w.queue
	assert.Equal(t, uint32(0), first.ExScore)
	assert.Len(t, w.queue, sinkQueueDepth-1)
}
