package demux

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/juju/clock"

	"github.com/rmacdonaldsmith/streamdemux-go/pkg/demux"
	"github.com/rmacdonaldsmith/streamdemux-go/pkg/packetlog"
)

// StreamConsumer implements the demux.Consumer interface by composing a raw
// log cursor with filter-and-skip traversal, per-consumer backpressure and
// timeout-scoped waiting. It never mutates the cursor's generic behavior;
// all filtering lives here.
type StreamConsumer struct {
	cursor   packetlog.Cursor
	clock    clock.Clock
	logger   hclog.Logger
	finished atomic.Bool
}

func newStreamConsumer(cursor packetlog.Cursor, clk clock.Clock, logger hclog.Logger) *StreamConsumer {
	return &StreamConsumer{
		cursor: cursor,
		clock:  clk,
		logger: logger,
	}
}

// ID returns the consumer's unique identifier
func (c *StreamConsumer) ID() int64 {
	return c.cursor.ID()
}

// StreamName returns the named stream this consumer filters on
func (c *StreamConsumer) StreamName() string {
	return c.cursor.StreamName()
}

// Next pulls the next result addressed to this consumer.
//
// The pull loop: take a pending kill result if one was injected; otherwise
// traverse forward over available nodes, skipping packets addressed
// elsewhere, until a relevant packet or terminal marker is found; if the
// log is exhausted, wait for an append and re-check. The timeout timer is
// created once per pull, so writes to unrelated streams wake the wait but
// never extend or restart the budget.
//
// A terminal result (Done set) detaches the consumer. A timeout returns an
// error wrapping demux.ErrTimeout and also detaches; it is never silently
// retried.
func (c *StreamConsumer) Next(ctx context.Context) (packetlog.Result, error) {
	if c.finished.Load() {
		return packetlog.Result{Done: true}, nil
	}

	var timeoutCh <-chan time.Time
	if timeout := c.cursor.Timeout(); timeout > 0 {
		timer := c.clock.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.Chan()
	}

	for {
		// Return may race with a blocked pull; the detach broadcast wakes
		// the wait and this check ends the pull.
		if c.finished.Load() {
			return packetlog.Result{Done: true}, nil
		}

		if result, ok := c.cursor.TakeKillResult(); ok {
			c.finished.Store(true)
			return result, nil
		}

		for {
			packet, ok := c.cursor.TryNext()
			if !ok {
				// Caught up with the tail (or killed; the wait
				// below returns immediately in that case).
				break
			}
			if !packet.AddressedTo(c.cursor.ID(), c.cursor.StreamName()) {
				continue
			}
			if packet.Result.Done {
				c.finished.Store(true)
				c.cursor.Detach()
				return packet.Result, nil
			}
			return packet.Result, nil
		}

		if err := c.cursor.WaitForSuccessor(ctx, timeoutCh); err != nil {
			c.finished.Store(true)
			c.cursor.Detach()
			if errors.Is(err, packetlog.ErrWaitTimeout) {
				c.logger.Debug("consumer timed out",
					"id", c.cursor.ID(), "stream", c.cursor.StreamName())
				return packetlog.Result{}, fmt.Errorf("consumer %d on stream %q: %w",
					c.cursor.ID(), c.cursor.StreamName(), demux.ErrTimeout)
			}
			return packetlog.Result{}, err
		}
	}
}

// Return abandons the consumer: it detaches from the shared log
// immediately and observes no further packets. Idempotent.
func (c *StreamConsumer) Return() {
	if c.finished.Swap(true) {
		return
	}
	c.cursor.Detach()
	c.logger.Debug("consumer returned",
		"id", c.cursor.ID(), "stream", c.cursor.StreamName())
}

// Verify that StreamConsumer implements the Consumer interface at compile time
var _ demux.Consumer = (*StreamConsumer)(nil)
