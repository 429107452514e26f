package demux

import (
	"context"
	"errors"
	"time"

	"github.com/rmacdonaldsmith/streamdemux-go/pkg/packetlog"
)

// ErrTimeout is returned by Consumer.Next when no relevant packet arrives
// within the consumer's configured timeout. A timed-out consumer is
// detached; continuing to listen requires a fresh consumer from the stream
// handle. Use errors.Is to classify.
var ErrTimeout = errors.New("consumer timed out waiting for next packet")

// Consumer is a single pull-based reader of one named stream. A consumer is
// created positioned at the shared log's current tail and never observes
// packets written before its creation. It observes, in write order, every
// stream packet for its name and every packet addressed to its id,
// interleaved as written.
//
// A consumer is owned by one consuming goroutine; Return may be called from
// any goroutine.
type Consumer interface {
	// ID returns the consumer's unique identifier
	ID() int64

	// StreamName returns the named stream this consumer filters on
	StreamName() string

	// Next pulls the next relevant result, blocking until one is
	// available, the consumer's timeout elapses (ErrTimeout), or ctx is
	// cancelled. A result with Done set is terminal: the consumer is
	// detached and subsequent calls return a zero terminal result.
	Next(ctx context.Context) (packetlog.Result, error)

	// Return abandons the consumer immediately: it detaches from the
	// shared log and observes no further packets. Idempotent.
	Return()
}

// Stream is a lightweight, repeatable, by-name view of one logical stream.
// It owns no cursor state: every CreateConsumer call mints a brand-new
// Consumer, so the same stream can be consumed concurrently by multiple
// independent loops without shared iteration state.
type Stream interface {
	// Name returns the stream name this handle is bound to
	Name() string

	// CreateConsumer mints a new Consumer positioned at the shared log's
	// current tail. A zero timeout means Next waits indefinitely.
	CreateConsumer(ctx context.Context, timeout time.Duration) (Consumer, error)
}

// StreamDemux routes tagged values from many producers to many independent
// consumers of named streams. This is equivalent to the "Stream Router"
// component in the design document: the single authoritative place that tags
// outgoing values and dispatches termination and inspection commands by
// stream name or consumer id.
//
// The router holds no registry of valid stream names: writing, closing or
// killing an unknown name or id is a silent no-op, never an error.
type StreamDemux interface {
	// Write appends a value tagged for a named stream. No consumer lookup
	// is performed; relevance is resolved lazily by each consumer.
	Write(ctx context.Context, streamName string, value any) error

	// WriteToConsumer appends a value addressed to exactly one consumer.
	// If no such consumer exists the packet has no observable effect.
	WriteToConsumer(ctx context.Context, consumerID int64, value any) error

	// Close gracefully terminates the target: a terminal packet travels
	// through normal log ordering, so affected consumers drain their
	// backlog before observing it. The value becomes the terminal result's
	// payload (may be nil).
	Close(ctx context.Context, target Target, value any) error

	// CloseAll gracefully terminates every consumer on every stream.
	CloseAll(ctx context.Context, value any) error

	// Kill forcibly terminates the target: the terminal value is injected
	// immediately, bypassing ordering, discarding unread backlog and
	// resetting the affected consumers' backpressure to zero.
	Kill(ctx context.Context, target Target, value any) error

	// KillAll forcibly terminates every consumer on every stream.
	KillAll(ctx context.Context, value any) error

	// GetBackpressure returns the maximum backpressure across the target's
	// consumers: all live consumers for All, one stream's consumers for
	// ByStream, or the exact value (0 if absent) for ByConsumer.
	GetBackpressure(ctx context.Context, target Target) (int, error)

	// HasConsumer reports whether a live consumer with the given id exists.
	HasConsumer(ctx context.Context, consumerID int64) (bool, error)

	// HasStreamConsumer reports whether a live consumer with the given id
	// exists and filters on the given stream name.
	HasStreamConsumer(ctx context.Context, streamName string, consumerID int64) (bool, error)

	// GetConsumerStats returns snapshots of the target's live consumers.
	// A stream name with no live consumers yields an empty slice.
	GetConsumerStats(ctx context.Context, target Target) ([]ConsumerStats, error)

	// GetConsumerCount returns the number of live consumers across all
	// streams. Useful for monitoring and metrics.
	GetConsumerCount(ctx context.Context) (int, error)

	// CreateConsumer mints a new Consumer of the named stream, positioned
	// at the shared log's current tail. A zero timeout means Next waits
	// indefinitely.
	CreateConsumer(ctx context.Context, streamName string, timeout time.Duration) (Consumer, error)

	// Listen returns the stateless by-name handle for a stream.
	Listen(streamName string) Stream
}
