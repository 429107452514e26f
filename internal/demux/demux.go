package demux

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/juju/clock"

	packetlogimpl "github.com/rmacdonaldsmith/streamdemux-go/internal/packetlog"
	"github.com/rmacdonaldsmith/streamdemux-go/pkg/demux"
	"github.com/rmacdonaldsmith/streamdemux-go/pkg/packetlog"
)

// InMemoryStreamDemux implements the demux.StreamDemux interface over a
// shared packet log. It is the single authoritative place that tags
// outgoing values and dispatches termination and inspection commands by
// stream name or consumer id.
//
// The router exclusively owns its log. It holds no long-lived references to
// consumers: writes append a tagged packet and return, and each consumer
// independently pulls and filters. All operations are safe for concurrent
// use.
type InMemoryStreamDemux struct {
	log    packetlog.Log
	logger hclog.Logger
	clock  clock.Clock
}

// NewInMemoryStreamDemux creates a new stream demux router with the given
// configuration. A nil config uses defaults (fresh in-memory log, wall
// clock, no-op logger).
func NewInMemoryStreamDemux(config *Config) (*InMemoryStreamDemux, error) {
	if config == nil {
		config = NewConfig()
	}
	config.SetDefaults()

	log := config.Log
	if log == nil {
		log = packetlogimpl.NewInMemoryPacketLog()
	}

	return &InMemoryStreamDemux{
		log:    log,
		logger: config.Logger,
		clock:  config.Clock,
	}, nil
}

// Write appends a value tagged for a named stream. No consumer lookup is
// performed; consumers not filtering on this name skip the packet lazily.
func (d *InMemoryStreamDemux) Write(ctx context.Context, streamName string, value any) error {
	packet := packetlog.NewStreamPacket(streamName, packetlog.Result{Value: value})
	if err := d.log.Write(ctx, packet); err != nil {
		return fmt.Errorf("write to stream %q: %w", streamName, err)
	}
	return nil
}

// WriteToConsumer appends a value addressed to exactly one consumer.
// An unknown id is not an error: the packet is skipped by every consumer
// and has no observable effect.
func (d *InMemoryStreamDemux) WriteToConsumer(ctx context.Context, consumerID int64, value any) error {
	packet := packetlog.NewConsumerPacket(consumerID, packetlog.Result{Value: value})
	if err := d.log.Write(ctx, packet); err != nil {
		return fmt.Errorf("write to consumer %d: %w", consumerID, err)
	}
	return nil
}

// Close gracefully terminates the target. For a stream, a terminal stream
// packet travels through normal ordering to every current consumer of that
// name; for a single consumer, the log closes that cursor directly; for
// All, the whole log is closed.
func (d *InMemoryStreamDemux) Close(ctx context.Context, target demux.Target, value any) error {
	d.logger.Debug("closing", "target", target.String())

	switch target.Kind() {
	case demux.TargetStream:
		packet := packetlog.NewStreamPacket(target.StreamName(), packetlog.Result{Value: value, Done: true})
		if err := d.log.Write(ctx, packet); err != nil {
			return fmt.Errorf("close stream %q: %w", target.StreamName(), err)
		}
		return nil
	case demux.TargetConsumer:
		if err := d.log.CloseCursor(ctx, target.ConsumerID(), packetlog.Result{Value: value, Done: true}); err != nil {
			return fmt.Errorf("close consumer %d: %w", target.ConsumerID(), err)
		}
		return nil
	case demux.TargetAll:
		return d.CloseAll(ctx, value)
	default:
		return fmt.Errorf("close: unknown target kind %d", target.Kind())
	}
}

// CloseAll gracefully terminates every consumer on every stream: a log-wide
// terminal marker travels through normal ordering.
func (d *InMemoryStreamDemux) CloseAll(ctx context.Context, value any) error {
	d.logger.Debug("closing all streams")

	if err := d.log.CloseAll(ctx, packetlog.Result{Value: value, Done: true}); err != nil {
		return fmt.Errorf("close all: %w", err)
	}
	return nil
}

// Kill forcibly terminates the target, injecting the terminal value
// immediately and discarding unread backlog. For a stream, every live
// consumer currently reporting that name is killed directly through the
// log; unknown names and ids are no-ops.
func (d *InMemoryStreamDemux) Kill(ctx context.Context, target demux.Target, value any) error {
	d.logger.Debug("killing", "target", target.String())

	terminal := packetlog.Result{Value: value, Done: true}
	switch target.Kind() {
	case demux.TargetStream:
		stats, err := d.log.GetCursorStats(ctx)
		if err != nil {
			return fmt.Errorf("kill stream %q: %w", target.StreamName(), err)
		}
		for _, s := range stats {
			if s.StreamName != target.StreamName() {
				continue
			}
			if err := d.log.KillCursor(ctx, s.ID, terminal); err != nil {
				return fmt.Errorf("kill consumer %d on stream %q: %w", s.ID, target.StreamName(), err)
			}
		}
		return nil
	case demux.TargetConsumer:
		if err := d.log.KillCursor(ctx, target.ConsumerID(), terminal); err != nil {
			return fmt.Errorf("kill consumer %d: %w", target.ConsumerID(), err)
		}
		return nil
	case demux.TargetAll:
		return d.KillAll(ctx, value)
	default:
		return fmt.Errorf("kill: unknown target kind %d", target.Kind())
	}
}

// KillAll forcibly terminates every consumer on every stream.
func (d *InMemoryStreamDemux) KillAll(ctx context.Context, value any) error {
	d.logger.Debug("killing all streams")

	if err := d.log.KillAll(ctx, packetlog.Result{Value: value, Done: true}); err != nil {
		return fmt.Errorf("kill all: %w", err)
	}
	return nil
}

// GetBackpressure returns the maximum backpressure across the target's
// consumers, or the exact value for a single consumer (0 if absent).
func (d *InMemoryStreamDemux) GetBackpressure(ctx context.Context, target demux.Target) (int, error) {
	switch target.Kind() {
	case demux.TargetConsumer:
		bp, err := d.log.GetBackpressure(ctx, target.ConsumerID())
		if err != nil {
			return 0, fmt.Errorf("backpressure of consumer %d: %w", target.ConsumerID(), err)
		}
		return bp, nil
	case demux.TargetStream:
		stats, err := d.GetConsumerStats(ctx, target)
		if err != nil {
			return 0, err
		}
		return demux.MaxBackpressure(stats), nil
	case demux.TargetAll:
		stats, err := d.GetConsumerStats(ctx, demux.All())
		if err != nil {
			return 0, err
		}
		return demux.MaxBackpressure(stats), nil
	default:
		return 0, fmt.Errorf("backpressure: unknown target kind %d", target.Kind())
	}
}

// HasConsumer reports whether a live consumer with the given id exists.
func (d *InMemoryStreamDemux) HasConsumer(ctx context.Context, consumerID int64) (bool, error) {
	ok, err := d.log.HasCursor(ctx, consumerID)
	if err != nil {
		return false, fmt.Errorf("has consumer %d: %w", consumerID, err)
	}
	return ok, nil
}

// HasStreamConsumer reports whether a live consumer with the given id
// exists and filters on the given stream name.
func (d *InMemoryStreamDemux) HasStreamConsumer(ctx context.Context, streamName string, consumerID int64) (bool, error) {
	stats, err := d.log.GetCursorStats(ctx)
	if err != nil {
		return false, fmt.Errorf("has consumer %d on stream %q: %w", consumerID, streamName, err)
	}
	for _, s := range stats {
		if s.ID == consumerID && s.StreamName == streamName {
			return true, nil
		}
	}
	return false, nil
}

// GetConsumerStats returns snapshots of the target's live consumers.
// Filtering by a name or id with no live consumers returns an empty slice,
// never an error.
func (d *InMemoryStreamDemux) GetConsumerStats(ctx context.Context, target demux.Target) ([]demux.ConsumerStats, error) {
	cursorStats, err := d.log.GetCursorStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("consumer stats: %w", err)
	}

	stats := make([]demux.ConsumerStats, 0, len(cursorStats))
	for _, s := range cursorStats {
		stats = append(stats, demux.ConsumerStats{
			ID:           s.ID,
			StreamName:   s.StreamName,
			Backpressure: s.Backpressure,
		})
	}

	switch target.Kind() {
	case demux.TargetAll:
		return stats, nil
	case demux.TargetStream:
		return demux.FilterByStream(stats, target.StreamName()), nil
	case demux.TargetConsumer:
		for _, s := range stats {
			if s.ID == target.ConsumerID() {
				return []demux.ConsumerStats{s}, nil
			}
		}
		return []demux.ConsumerStats{}, nil
	default:
		return nil, fmt.Errorf("consumer stats: unknown target kind %d", target.Kind())
	}
}

// GetConsumerCount returns the number of live consumers across all streams.
func (d *InMemoryStreamDemux) GetConsumerCount(ctx context.Context) (int, error) {
	stats, err := d.log.GetCursorStats(ctx)
	if err != nil {
		return 0, fmt.Errorf("consumer count: %w", err)
	}
	return len(stats), nil
}

// CreateConsumer mints a new consumer of the named stream, positioned at
// the shared log's current tail. A zero timeout means Next waits
// indefinitely.
func (d *InMemoryStreamDemux) CreateConsumer(ctx context.Context, streamName string, timeout time.Duration) (demux.Consumer, error) {
	cursor, err := d.log.CreateCursor(ctx, streamName, timeout)
	if err != nil {
		return nil, fmt.Errorf("create consumer on stream %q: %w", streamName, err)
	}

	d.logger.Debug("consumer created",
		"id", cursor.ID(), "stream", streamName, "timeout", timeout)

	return newStreamConsumer(cursor, d.clock, d.logger), nil
}

// Listen returns the stateless by-name handle for a stream. The handle owns
// no cursor: every CreateConsumer call on it mints a fresh consumer.
func (d *InMemoryStreamDemux) Listen(streamName string) demux.Stream {
	return &NamedStream{demux: d, name: streamName}
}

// Verify that InMemoryStreamDemux implements the StreamDemux interface at compile time
var _ demux.StreamDemux = (*InMemoryStreamDemux)(nil)
