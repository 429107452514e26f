// Package demux provides interfaces for demultiplexing one shared packet
// log into independently-consumed named streams.
//
// This package defines the core abstractions for the stream-demux component:
//   - StreamDemux: the router that tags written values and dispatches
//     close/kill/backpressure/stats operations by stream name or consumer id
//   - Consumer: a single pull-based reader of one named stream, with
//     timeout-bounded waiting and per-consumer backpressure
//   - Stream: a stateless, repeatable by-name handle that mints a fresh
//     Consumer every time it is consumed
//   - Target: a small tagged union selecting a stream, a consumer, or
//     everything, dispatched once at the call boundary
//
// Producers write tagged values through the StreamDemux; the router holds no
// registry of consumers and performs no lookup on write. Each Consumer pulls
// from the shared log independently, skipping packets addressed elsewhere,
// so N consumers of the same stream each observe every relevant packet
// written after their own creation, at their own pace.
//
// Example usage:
//
//	stream := d.Listen("orders")
//	consumer, err := stream.CreateConsumer(ctx, 5*time.Second)
//	if err != nil {
//		return err
//	}
//	defer consumer.Return()
//	for {
//		result, err := consumer.Next(ctx)
//		if err != nil {
//			return err // includes demux.ErrTimeout
//		}
//		if result.Done {
//			break
//		}
//		process(result.Value)
//	}
//
// Ordering is guaranteed within a single named stream and within one
// consumer's addressed packets; there is no cross-stream ordering guarantee.
package demux
