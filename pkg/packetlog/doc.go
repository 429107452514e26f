// Package packetlog provides interfaces for the shared packet log that backs
// stream demultiplexing.
//
// This package defines the core abstractions for the log component:
//   - Packet: a tagged unit addressed to a named stream, to a single
//     consumer cursor, or to every cursor (the log-wide end marker)
//   - Result: the iteration result a packet carries (value plus done flag)
//   - Log: interface for append, cursor lifecycle, and termination operations
//   - Cursor: a reader's forward-only position into the log
//
// The interfaces use Go idioms:
//   - context.Context for cancellation of blocking waits
//   - Explicit error returns following Go conventions
//   - A caller-owned timer channel for timeout-bounded waits, so the log
//     never conflates "log advanced" with "this cursor's deadline elapsed"
//
// Example usage:
//
//	// Append a packet tagged for stream "orders"
//	err := log.Write(ctx, packetlog.NewStreamPacket("orders", packetlog.Result{Value: v}))
//	if err != nil {
//		return err
//	}
//
//	// Attach a cursor at the current tail and pull forward
//	cursor, err := log.CreateCursor(ctx, "orders", 5*time.Second)
//	if err != nil {
//		return err
//	}
//	for {
//		packet, ok := cursor.TryNext()
//		if !ok {
//			if err := cursor.WaitForSuccessor(ctx, timeoutCh); err != nil {
//				return err
//			}
//			continue
//		}
//		processPacket(packet)
//	}
//
// All cursors read forward over the same immutable node sequence; nodes
// behind the slowest cursor become unreachable and are reclaimed by the
// runtime. This package is part of the stream-demux system for fanning one
// tagged packet sequence out to independently-paced named streams.
package packetlog
