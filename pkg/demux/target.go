package demux

import "fmt"

// TargetKind discriminates the addressing variants of a Target
type TargetKind int

const (
	// TargetAll addresses every live consumer on every stream
	TargetAll TargetKind = iota

	// TargetStream addresses every live consumer filtering on one stream name
	TargetStream

	// TargetConsumer addresses exactly one consumer by id
	TargetConsumer
)

// Target selects the recipients of a close, kill, backpressure or stats
// operation. It is a small tagged union dispatched once at the call
// boundary, instead of overloads branching on argument type throughout.
type Target struct {
	kind       TargetKind
	streamName string
	consumerID int64
}

// All returns a target addressing every live consumer.
func All() Target {
	return Target{kind: TargetAll}
}

// ByStream returns a target addressing every consumer of one named stream.
func ByStream(streamName string) Target {
	return Target{kind: TargetStream, streamName: streamName}
}

// ByConsumer returns a target addressing exactly one consumer.
func ByConsumer(consumerID int64) Target {
	return Target{kind: TargetConsumer, consumerID: consumerID}
}

// Kind returns the addressing variant of this target
func (t Target) Kind() TargetKind {
	return t.kind
}

// StreamName returns the stream name when Kind is TargetStream
func (t Target) StreamName() string {
	return t.streamName
}

// ConsumerID returns the consumer id when Kind is TargetConsumer
func (t Target) ConsumerID() int64 {
	return t.consumerID
}

// String returns a compact description of the target for logging
func (t Target) String() string {
	switch t.kind {
	case TargetAll:
		return "all"
	case TargetStream:
		return fmt.Sprintf("stream(%s)", t.streamName)
	case TargetConsumer:
		return fmt.Sprintf("consumer(%d)", t.consumerID)
	default:
		return "unknown"
	}
}
