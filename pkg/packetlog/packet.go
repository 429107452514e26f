package packetlog

import "fmt"

// Result represents a single iteration result traveling through the log.
// A Result with Done set marks end-of-stream for whichever cursors the
// enclosing packet addresses; its Value may still carry a final payload.
type Result struct {
	// Value is the payload delivered to the consumer (may be nil)
	Value any

	// Done marks this result as terminal for its target(s)
	Done bool
}

// PacketKind discriminates the addressing variants of a Packet
type PacketKind int

const (
	// KindStream addresses every cursor currently filtering on StreamName
	KindStream PacketKind = iota

	// KindConsumer addresses exactly one cursor, identified by ConsumerID
	KindConsumer

	// KindEnd addresses every cursor in the log (log-wide terminal marker)
	KindEnd
)

// String returns a human-readable name for the packet kind
func (k PacketKind) String() string {
	switch k {
	case KindStream:
		return "stream"
	case KindConsumer:
		return "consumer"
	case KindEnd:
		return "end"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Packet is the unit flowing through the shared log. It is a small tagged
// union: exactly one of the addressing fields is meaningful, selected by Kind.
// Packets are immutable after construction; cursors only ever read them.
type Packet struct {
	// Kind selects the addressing variant
	Kind PacketKind

	// StreamName is the target stream when Kind is KindStream
	StreamName string

	// ConsumerID is the target cursor when Kind is KindConsumer
	ConsumerID int64

	// Result is the iteration result this packet carries
	Result Result
}

// NewStreamPacket creates a packet addressed to every cursor filtering on
// the given stream name.
func NewStreamPacket(streamName string, result Result) Packet {
	return Packet{
		Kind:       KindStream,
		StreamName: streamName,
		Result:     result,
	}
}

// NewConsumerPacket creates a packet addressed to exactly one cursor.
func NewConsumerPacket(consumerID int64, result Result) Packet {
	return Packet{
		Kind:       KindConsumer,
		ConsumerID: consumerID,
		Result:     result,
	}
}

// NewEndPacket creates the log-wide terminal marker observed by every cursor.
func NewEndPacket(result Result) Packet {
	result.Done = true
	return Packet{
		Kind:   KindEnd,
		Result: result,
	}
}

// AddressedTo reports whether this packet is relevant to a cursor with the
// given id and stream-name filter. This is the single relevance predicate
// shared by cursor traversal and backpressure accounting: a cursor skips
// every packet for which AddressedTo is false.
func (p Packet) AddressedTo(cursorID int64, streamName string) bool {
	switch p.Kind {
	case KindStream:
		return p.StreamName == streamName
	case KindConsumer:
		return p.ConsumerID == cursorID
	case KindEnd:
		return true
	default:
		return false
	}
}

// String returns a compact description of the packet for logging
func (p Packet) String() string {
	switch p.Kind {
	case KindStream:
		return fmt.Sprintf("stream(%s, done=%t)", p.StreamName, p.Result.Done)
	case KindConsumer:
		return fmt.Sprintf("consumer(%d, done=%t)", p.ConsumerID, p.Result.Done)
	case KindEnd:
		return "end"
	default:
		return "unknown"
	}
}
