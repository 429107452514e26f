package demux

import (
	"context"
	"time"

	"github.com/rmacdonaldsmith/streamdemux-go/pkg/demux"
)

// NamedStream implements the demux.Stream interface. It is stateless beyond
// its (router, name) binding: every CreateConsumer call mints a brand-new
// consumer positioned at the log's current tail, so concurrent consumption
// loops over the same handle never share cursor state and each sees every
// relevant packet written after its own creation time.
type NamedStream struct {
	demux *InMemoryStreamDemux
	name  string
}

// Name returns the stream name this handle is bound to
func (s *NamedStream) Name() string {
	return s.name
}

// CreateConsumer mints a new consumer of this stream.
func (s *NamedStream) CreateConsumer(ctx context.Context, timeout time.Duration) (demux.Consumer, error) {
	return s.demux.CreateConsumer(ctx, s.name, timeout)
}

// Verify that NamedStream implements the Stream interface at compile time
var _ demux.Stream = (*NamedStream)(nil)
