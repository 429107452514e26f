package packetlog

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rmacdonaldsmith/streamdemux-go/pkg/packetlog"
)

var (
	// ErrNegativeTimeout is returned when a negative cursor timeout is provided
	ErrNegativeTimeout = errors.New("timeout cannot be negative")
)

// node is one immutable entry in the append-only chain. Cursors hold a
// pointer to the last node they observed; once the slowest cursor moves past
// a node nothing references it and the runtime reclaims it.
type node struct {
	packet packetlog.Packet
	next   *node
}

// InMemoryPacketLog implements the packetlog.Log interface using a singly
// linked append-only node chain shared by all cursors. Every cursor reads
// the same nodes forward in write order; no payload is copied per cursor.
// It is safe for concurrent use.
type InMemoryPacketLog struct {
	mu           sync.Mutex
	tail         *node
	notifyCh     chan struct{}
	cursors      map[int64]*memCursor
	nextCursorID int64
}

// NewInMemoryPacketLog creates a new in-memory packet log with no cursors.
func NewInMemoryPacketLog() *InMemoryPacketLog {
	return &InMemoryPacketLog{
		// Sentinel node: cursors attach here before the first write.
		tail:         &node{},
		notifyCh:     make(chan struct{}),
		cursors:      make(map[int64]*memCursor),
		nextCursorID: 0,
	}
}

// broadcastLocked wakes every goroutine blocked in WaitForSuccessor.
// Callers must hold l.mu.
func (l *InMemoryPacketLog) broadcastLocked() {
	close(l.notifyCh)
	l.notifyCh = make(chan struct{})
}

// appendLocked appends a packet node at the tail and wakes waiters.
// Callers must hold l.mu.
func (l *InMemoryPacketLog) appendLocked(packet packetlog.Packet) {
	n := &node{packet: packet}
	l.tail.next = n
	l.tail = n
	l.broadcastLocked()
}

// Write appends a packet to the log, making it visible to all cursors in
// write order. No cursor lookup is performed; relevance is resolved lazily
// by each cursor as it traverses.
func (l *InMemoryPacketLog) Write(ctx context.Context, packet packetlog.Packet) error {
	// Check if context is cancelled
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.appendLocked(packet)
	return nil
}

// CreateCursor attaches a new cursor at the current tail. The cursor never
// observes packets written before its creation. Cursor ids increase
// monotonically for the lifetime of the log and are never reused.
func (l *InMemoryPacketLog) CreateCursor(ctx context.Context, streamName string, timeout time.Duration) (packetlog.Cursor, error) {
	if timeout < 0 {
		return nil, ErrNegativeTimeout
	}

	// Check if context is cancelled
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextCursorID++
	c := &memCursor{
		log:        l,
		id:         l.nextCursorID,
		streamName: streamName,
		timeout:    timeout,
		node:       l.tail,
	}
	l.cursors[c.id] = c
	return c, nil
}

// CloseCursor gracefully terminates one cursor by appending a terminal
// packet addressed to it, so the cursor drains its backlog before observing
// the terminal. Closing an unknown id is a no-op.
func (l *InMemoryPacketLog) CloseCursor(ctx context.Context, cursorID int64, terminal packetlog.Result) error {
	// Check if context is cancelled
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.cursors[cursorID]; !ok {
		return nil
	}
	terminal.Done = true
	l.appendLocked(packetlog.NewConsumerPacket(cursorID, terminal))
	return nil
}

// KillCursor forcibly terminates one cursor, injecting the terminal result
// directly and discarding any unread backlog. The cursor leaves the stats
// registry immediately, so its backpressure reads as zero from this point.
// Killing an unknown id is a no-op.
func (l *InMemoryPacketLog) KillCursor(ctx context.Context, cursorID int64, terminal packetlog.Result) error {
	// Check if context is cancelled
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.killCursorLocked(cursorID, terminal)
	return nil
}

// killCursorLocked injects a kill result into one cursor and removes it
// from the registry. Callers must hold l.mu.
func (l *InMemoryPacketLog) killCursorLocked(cursorID int64, terminal packetlog.Result) {
	c, ok := l.cursors[cursorID]
	if !ok {
		return
	}
	terminal.Done = true
	c.killed = &terminal
	c.node = nil
	delete(l.cursors, cursorID)
	// Wake any in-flight wait so the kill result is observed immediately.
	l.broadcastLocked()
}

// CloseAll appends a log-wide terminal marker; every cursor, on any stream,
// observes it after draining its backlog.
func (l *InMemoryPacketLog) CloseAll(ctx context.Context, terminal packetlog.Result) error {
	// Check if context is cancelled
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.appendLocked(packetlog.NewEndPacket(terminal))
	return nil
}

// KillAll forcibly terminates every cursor as KillCursor does.
func (l *InMemoryPacketLog) KillAll(ctx context.Context, terminal packetlog.Result) error {
	// Check if context is cancelled
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	terminal.Done = true
	for id, c := range l.cursors {
		killed := terminal
		c.killed = &killed
		c.node = nil
		delete(l.cursors, id)
	}
	l.broadcastLocked()
	return nil
}

// HasCursor reports whether a live cursor with the given id exists.
func (l *InMemoryPacketLog) HasCursor(ctx context.Context, cursorID int64) (bool, error) {
	// Check if context is cancelled
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.cursors[cursorID]
	return ok, nil
}

// GetCursorStats returns a snapshot of every live cursor, ordered by id.
func (l *InMemoryPacketLog) GetCursorStats(ctx context.Context) ([]packetlog.CursorStats, error) {
	// Check if context is cancelled
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	stats := make([]packetlog.CursorStats, 0, len(l.cursors))
	for _, c := range l.cursors {
		stats = append(stats, packetlog.CursorStats{
			ID:           c.id,
			StreamName:   c.streamName,
			Backpressure: l.backpressureLocked(c),
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].ID < stats[j].ID })
	return stats, nil
}

// GetBackpressure returns the backpressure of one cursor, or 0 if no cursor
// with that id exists.
func (l *InMemoryPacketLog) GetBackpressure(ctx context.Context, cursorID int64) (int, error) {
	// Check if context is cancelled
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.cursors[cursorID]
	if !ok {
		return 0, nil
	}
	return l.backpressureLocked(c), nil
}

// backpressureLocked counts the packets past the cursor's position that are
// addressed to it. Accounting is lazy: writes never touch cursor state, so
// the count is derived from position alone. Callers must hold l.mu.
func (l *InMemoryPacketLog) backpressureLocked(c *memCursor) int {
	count := 0
	for n := c.node; n != nil && n.next != nil; n = n.next {
		if n.next.packet.AddressedTo(c.id, c.streamName) {
			count++
		}
	}
	return count
}

// memCursor implements the packetlog.Cursor interface. Position, kill state
// and detachment are guarded by the owning log's mutex.
type memCursor struct {
	log        *InMemoryPacketLog
	id         int64
	streamName string
	timeout    time.Duration

	// Guarded by log.mu
	node     *node
	killed   *packetlog.Result
	detached bool
}

// ID returns the cursor's unique identifier
func (c *memCursor) ID() int64 {
	return c.id
}

// StreamName returns the filter name recorded at creation
func (c *memCursor) StreamName() string {
	return c.streamName
}

// Timeout returns the wait budget configured at creation
func (c *memCursor) Timeout() time.Duration {
	return c.timeout
}

// TryNext advances to the successor node if one exists and returns its
// packet. A detached or killed cursor never yields another ordinary packet,
// which keeps kill atomic with respect to in-progress traversal.
func (c *memCursor) TryNext() (packetlog.Packet, bool) {
	c.log.mu.Lock()
	defer c.log.mu.Unlock()

	if c.detached || c.killed != nil || c.node == nil || c.node.next == nil {
		return packetlog.Packet{}, false
	}
	c.node = c.node.next
	return c.node.packet, true
}

// WaitForSuccessor blocks until a node is appended, the caller's timeout
// channel fires, or ctx is cancelled. The wake channel is the log's append
// broadcast: writes to unrelated streams do wake the wait, but the caller
// must re-check relevance — the timeout channel is owned by the caller and
// is never reset by wake-ups.
func (c *memCursor) WaitForSuccessor(ctx context.Context, timeout <-chan time.Time) error {
	c.log.mu.Lock()
	if c.detached || c.killed != nil || (c.node != nil && c.node.next != nil) {
		c.log.mu.Unlock()
		return nil
	}
	ch := c.log.notifyCh
	c.log.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-timeout:
		return packetlog.ErrWaitTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TakeKillResult returns and consumes the terminal result injected by a
// kill, if any. Taking the result finishes the cursor.
func (c *memCursor) TakeKillResult() (packetlog.Result, bool) {
	c.log.mu.Lock()
	defer c.log.mu.Unlock()

	if c.killed == nil {
		return packetlog.Result{}, false
	}
	result := *c.killed
	c.killed = nil
	c.detached = true
	c.node = nil
	return result, true
}

// Detach removes the cursor from the log. Idempotent. Waiters are woken so
// a pull blocked concurrently with an early return observes the detachment.
func (c *memCursor) Detach() {
	c.log.mu.Lock()
	defer c.log.mu.Unlock()

	if c.detached {
		return
	}
	c.detached = true
	c.killed = nil
	c.node = nil
	delete(c.log.cursors, c.id)
	c.log.broadcastLocked()
}

// Verify that the implementations satisfy the interfaces at compile time
var (
	_ packetlog.Log    = (*InMemoryPacketLog)(nil)
	_ packetlog.Cursor = (*memCursor)(nil)
)
