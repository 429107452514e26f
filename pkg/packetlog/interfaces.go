package packetlog

import (
	"context"
	"errors"
	"time"
)

// ErrWaitTimeout is returned by Cursor.WaitForSuccessor when the caller's
// timeout channel fires before a successor node is appended.
var ErrWaitTimeout = errors.New("timed out waiting for successor")

// CursorStats is a point-in-time snapshot of one live cursor, used for
// introspection and monitoring. Detached and killed cursors stop being
// reported.
type CursorStats struct {
	// ID is the cursor's process-lifetime-unique identifier
	ID int64

	// StreamName is the filter name recorded at cursor creation
	StreamName string

	// Backpressure is the number of packets addressed to this cursor that
	// have been written but not yet pulled
	Backpressure int
}

// Cursor is a reader's forward-only position into the shared log.
// A cursor is attached at the log's tail when created and never observes
// packets written before its creation. Cursors are not safe for concurrent
// use by multiple goroutines; each consumer owns exactly one.
type Cursor interface {
	// ID returns the cursor's unique identifier
	ID() int64

	// StreamName returns the filter name recorded at creation
	StreamName() string

	// Timeout returns the wait budget configured at creation
	// (zero means wait indefinitely)
	Timeout() time.Duration

	// TryNext advances to the successor node if one exists and returns its
	// packet. It returns false when the cursor is caught up with the tail,
	// has been detached, or has a kill result pending — a killed cursor
	// never yields another ordinary packet.
	TryNext() (Packet, bool)

	// WaitForSuccessor blocks until a node is appended past this cursor's
	// position, the timeout channel fires, or ctx is cancelled. A nil
	// timeout channel means no deadline. It returns ErrWaitTimeout on
	// timeout and ctx.Err() on cancellation; a nil return only means the
	// cursor should re-check for a successor or a kill result — it does not
	// promise a relevant packet.
	WaitForSuccessor(ctx context.Context, timeout <-chan time.Time) error

	// TakeKillResult returns the terminal result injected by a kill, if
	// any, consuming it. Once a kill result has been taken the cursor is
	// finished.
	TakeKillResult() (Result, bool)

	// Detach removes the cursor from the log. Idempotent; after Detach the
	// cursor's stats stop being reported and TryNext always returns false.
	Detach()
}

// Log manages an append-only, multi-cursor packet sequence.
// This is equivalent to the "Shared Packet Log" collaborator in the design
// document: it accepts tagged packets, makes them visible to all cursors in
// write order, and supports closing or killing individual cursors by id.
type Log interface {
	// Write appends a packet, making it visible to every cursor in write
	// order. Writes never fail on relevance grounds: a packet no cursor
	// cares about is simply skipped by all of them.
	Write(ctx context.Context, packet Packet) error

	// CreateCursor attaches a new cursor at the current tail, records its
	// stream-name filter, and assigns it a monotonically increasing id
	// that is never reused for the lifetime of the log.
	CreateCursor(ctx context.Context, streamName string, timeout time.Duration) (Cursor, error)

	// CloseCursor gracefully terminates one cursor: a terminal packet
	// addressed to it travels through normal log ordering, so the cursor
	// drains its backlog first. Unknown ids are a no-op.
	CloseCursor(ctx context.Context, cursorID int64, terminal Result) error

	// KillCursor forcibly terminates one cursor: the terminal result is
	// injected directly, bypassing ordering, discarding unread backlog and
	// resetting the cursor's backpressure to zero. Unknown ids are a no-op.
	KillCursor(ctx context.Context, cursorID int64, terminal Result) error

	// CloseAll appends a log-wide terminal marker observed by every cursor
	// on any stream after it drains its backlog.
	CloseAll(ctx context.Context, terminal Result) error

	// KillAll forcibly terminates every cursor as KillCursor does.
	KillAll(ctx context.Context, terminal Result) error

	// HasCursor reports whether a live cursor with the given id exists.
	HasCursor(ctx context.Context, cursorID int64) (bool, error)

	// GetCursorStats returns a snapshot of every live cursor.
	GetCursorStats(ctx context.Context) ([]CursorStats, error)

	// GetBackpressure returns the backpressure of one cursor, or 0 if no
	// cursor with that id exists.
	GetBackpressure(ctx context.Context, cursorID int64) (int, error)
}
