package demux

import (
	"context"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmacdonaldsmith/streamdemux-go/pkg/demux"
	"github.com/rmacdonaldsmith/streamdemux-go/pkg/packetlog"
)

type pullResult struct {
	result packetlog.Result
	err    error
}

func pullAsync(consumer demux.Consumer) <-chan pullResult {
	done := make(chan pullResult, 1)
	go func() {
		result, err := consumer.Next(context.Background())
		done <- pullResult{result, err}
	}()
	return done
}

// TestStreamConsumer_BlockedNextWokenByRelevantWrite verifies a pull
// suspended on an empty log resumes when a relevant packet arrives.
func TestStreamConsumer_BlockedNextWokenByRelevantWrite(t *testing.T) {
	d := newTestDemux(t)
	ctx := context.Background()

	consumer, err := d.CreateConsumer(ctx, "orders", 0)
	require.NoError(t, err)

	done := pullAsync(consumer)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, d.Write(ctx, "orders", "woke"))

	select {
	case p := <-done:
		require.NoError(t, p.err)
		assert.Equal(t, "woke", p.result.Value)
	case <-time.After(2 * time.Second):
		t.Fatal("Next was not woken by a relevant write")
	}
}

// TestStreamConsumer_Timeout verifies a pull rejects with ErrTimeout when no
// relevant packet arrives within the budget, and that the consumer detaches.
func TestStreamConsumer_Timeout(t *testing.T) {
	clk := testclock.NewClock(time.Time{})
	d, err := NewInMemoryStreamDemux(NewConfig().WithClock(clk))
	require.NoError(t, err)
	ctx := context.Background()

	consumer, err := d.CreateConsumer(ctx, "quiet", 200*time.Millisecond)
	require.NoError(t, err)

	done := pullAsync(consumer)

	// The pull registers exactly one clock waiter: its single timer.
	require.NoError(t, clk.WaitAdvance(200*time.Millisecond, time.Second, 1))

	select {
	case p := <-done:
		require.ErrorIs(t, p.err, demux.ErrTimeout)
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not return after the timeout elapsed")
	}

	// Timeouts detach: the consumer is gone from the registry.
	has, err := d.HasConsumer(ctx, consumer.ID())
	require.NoError(t, err)
	assert.False(t, has)
}

// TestStreamConsumer_TimeoutNotExtendedByUnrelatedWrites verifies the
// timeout budget is fixed at pull start: writes to other streams wake the
// wait but must neither satisfy nor restart it.
func TestStreamConsumer_TimeoutNotExtendedByUnrelatedWrites(t *testing.T) {
	clk := testclock.NewClock(time.Time{})
	d, err := NewInMemoryStreamDemux(NewConfig().WithClock(clk))
	require.NoError(t, err)
	ctx := context.Background()

	consumer, err := d.CreateConsumer(ctx, "quiet", 200*time.Millisecond)
	require.NoError(t, err)

	done := pullAsync(consumer)

	// Burn half the budget, then flood unrelated streams. If a wake-up
	// restarted the timer, the remaining half would never elapse.
	require.NoError(t, clk.WaitAdvance(100*time.Millisecond, time.Second, 1))
	for i := 0; i < 10; i++ {
		require.NoError(t, d.Write(ctx, "busy", i))
	}
	require.NoError(t, clk.WaitAdvance(100*time.Millisecond, time.Second, 1))

	select {
	case p := <-done:
		require.ErrorIs(t, p.err, demux.ErrTimeout)
	case <-time.After(2 * time.Second):
		t.Fatal("Next was extended by unrelated writes")
	}
}

// TestStreamConsumer_RelevantWriteBeatsTimeout verifies a relevant packet
// within the budget is delivered, not timed out.
func TestStreamConsumer_RelevantWriteBeatsTimeout(t *testing.T) {
	clk := testclock.NewClock(time.Time{})
	d, err := NewInMemoryStreamDemux(NewConfig().WithClock(clk))
	require.NoError(t, err)
	ctx := context.Background()

	consumer, err := d.CreateConsumer(ctx, "orders", 200*time.Millisecond)
	require.NoError(t, err)

	done := pullAsync(consumer)

	require.NoError(t, clk.WaitAdvance(100*time.Millisecond, time.Second, 1))
	require.NoError(t, d.Write(ctx, "orders", "in-time"))

	select {
	case p := <-done:
		require.NoError(t, p.err)
		assert.Equal(t, "in-time", p.result.Value)
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not deliver the relevant packet")
	}
}

// TestStreamConsumer_KillDuringBlockedNext verifies a kill interrupts a
// suspended pull immediately with the injected terminal value.
func TestStreamConsumer_KillDuringBlockedNext(t *testing.T) {
	d := newTestDemux(t)
	ctx := context.Background()

	consumer, err := d.CreateConsumer(ctx, "orders", 0)
	require.NoError(t, err)

	done := pullAsync(consumer)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, d.Kill(ctx, demux.ByConsumer(consumer.ID()), "boom"))

	select {
	case p := <-done:
		require.NoError(t, p.err)
		assert.True(t, p.result.Done)
		assert.Equal(t, "boom", p.result.Value)
	case <-time.After(2 * time.Second):
		t.Fatal("Next was not interrupted by the kill")
	}
}

// TestStreamConsumer_KillDiscardsBacklog verifies kill bypasses unread
// ordinary packets entirely.
func TestStreamConsumer_KillDiscardsBacklog(t *testing.T) {
	d := newTestDemux(t)
	ctx := context.Background()

	consumer, err := d.CreateConsumer(ctx, "orders", 0)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, d.Write(ctx, "orders", i))
	}
	require.NoError(t, d.Kill(ctx, demux.ByConsumer(consumer.ID()), "boom"))

	result, err := consumer.Next(ctx)
	require.NoError(t, err)
	assert.True(t, result.Done)
	assert.Equal(t, "boom", result.Value)
}

// TestStreamConsumer_NextAfterTerminal verifies pulls after a terminal
// result keep returning a zero terminal result without error.
func TestStreamConsumer_NextAfterTerminal(t *testing.T) {
	d := newTestDemux(t)
	ctx := context.Background()

	consumer, err := d.CreateConsumer(ctx, "orders", 0)
	require.NoError(t, err)
	require.NoError(t, d.Close(ctx, demux.ByStream("orders"), "end"))

	result, err := consumer.Next(ctx)
	require.NoError(t, err)
	assert.True(t, result.Done)
	assert.Equal(t, "end", result.Value)

	result, err = consumer.Next(ctx)
	require.NoError(t, err)
	assert.True(t, result.Done)
	assert.Nil(t, result.Value)
}

// TestStreamConsumer_Return verifies early abandonment detaches immediately
// and is idempotent.
func TestStreamConsumer_Return(t *testing.T) {
	d := newTestDemux(t)
	ctx := context.Background()

	consumer, err := d.CreateConsumer(ctx, "orders", 0)
	require.NoError(t, err)
	require.NoError(t, d.Write(ctx, "orders", "pending"))

	consumer.Return()
	consumer.Return()

	has, err := d.HasConsumer(ctx, consumer.ID())
	require.NoError(t, err)
	assert.False(t, has)

	// No further packets are observed after Return.
	result, err := consumer.Next(ctx)
	require.NoError(t, err)
	assert.True(t, result.Done)
	assert.Nil(t, result.Value)
}

// TestStreamConsumer_ContextCancelled verifies a suspended pull honors
// context cancellation.
func TestStreamConsumer_ContextCancelled(t *testing.T) {
	d := newTestDemux(t)

	consumer, err := d.CreateConsumer(context.Background(), "orders", 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan pullResult, 1)
	go func() {
		result, err := consumer.Next(ctx)
		done <- pullResult{result, err}
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case p := <-done:
		require.ErrorIs(t, p.err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Next was not cancelled")
	}
}
