package syncclient

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerCoalesces(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func() { calls.Add(1) })
	defer d.Stop()

	for range 5 {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, PendingFlush, d.State())

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, Idle, d.State())
}

func TestDebouncerCancel(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func() { calls.Add(1) })
	defer d.Stop()

	d.Trigger()
	d.Cancel()
	assert.Equal(t, Idle, d.State())

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestDebouncerFlushNow(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(time.Hour, func() { calls.Add(1) })
	defer d.Stop()

	assert.False(t, d.FlushNow(), "nothing pending")

	d.Trigger()
	assert.True(t, d.FlushNow())
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, Idle, d.State())
	assert.False(t, d.FlushNow())
}

func TestDebouncerStopIgnoresLaterTriggers(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(10*time.Millisecond, func() { calls.Add(1) })

	d.Trigger()
	d.Stop()
	d.Trigger()
	assert.Equal(t, Idle, d.State())

	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, calls.Load())
	assert.False(t, d.FlushNow())
}

func TestDebouncerReentrantFlush(t *testing.T) {
	var d *Debouncer
	var calls atomic.Int32
	d = NewDebouncer(10*time.Millisecond, func() {
		calls.Add(1)
		d.Cancel()
		_ = d.State()
	})
	defer d.Stop()

	d.Trigger()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	d.Trigger()
	done := make(chan struct{})
	go func() {
		d.FlushNow()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("FlushNow deadlocked")
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestDebounceStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "pending", PendingFlush.String())
}
