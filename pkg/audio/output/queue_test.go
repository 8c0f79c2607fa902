package output

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPullQueueDrainsInOrder(t *testing.T) {
	q := newPullQueue(2)
	var consumed int
	require.NoError(t, q.RegisterCallback(func() { consumed++ }))

	require.NoError(t, q.Enqueue([]byte{1, 2, 3, 4}))
	require.NoError(t, q.Enqueue([]byte{5, 6}))
	assert.ErrorIs(t, q.Enqueue([]byte{7}), ResultBufferInsufficient)

	dst := make([]byte, 3)
	assert.Equal(t, 3, q.pull(dst))
	assert.Equal(t, []byte{1, 2, 3}, dst)
	assert.Equal(t, 0, consumed)

	assert.Equal(t, 3, q.pull(dst))
	assert.Equal(t, []byte{4, 5, 6}, dst)
	assert.Equal(t, 2, consumed)
	assert.Equal(t, uint64(2), q.Consumed())
	assert.Equal(t, uint64(0), q.Underruns())
}

func TestPullQueueUnderrunRendersSilence(t *testing.T) {
	q := newPullQueue(1)
	require.NoError(t, q.Enqueue([]byte{9, 9}))

	dst := []byte{1, 1, 1, 1}
	assert.Equal(t, 2, q.pull(dst))
	assert.Equal(t, []byte{9, 9, 0, 0}, dst)
	assert.Equal(t, uint64(1), q.Underruns())

	assert.Equal(t, 0, q.pull(dst))
	assert.Equal(t, []byte{0, 0, 0, 0}, dst)
	assert.Equal(t, uint64(2), q.Underruns())
}

func TestPullQueueCallbackMayEnqueue(t *testing.T) {
	q := newPullQueue(1)
	next := []byte{2, 2}
	calls := 0
	require.NoError(t, q.RegisterCallback(func() {
		calls++
		if calls == 1 {
			require.NoError(t, q.Enqueue(next))
		}
	}))
	require.NoError(t, q.Enqueue([]byte{1, 1}))

	dst := make([]byte, 4)
	assert.Equal(t, 4, q.pull(dst))
	assert.Equal(t, []byte{1, 1, 2, 2}, dst)
	assert.Equal(t, 2, calls)
}

func TestPullQueueClearAndClose(t *testing.T) {
	q := newPullQueue(1)
	called := false
	require.NoError(t, q.RegisterCallback(func() { called = true }))

	require.NoError(t, q.Enqueue([]byte{1, 2}))
	require.NoError(t, q.Clear())
	assert.Equal(t, 0, q.pending())
	require.NoError(t, q.Enqueue([]byte{3, 4}))

	q.close()
	assert.Equal(t, 0, q.pending())
	assert.ErrorIs(t, q.Enqueue([]byte{5}), ResultPreconditionsViolated)
	assert.ErrorIs(t, q.RegisterCallback(func() {}), ResultPreconditionsViolated)

	q.pull(make([]byte, 2))
	assert.False(t, called)
}

func TestPullQueueRejectsEmptyBuffer(t *testing.T) {
	q := newPullQueue(0)
	assert.ErrorIs(t, q.Enqueue(nil), ResultParameterInvalid)
	require.NoError(t, q.Enqueue([]byte{1}))
	assert.ErrorIs(t, q.Enqueue([]byte{2}), ResultBufferInsufficient)
}

func TestPullQueueClearWaitsForDelivery(t *testing.T) {
	q := newPullQueue(1)
	entered := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, q.RegisterCallback(func() {
		close(entered)
		<-release
	}))
	require.NoError(t, q.Enqueue([]byte{1, 2}))

	go q.pull(make([]byte, 2))
	<-entered

	cleared := make(chan struct{})
	go func() {
		_ = q.Clear()
		close(cleared)
	}()

	select {
	case <-cleared:
		t.Fatal("Clear returned while a notification was being delivered")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-cleared:
	case <-time.After(time.Second):
		t.Fatal("Clear did not return after delivery finished")
	}
}
