package command

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 10; i++ {
		require.True(t, q.Push(Command{Op: OpSetBPM, Value: float64(i)}))
	}
	for i := 0; i < 10; i++ {
		c, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, float64(i), c.Value)
	}
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestQueueBackpressure(t *testing.T) {
	q := NewQueue()
	for i := 0; i < QueueCapacity; i++ {
		require.True(t, q.Push(Command{Op: OpPlay}))
	}
	assert.False(t, q.Push(Command{Op: OpPlay}), "full ring must signal back-pressure")
	_, ok := q.Pop()
	require.True(t, ok)
	assert.True(t, q.Push(Command{Op: OpPlay}), "pop frees a slot")
}

func TestQueueConcurrentProducers(t *testing.T) {
	q := NewQueue()
	const producers = 4
	const per = 100
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < per; i++ {
				for !q.Push(Command{Op: OpPlay}) {
				}
			}
		}()
	}
	got := 0
	for got < producers*per {
		if _, ok := q.Pop(); ok {
			got++
		}
	}
	wg.Wait()
	assert.Equal(t, producers*per, got)
}

func TestLogRingOverwrites(t *testing.T) {
	var l LogRing
	for i := 0; i < logRingSize*2; i++ {
		l.Put(LogUnknownID, OpSetVolume, uint32(i))
	}
	dst := make([]LogEntry, logRingSize*2)
	n := l.Drain(dst)
	assert.Equal(t, logRingSize, n, "only the latest ring's worth survives")
	assert.Equal(t, uint32(logRingSize), dst[0].Arg)
}

func TestLogRingDrainEmpty(t *testing.T) {
	var l LogRing
	dst := make([]LogEntry, 8)
	assert.Equal(t, 0, l.Drain(dst))
	l.Put(LogCapacityExceeded, OpAddTrack, 7)
	n := l.Drain(dst)
	require.Equal(t, 1, n)
	assert.Equal(t, LogCapacityExceeded, dst[0].Code)
	assert.Equal(t, 0, l.Drain(dst), "drained entries do not repeat")
}

func TestJSONRoundTrip(t *testing.T) {
	c := Command{Op: OpSetEffectParam, TrackID: 3, Slot: 1, ParamIdx: 2, Value: 0.5}
	data, err := c.MarshalJSON()
	require.NoError(t, err)
	d, err := UnmarshalLine(data)
	require.NoError(t, err)
	assert.Equal(t, c.Op, d.Op)
	assert.Equal(t, c.TrackID, d.TrackID)
	assert.Equal(t, c.Slot, d.Slot)
	assert.Equal(t, c.ParamIdx, d.ParamIdx)
	assert.Equal(t, c.Value, d.Value)
}

func TestJSONUnknownOp(t *testing.T) {
	_, err := UnmarshalLine([]byte(`{"op":"florp"}`))
	require.Error(t, err)
}
