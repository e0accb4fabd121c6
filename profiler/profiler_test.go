package profiler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopwatchTracksOperations(t *testing.T) {
	w := NewStopwatch()

	done := w.StartOperation("scan")
	time.Sleep(time.Millisecond)
	done()
	w.StartOperation("scan")() // zero-ish duration
	w.StartOperation("load")()

	ops := w.Operations()
	require.Len(t, ops, 2)
	assert.Equal(t, "load", ops[0].Name, "snapshot is sorted by name")
	assert.Equal(t, "scan", ops[1].Name)

	scan := ops[1]
	assert.Equal(t, int64(2), scan.Count)
	assert.GreaterOrEqual(t, scan.Max, scan.Min)
	assert.Equal(t, scan.Total/2, scan.Avg())
}

func TestStopwatchConcurrentRecording(t *testing.T) {
	w := NewStopwatch()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				w.StartOperation("score")()
			}
		}()
	}
	wg.Wait()

	ops := w.Operations()
	require.Len(t, ops, 1)
	assert.Equal(t, int64(800), ops[0].Count)
}

func TestStopwatchEmpty(t *testing.T) {
	w := NewStopwatch()
	assert.Empty(t, w.Operations())
	assert.GreaterOrEqual(t, w.Elapsed(), time.Duration(0))

	var tr TimeTracker
	assert.Equal(t, time.Duration(0), tr.Avg(), "no recordings yields a zero average")
}
