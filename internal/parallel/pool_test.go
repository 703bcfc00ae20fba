package parallel

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunVisitsEveryItemExactlyOnce(t *testing.T) {
	const n = 500
	var seen [n]int32
	err := Run(4, n, func(i int) error {
		atomic.AddInt32(&seen[i], 1)
		return nil
	})
	require.NoError(t, err)
	for i, c := range seen {
		require.EqualValues(t, 1, c, "item %d visited %d times", i, c)
	}
}

func TestRunPropagatesFirstError(t *testing.T) {
	boom := errors.New("boom")
	err := Run(4, 10, func(i int) error {
		if i == 5 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestRunZeroItemsIsNoop(t *testing.T) {
	called := false
	err := Run(4, 0, func(i int) error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.False(t, called)
}

func TestRunClampsWorkersToItemCount(t *testing.T) {
	err := Run(100, 3, func(i int) error { return nil })
	assert.NoError(t, err)
}

func TestOutputQueuePreservesPushOrderWithSingleProducer(t *testing.T) {
	q := NewOutputQueue(4)
	go func() {
		for i := 0; i < 20; i++ {
			q.Push(i)
		}
		q.Close()
	}()

	var got []int
	q.Drain(func(item interface{}) {
		got = append(got, item.(int))
	})

	want := make([]int, 20)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got)
}

func TestOutputQueueDrainsAllItemsFromMultipleProducers(t *testing.T) {
	q := NewOutputQueue(0)
	const producers, perProducer = 8, 50

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(1)
			}
		}()
	}
	go func() {
		wg.Wait()
		q.Close()
	}()

	total := 0
	q.Drain(func(item interface{}) { total += item.(int) })
	assert.Equal(t, producers*perProducer, total)
}
