package watch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCell_GetReturnsInitial(t *testing.T) {
	c := NewCell(3)
	assert.Equal(t, 3, c.Get())
}

func TestReceiver_NextBlocksUntilSet(t *testing.T) {
	c := NewCell("a")
	r := c.NewReceiver()

	done := make(chan string, 1)
	go func() {
		v, ok := r.Next(context.Background())
		if ok {
			done <- v
		}
	}()

	select {
	case <-done:
		t.Fatal("Next returned before Set")
	case <-time.After(20 * time.Millisecond):
	}

	c.Set("b")

	select {
	case v := <-done:
		assert.Equal(t, "b", v)
	case <-time.After(time.Second):
		t.Fatal("Next did not wake after Set")
	}
}

func TestReceiver_NextSkipsToLatestOnMultipleSets(t *testing.T) {
	c := NewCell(0)
	r := c.NewReceiver()

	c.Set(1)
	c.Set(2)
	c.Set(3)

	v, ok := r.Next(context.Background())
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestReceiver_NextReturnsFalseOnContextCancel(t *testing.T) {
	c := NewCell(0)
	r := c.NewReceiver()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := r.Next(ctx)
	assert.False(t, ok)
}

func TestReceiver_NextReturnsFalseOnClose(t *testing.T) {
	c := NewCell(0)
	r := c.NewReceiver()

	done := make(chan bool, 1)
	go func() {
		_, ok := r.Next(context.Background())
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	c.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Next did not wake on Close")
	}
}

func TestCell_SetAfterCloseIsNoop(t *testing.T) {
	c := NewCell(1)
	c.Close()
	c.Set(2)
	assert.Equal(t, 1, c.Get())
}

func TestReceiver_LatestMarksSeen(t *testing.T) {
	c := NewCell(1)
	r := c.NewReceiver()
	c.Set(2)

	assert.Equal(t, 2, r.Latest())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, ok := r.Next(ctx)
	assert.False(t, ok, "Next should block (and time out) after Latest caught up")
}

func TestCell_MultipleReceiversAllWake(t *testing.T) {
	c := NewCell(0)
	const n = 8
	var wg sync.WaitGroup
	results := make([]int, n)

	for i := 0; i < n; i++ {
		r := c.NewReceiver()
		wg.Add(1)
		go func(i int, r *Receiver[int]) {
			defer wg.Done()
			v, ok := r.Next(context.Background())
			if ok {
				results[i] = v
			}
		}(i, r)
	}

	time.Sleep(20 * time.Millisecond)
	c.Set(42)
	wg.Wait()

	for i, v := range results {
		assert.Equal(t, 42, v, "receiver %d", i)
	}
}
