package iolooper

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wesleyyan-sb/minikv/internal/iowriter"
)

func TestTasksRunInEnqueueOrder(t *testing.T) {
	l := New(nil)
	defer l.Quit()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		i := i
		require.NoError(t, l.Post(func(*iowriter.Writer) {
			defer wg.Done()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}))
	}
	wg.Wait()

	for i, v := range order {
		require.Equal(t, i, v)
	}
}

func TestSyncWaitsForPriorTasks(t *testing.T) {
	l := New(nil)
	defer l.Quit()

	done := false
	require.NoError(t, l.Post(func(*iowriter.Writer) {
		time.Sleep(10 * time.Millisecond)
		done = true
	}))
	l.Sync()
	require.True(t, done)
}

func TestPostAndKillCancelsPendingTasks(t *testing.T) {
	l := New(nil)

	var ran []int
	block := make(chan struct{})
	require.NoError(t, l.Post(func(*iowriter.Writer) { <-block }))

	for i := 0; i < 10; i++ {
		i := i
		_ = l.Post(func(*iowriter.Writer) { ran = append(ran, i) })
	}

	final := false
	killDone := make(chan struct{})
	go func() {
		l.PostAndKill(func(*iowriter.Writer) { final = true })
		close(killDone)
	}()

	// The worker is parked inside the blocking first task, so PostAndKill
	// can only have cleared the queue by the time we unblock it here.
	time.Sleep(20 * time.Millisecond)
	close(block)
	<-killDone

	require.True(t, final)
	require.Empty(t, ran)
}

func TestPostAfterKillReturnsInstanceClosed(t *testing.T) {
	l := New(nil)
	l.Quit()
	err := l.Post(func(*iowriter.Writer) {})
	require.Error(t, err)
}

func TestQuitDrainsPendingTasks(t *testing.T) {
	l := New(nil)

	var mu sync.Mutex
	ran := 0
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Post(func(*iowriter.Writer) {
			mu.Lock()
			ran++
			mu.Unlock()
		}))
	}
	l.Quit()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 5, ran)
}
