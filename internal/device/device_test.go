package device

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevice_SerializesByDefault(t *testing.T) {
	d := New("test", 0, nil)
	require.Equal(t, 1, d.Slots())

	var active, peak atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			_ = d.Run(context.Background(), func(context.Context) error {
				n := active.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				active.Add(-1)
				return nil
			})
		})
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak.Load())
}

func TestDevice_ContextCancelledWhileQueued(t *testing.T) {
	d := New("test", 1, nil)
	release := make(chan struct{})
	started := make(chan struct{})

	go func() {
		_ = d.Run(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := d.Run(ctx, func(context.Context) error { return nil })

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}

func TestDo_ReturnsValueAndError(t *testing.T) {
	d := New("test", 2, nil)

	v, err := Do(context.Background(), d, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	boom := errors.New("boom")
	_, err = Do(context.Background(), d, func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}
