package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronRunsJob(t *testing.T) {
	cr := NewCron(time.UTC, nil)
	var runs atomic.Int32
	_, err := cr.AddWithCtx("@every 1s", func(ctx context.Context) { runs.Add(1) })
	require.NoError(t, err)
	assert.Len(t, cr.Entries(), 1)

	cr.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	cr.Stop()
}

func TestCronRejectsBadSpec(t *testing.T) {
	cr := NewCron(nil, nil)
	_, err := cr.Add("every tuesday", FuncJob(func(context.Context) {}))
	assert.Error(t, err)
}

func TestStopCancelsJobContext(t *testing.T) {
	cr := NewCron(time.UTC, nil)
	started := make(chan struct{})
	var sawCancel atomic.Bool
	_, err := cr.AddWithCtx("@every 1s", func(ctx context.Context) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		sawCancel.Store(true)
	})
	require.NoError(t, err)
	cr.Start()

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job never started")
	}
	cr.Stop()
	assert.True(t, sawCancel.Load())
}
