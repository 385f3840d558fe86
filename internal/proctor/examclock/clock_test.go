package examclock

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mockview/internal/proctor/internal/prtest"
	"mockview/internal/proctor/ledger"
	"mockview/internal/proctor/models"
)

func TestExpiryDeductsTimeOverOnce(t *testing.T) {
	rec := &prtest.Recorder{}
	c := New(3*time.Second, 10, rec, WithTick(5*time.Millisecond))

	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, 0, c.Remaining())
	assert.True(t, c.Expired())
	assert.Equal(t, []prtest.Deduction{{Points: 10, Reason: models.ReasonTimeOver}}, rec.Calls())

	require.NoError(t, c.Run(context.Background()))
	assert.Len(t, rec.Calls(), 1)
}

func TestExpiryExhaustsAnyRemainingBudget(t *testing.T) {
	var fired atomic.Int32
	l := ledger.New(ledger.WithExhaustedHandler(func(context.Context) { fired.Add(1) }))
	l.Deduct(context.Background(), 2, models.ReasonTabSwitched)

	c := New(2*time.Second, l.Initial(), l, WithTick(time.Millisecond))
	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, 0, l.Remaining())
	assert.Equal(t, int32(1), fired.Load())
}

func TestStopHaltsCountdown(t *testing.T) {
	rec := &prtest.Recorder{}
	c := New(10*time.Minute, 10, rec, WithTick(time.Millisecond))

	done := make(chan struct{})
	go func() {
		_ = c.Run(context.Background())
		close(done)
	}()
	assert.Eventually(t, func() bool { return c.Remaining() < 600 }, time.Second, time.Millisecond)
	c.Stop()
	<-done

	left := c.Remaining()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, left, c.Remaining())
	assert.Empty(t, rec.Calls())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "10:00", Format(600))
	assert.Equal(t, "0:09", Format(9))
}
