package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubExpirer struct {
	calls atomic.Int32
	ids   []int64
	err   error
}

func (s *stubExpirer) ExpireCrops(ctx context.Context) ([]int64, error) {
	s.calls.Add(1)
	return s.ids, s.err
}

func TestCropExpiryJob_RunOnce(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	expirer := &stubExpirer{ids: []int64{3, 8}}

	NewCropExpiryJob(expirer, zap.New(core)).RunOnce(context.Background())

	assert.Equal(t, int32(1), expirer.calls.Load())
	require.Equal(t, 1, logs.FilterMessage("crops expired").Len())
}

func TestCropExpiryJob_RunOnceError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	expirer := &stubExpirer{err: errors.New("database is down")}

	NewCropExpiryJob(expirer, zap.New(core)).RunOnce(context.Background())

	assert.Equal(t, 1, logs.FilterMessage("crop expiry failed").Len())
	assert.Zero(t, logs.FilterMessage("crops expired").Len())
}

func TestCropExpiryJob_InvalidSchedule(t *testing.T) {
	job := NewCropExpiryJob(&stubExpirer{}, zap.NewNop())

	err := job.Start("every now and then")

	assert.Error(t, err)
}

func TestCropExpiryJob_Scheduled(t *testing.T) {
	expirer := &stubExpirer{}
	job := NewCropExpiryJob(expirer, zap.NewNop())

	require.NoError(t, job.Start("@every 1s"))
	defer job.Stop()

	assert.Eventually(t, func() bool { return expirer.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}
