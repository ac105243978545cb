package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aliasbot/backend/internal/config"
	"aliasbot/backend/internal/domain"
	"aliasbot/backend/internal/storage/memory"
)

func newQuotaConfig(minuteMax, hourMax int) config.QuotaConfig {
	return config.QuotaConfig{
		Minute: config.QuotaWindowConfig{Duration: 60 * time.Second, MaxRequests: minuteMax},
		Hour:   config.QuotaWindowConfig{Duration: time.Hour, MaxRequests: hourMax},
	}
}

// denialRecorderSpy 记录每次配额拒绝携带的窗口名。
type denialRecorderSpy struct {
	windows []string
}

func (s *denialRecorderSpy) RecordQuotaDenial(window string) {
	s.windows = append(s.windows, window)
}

func TestQuotaTracker_CheckAndConsume(t *testing.T) {
	t.Run("限额内连续放行_超限后拒绝", func(t *testing.T) {
		store := memory.NewStore()
		tracker := NewQuotaTracker(store, newQuotaConfig(3, 0))

		for i := 0; i < 3; i++ {
			assert.NoError(t, tracker.CheckAndConsume(1), "第 %d 次请求应放行", i+1)
		}
		assert.ErrorIs(t, tracker.CheckAndConsume(1), ErrQuotaExceeded)
	})

	t.Run("不同身份互不影响", func(t *testing.T) {
		store := memory.NewStore()
		tracker := NewQuotaTracker(store, newQuotaConfig(1, 0))

		require.NoError(t, tracker.CheckAndConsume(1))
		assert.ErrorIs(t, tracker.CheckAndConsume(1), ErrQuotaExceeded)
		assert.NoError(t, tracker.CheckAndConsume(2))
	})

	t.Run("小时窗口独立超限", func(t *testing.T) {
		store := memory.NewStore()
		tracker := NewQuotaTracker(store, newQuotaConfig(100, 2))

		require.NoError(t, tracker.CheckAndConsume(1))
		require.NoError(t, tracker.CheckAndConsume(1))
		assert.ErrorIs(t, tracker.CheckAndConsume(1), ErrQuotaExceeded)
	})

	t.Run("小时窗口拒绝时分钟计数保留", func(t *testing.T) {
		store := memory.NewStore()
		tracker := NewQuotaTracker(store, newQuotaConfig(100, 1))

		require.NoError(t, tracker.CheckAndConsume(1))
		require.ErrorIs(t, tracker.CheckAndConsume(1), ErrQuotaExceeded)

		window, err := store.GetQuotaWindow(1, domain.QuotaWindowMinute)
		require.NoError(t, err)
		assert.Equal(t, 2, window.RequestCount)

		hourWindow, err := store.GetQuotaWindow(1, domain.QuotaWindowHour)
		require.NoError(t, err)
		assert.Equal(t, 1, hourWindow.RequestCount)
	})

	t.Run("拒绝时上报对应窗口", func(t *testing.T) {
		store := memory.NewStore()
		tracker := NewQuotaTracker(store, newQuotaConfig(1, 2))
		recorder := &denialRecorderSpy{}
		tracker.SetDenialRecorder(recorder)

		require.NoError(t, tracker.CheckAndConsume(1))
		require.ErrorIs(t, tracker.CheckAndConsume(1), ErrQuotaExceeded)
		assert.Equal(t, []string{domain.QuotaWindowMinute}, recorder.windows)

		tracker = NewQuotaTracker(store, newQuotaConfig(100, 1))
		tracker.SetDenialRecorder(recorder)
		require.ErrorIs(t, tracker.CheckAndConsume(1), ErrQuotaExceeded)
		assert.Equal(t, []string{domain.QuotaWindowMinute, domain.QuotaWindowHour}, recorder.windows)
	})

	t.Run("窗口过期后计数重置", func(t *testing.T) {
		store := memory.NewStore()
		cfg := config.QuotaConfig{
			Minute: config.QuotaWindowConfig{Duration: 10 * time.Millisecond, MaxRequests: 1},
		}
		tracker := NewQuotaTracker(store, cfg)

		require.NoError(t, tracker.CheckAndConsume(1))
		require.ErrorIs(t, tracker.CheckAndConsume(1), ErrQuotaExceeded)

		time.Sleep(15 * time.Millisecond)
		assert.NoError(t, tracker.CheckAndConsume(1))
	})
}
