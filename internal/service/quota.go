package service

import (
	"errors"
	"fmt"

	"aliasbot/backend/internal/config"
	"aliasbot/backend/internal/domain"
	"aliasbot/backend/internal/storage"
)

// ErrQuotaExceeded 配额超限。对本次请求是终态，调用方不得自动重试。
var ErrQuotaExceeded = errors.New("quota exceeded")

// QuotaTracker 身份级固定窗口配额跟踪器。
//
// 分钟窗口与小时窗口可同时启用；任一窗口超限即拒绝。
// 先检查更紧的分钟窗口以便尽早失败；分钟窗口已消耗而小时窗口拒绝时，
// 分钟计数保留——该请求对短窗口而言确实发生过。
// 存储不可达是本次请求的硬错误，绝不退回内存计数。
type QuotaTracker struct {
	quotas   storage.QuotaRepository
	cfg      config.QuotaConfig
	recorder QuotaDenialRecorder // 可选
}

// QuotaDenialRecorder 按窗口上报配额拒绝计数。
type QuotaDenialRecorder interface {
	RecordQuotaDenial(window string)
}

// NewQuotaTracker 创建配额跟踪器。
func NewQuotaTracker(quotas storage.QuotaRepository, cfg config.QuotaConfig) *QuotaTracker {
	return &QuotaTracker{
		quotas: quotas,
		cfg:    cfg,
	}
}

// SetDenialRecorder 注入拒绝计数上报（可选，监控启用时调用）。
func (t *QuotaTracker) SetDenialRecorder(recorder QuotaDenialRecorder) {
	t.recorder = recorder
}

// deny 上报并返回配额超限错误。
func (t *QuotaTracker) deny(window string) error {
	if t.recorder != nil {
		t.recorder.RecordQuotaDenial(window)
	}
	return ErrQuotaExceeded
}

// CheckAndConsume 检查并消耗一次请求配额。
// 超限返回 ErrQuotaExceeded，存储失败返回包装后的错误。
func (t *QuotaTracker) CheckAndConsume(identityID int64) error {
	if t.cfg.Minute.MaxRequests > 0 {
		allowed, err := t.quotas.ConsumeQuota(
			identityID,
			domain.QuotaWindowMinute,
			t.cfg.Minute.Duration,
			t.cfg.Minute.MaxRequests,
		)
		if err != nil {
			return fmt.Errorf("failed to consume minute quota: %w", err)
		}
		if !allowed {
			return t.deny(domain.QuotaWindowMinute)
		}
	}

	if t.cfg.Hour.MaxRequests > 0 {
		allowed, err := t.quotas.ConsumeQuota(
			identityID,
			domain.QuotaWindowHour,
			t.cfg.Hour.Duration,
			t.cfg.Hour.MaxRequests,
		)
		if err != nil {
			return fmt.Errorf("failed to consume hour quota: %w", err)
		}
		if !allowed {
			return t.deny(domain.QuotaWindowHour)
		}
	}

	return nil
}
