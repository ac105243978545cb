package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"aliasbot/backend/internal/domain"
	"aliasbot/backend/internal/storage"
)

// consumeQuotaSQL 单条语句完成 check-and-consume：
// 窗口不存在则插入，过期则重置，未达上限则加一；
// WHERE 条件拦截已达上限的更新，没有返回行即为拒绝。
// 整个判定在一条语句内完成，不存在读-改-写竞态窗口。
const consumeQuotaSQL = `
INSERT INTO quota_windows (identity_id, window_name, request_count, window_start)
VALUES ($1, $2, 1, now())
ON CONFLICT (identity_id, window_name) DO UPDATE
SET request_count = CASE
        WHEN now() - quota_windows.window_start > make_interval(secs => $3) THEN 1
        ELSE quota_windows.request_count + 1
    END,
    window_start = CASE
        WHEN now() - quota_windows.window_start > make_interval(secs => $3) THEN now()
        ELSE quota_windows.window_start
    END
WHERE now() - quota_windows.window_start > make_interval(secs => $3)
   OR quota_windows.request_count < $4
RETURNING request_count`

// ConsumeQuota 固定窗口的原子 check-and-consume（PostgreSQL 热路径）。
func (c *Client) ConsumeQuota(identityID int64, window string, duration time.Duration, max int) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err := c.pool.QueryRow(ctx, consumeQuotaSQL,
		identityID, window, duration.Seconds(), max,
	).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		// 条件更新没有命中：窗口未过期且计数已达上限
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to consume quota: %w", err)
	}

	c.log.Debug("quota consumed",
		zap.Int64("identity_id", identityID),
		zap.String("window", window),
		zap.Int("count", count),
	)
	return true, nil
}

// GetQuotaWindow 读取当前窗口状态。
func (c *Client) GetQuotaWindow(identityID int64, window string) (*domain.QuotaWindow, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w := domain.QuotaWindow{IdentityID: identityID, Window: window}
	err := c.pool.QueryRow(ctx,
		`SELECT request_count, window_start FROM quota_windows
		 WHERE identity_id = $1 AND window_name = $2`,
		identityID, window,
	).Scan(&w.RequestCount, &w.WindowStart)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read quota window: %w", err)
	}
	return &w, nil
}
