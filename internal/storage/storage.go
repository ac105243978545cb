package storage

import (
	"errors"
	"time"

	"aliasbot/backend/internal/domain"
)

var (
	// ErrIdentityNotFound 身份未找到错误
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrAliasNotFound 别名未找到错误
	ErrAliasNotFound = errors.New("alias not found")
)

// IdentityRepository 定义身份数据存取操作。
type IdentityRepository interface {
	UpsertIdentity(identity *domain.Identity) error
	GetIdentity(id int64) (*domain.Identity, error)
}

// AliasRepository 定义别名数据存取操作。
type AliasRepository interface {
	// InsertAliases 批量写入别名，整批原子生效：要么全部持久化要么全部回滚。
	InsertAliases(aliases []*domain.Alias) error
	// ListAliases 按创建时间倒序返回指定身份的别名，最多 limit 条。
	// limit 非正数表示不限条数。
	ListAliases(identityID int64, limit int) ([]domain.Alias, error)
	// DeleteAlias 按 (aliasID, identityID) 匹配删除，返回受影响行数。
	// 身份永远删不掉别人的别名；0 行统一表示"不存在或不属于该身份"。
	DeleteAlias(identityID int64, aliasID string) (int64, error)
}

// QuotaRepository 定义配额窗口操作。
type QuotaRepository interface {
	// ConsumeQuota 固定窗口的原子 check-and-consume：
	// 窗口过期则重置计数，计数达到 max 返回 false 且不变更状态，
	// 否则计数加一并持久化。并发请求对同一身份串行化，计数永不超限。
	ConsumeQuota(identityID int64, window string, duration time.Duration, max int) (bool, error)
	// GetQuotaWindow 读取当前窗口状态，不存在时返回 ErrIdentityNotFound。
	GetQuotaWindow(identityID int64, window string) (*domain.QuotaWindow, error)
}

// AdminRepository 定义管理统计数据的存取操作。
type AdminRepository interface {
	GetStatistics() (*domain.Statistics, error)
}

// RateLimitRepository 定义 HTTP 层按 IP 计数的限流操作。
type RateLimitRepository interface {
	IncrementRateLimit(key string, window time.Duration) (int64, error)
	GetRateLimit(key string) (int64, error)
}

// Store 聚合全部存储能力。
type Store interface {
	IdentityRepository
	AliasRepository
	QuotaRepository
	AdminRepository

	Health() error
	Close() error
}
