package memory

import (
	"sort"
	"sync"
	"time"

	"aliasbot/backend/internal/domain"
	"aliasbot/backend/internal/storage"
)

// Store 使用内存保存身份、别名与配额数据，主要用于开发验证和测试。
// 生产部署使用 SQL 存储：配额绕过持久层会让重启绕过限额。
type Store struct {
	mu         sync.RWMutex
	identities map[int64]*domain.Identity
	aliases    map[string]*domain.Alias       // aliasID -> alias
	byIdentity map[int64][]string             // identityID -> aliasIDs（按插入顺序）
	quotas     map[int64]map[string]*domain.QuotaWindow

	// HTTP 限流计数
	rateLimits map[string]*rateLimitEntry
}

// rateLimitEntry 限流计数条目
type rateLimitEntry struct {
	Count     int64
	ExpiresAt time.Time
}

// NewStore 创建一个内存存储实例。
func NewStore() *Store {
	return &Store{
		identities: make(map[int64]*domain.Identity),
		aliases:    make(map[string]*domain.Alias),
		byIdentity: make(map[int64][]string),
		quotas:     make(map[int64]map[string]*domain.QuotaWindow),
		rateLimits: make(map[string]*rateLimitEntry),
	}
}

// UpsertIdentity 写入或更新身份。
func (s *Store) UpsertIdentity(identity *domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *identity
	now := time.Now().UTC()
	if existing, ok := s.identities[identity.ID]; ok {
		copied.CreatedAt = existing.CreatedAt
	} else if copied.CreatedAt.IsZero() {
		copied.CreatedAt = now
	}
	copied.UpdatedAt = now
	s.identities[identity.ID] = &copied
	return nil
}

// GetIdentity 根据 ID 获取身份。
func (s *Store) GetIdentity(id int64) (*domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.identities[id]
	if !ok {
		return nil, storage.ErrIdentityNotFound
	}
	copied := *identity
	return &copied, nil
}

// InsertAliases 批量写入别名。内存实现持锁写入，整批天然原子。
func (s *Store) InsertAliases(aliases []*domain.Alias) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, alias := range aliases {
		copied := *alias
		if copied.CreatedAt.IsZero() {
			copied.CreatedAt = time.Now().UTC()
		}
		s.aliases[copied.ID] = &copied
		s.byIdentity[copied.IdentityID] = append(s.byIdentity[copied.IdentityID], copied.ID)
	}
	return nil
}

// ListAliases 按创建时间倒序返回指定身份的别名。
func (s *Store) ListAliases(identityID int64, limit int) ([]domain.Alias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byIdentity[identityID]
	result := make([]domain.Alias, 0, len(ids))
	for _, id := range ids {
		if alias, ok := s.aliases[id]; ok {
			result = append(result, *alias)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// DeleteAlias 按 (aliasID, identityID) 匹配删除。
func (s *Store) DeleteAlias(identityID int64, aliasID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alias, ok := s.aliases[aliasID]
	if !ok || alias.IdentityID != identityID {
		return 0, nil
	}

	delete(s.aliases, aliasID)
	ids := s.byIdentity[identityID]
	for i, id := range ids {
		if id == aliasID {
			s.byIdentity[identityID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return 1, nil
}

// ConsumeQuota 固定窗口的原子 check-and-consume。
func (s *Store) ConsumeQuota(identityID int64, window string, duration time.Duration, max int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	windows, ok := s.quotas[identityID]
	if !ok {
		windows = make(map[string]*domain.QuotaWindow)
		s.quotas[identityID] = windows
	}

	w, ok := windows[window]
	if !ok || w.Expired(now, duration) {
		w = &domain.QuotaWindow{
			IdentityID:  identityID,
			Window:      window,
			WindowStart: now,
		}
		windows[window] = w
	}

	if w.RequestCount >= max {
		return false, nil
	}

	w.RequestCount++
	return true, nil
}

// GetQuotaWindow 读取当前窗口状态。
func (s *Store) GetQuotaWindow(identityID int64, window string) (*domain.QuotaWindow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	windows, ok := s.quotas[identityID]
	if !ok {
		return nil, storage.ErrIdentityNotFound
	}
	w, ok := windows[window]
	if !ok {
		return nil, storage.ErrIdentityNotFound
	}
	copied := *w
	return &copied, nil
}

// GetStatistics 汇总统计信息。
func (s *Store) GetStatistics() (*domain.Statistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.Statistics{
		TotalIdentities: len(s.identities),
		TotalAliases:    len(s.aliases),
		GeneratedAt:     time.Now().UTC(),
	}
	for _, identity := range s.identities {
		if identity.AcceptedTerms {
			stats.AcceptedTerms++
		}
	}
	return stats, nil
}

// IncrementRateLimit 递增 HTTP 限流计数，过期条目重新开窗。
func (s *Store) IncrementRateLimit(key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	entry, ok := s.rateLimits[key]
	if !ok || now.After(entry.ExpiresAt) {
		entry = &rateLimitEntry{ExpiresAt: now.Add(window)}
		s.rateLimits[key] = entry
	}
	entry.Count++
	return entry.Count, nil
}

// GetRateLimit 读取 HTTP 限流计数。
func (s *Store) GetRateLimit(key string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.rateLimits[key]
	if !ok || time.Now().UTC().After(entry.ExpiresAt) {
		return 0, nil
	}
	return entry.Count, nil
}

// Health 内存存储始终健康。
func (s *Store) Health() error { return nil }

// Close 释放资源（内存实现为空操作）。
func (s *Store) Close() error { return nil }
