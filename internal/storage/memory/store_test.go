package memory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aliasbot/backend/internal/domain"
	"aliasbot/backend/internal/storage"
)

func TestUpsertAndGetIdentity(t *testing.T) {
	store := NewStore()

	_, err := store.GetIdentity(42)
	assert.ErrorIs(t, err, storage.ErrIdentityNotFound)

	require.NoError(t, store.UpsertIdentity(&domain.Identity{ID: 42, BaseAddress: "a@b.com"}))

	identity, err := store.GetIdentity(42)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", identity.BaseAddress)
	assert.False(t, identity.CreatedAt.IsZero())

	// 更新保留创建时间
	created := identity.CreatedAt
	require.NoError(t, store.UpsertIdentity(&domain.Identity{ID: 42, BaseAddress: "c@d.com", CatchAll: true}))
	identity, err = store.GetIdentity(42)
	require.NoError(t, err)
	assert.Equal(t, "c@d.com", identity.BaseAddress)
	assert.True(t, identity.CatchAll)
	assert.Equal(t, created, identity.CreatedAt)
}

func TestInsertAndListAliases(t *testing.T) {
	store := NewStore()

	older := &domain.Alias{
		ID: uuid.NewString(), IdentityID: 1, BaseAddress: "a@b.com",
		Address: "a+1@b.com", CreatedAt: time.Now().UTC().Add(-time.Hour),
	}
	newer := &domain.Alias{
		ID: uuid.NewString(), IdentityID: 1, BaseAddress: "a@b.com",
		Address: "a+2@b.com", CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.InsertAliases([]*domain.Alias{older, newer}))

	aliases, err := store.ListAliases(1, 50)
	require.NoError(t, err)
	require.Len(t, aliases, 2)
	assert.Equal(t, "a+2@b.com", aliases[0].Address) // 创建时间倒序
	assert.Equal(t, "a+1@b.com", aliases[1].Address)

	// limit 截断
	aliases, err = store.ListAliases(1, 1)
	require.NoError(t, err)
	assert.Len(t, aliases, 1)

	// 其他身份看不到
	aliases, err = store.ListAliases(2, 50)
	require.NoError(t, err)
	assert.Empty(t, aliases)
}

func TestDeleteAliasScopedToOwner(t *testing.T) {
	store := NewStore()

	alias := &domain.Alias{ID: uuid.NewString(), IdentityID: 7, BaseAddress: "a@b.com", Address: "a+x@b.com"}
	require.NoError(t, store.InsertAliases([]*domain.Alias{alias}))

	// 身份 8 删除身份 7 的别名：0 行，别名仍在
	rows, err := store.DeleteAlias(8, alias.ID)
	require.NoError(t, err)
	assert.Zero(t, rows)

	aliases, err := store.ListAliases(7, 50)
	require.NoError(t, err)
	assert.Len(t, aliases, 1)

	// 属主删除成功
	rows, err = store.DeleteAlias(7, alias.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows)

	// 再删一次：不存在与不属于表现一致
	rows, err = store.DeleteAlias(7, alias.ID)
	require.NoError(t, err)
	assert.Zero(t, rows)
}

func TestConsumeQuotaFixedWindow(t *testing.T) {
	store := NewStore()

	for i := 0; i < 3; i++ {
		allowed, err := store.ConsumeQuota(1, domain.QuotaWindowHour, time.Minute, 3)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := store.ConsumeQuota(1, domain.QuotaWindowHour, time.Minute, 3)
	require.NoError(t, err)
	assert.False(t, allowed)

	// 拒绝不消耗计数
	w, err := store.GetQuotaWindow(1, domain.QuotaWindowHour)
	require.NoError(t, err)
	assert.Equal(t, 3, w.RequestCount)

	// 其他身份独立计数
	allowed, err = store.ConsumeQuota(2, domain.QuotaWindowHour, time.Minute, 3)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestConsumeQuotaWindowReset(t *testing.T) {
	store := NewStore()

	allowed, err := store.ConsumeQuota(1, domain.QuotaWindowMinute, 10*time.Millisecond, 1)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = store.ConsumeQuota(1, domain.QuotaWindowMinute, 10*time.Millisecond, 1)
	require.NoError(t, err)
	assert.False(t, allowed)

	time.Sleep(20 * time.Millisecond)

	allowed, err = store.ConsumeQuota(1, domain.QuotaWindowMinute, 10*time.Millisecond, 1)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestGetStatistics(t *testing.T) {
	store := NewStore()

	require.NoError(t, store.UpsertIdentity(&domain.Identity{ID: 1, AcceptedTerms: true}))
	require.NoError(t, store.UpsertIdentity(&domain.Identity{ID: 2}))
	require.NoError(t, store.InsertAliases([]*domain.Alias{
		{ID: uuid.NewString(), IdentityID: 1, Address: "a+1@b.com"},
	}))

	stats, err := store.GetStatistics()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalIdentities)
	assert.Equal(t, 1, stats.AcceptedTerms)
	assert.Equal(t, 1, stats.TotalAliases)
}

func TestIncrementRateLimit(t *testing.T) {
	store := NewStore()

	n, err := store.IncrementRateLimit("ip:1.2.3.4", 10*time.Millisecond)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = store.IncrementRateLimit("ip:1.2.3.4", 10*time.Millisecond)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	time.Sleep(20 * time.Millisecond)

	n, err = store.IncrementRateLimit("ip:1.2.3.4", 10*time.Millisecond)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
