package sql

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"aliasbot/backend/internal/domain"
	"aliasbot/backend/internal/storage"
)

// Store SQL 数据库存储实现（支持 MySQL 5.7+ 和 PostgreSQL）。
// 配额与别名的全部读写都走数据库：不做内存回退，
// 否则重启即可绕过限额。
type Store struct {
	db         *sql.DB
	gormDB     *gorm.DB
	driverName string // "mysql" or "postgres"
}

// NewStore 创建 SQL 数据库存储
func NewStore(
	driverName string,
	dsn string,
	maxOpenConns int,
	maxIdleConns int,
	connMaxLifetime time.Duration,
) (*Store, error) {
	// 验证驱动类型
	if driverName != "mysql" && driverName != "postgres" {
		return nil, fmt.Errorf("unsupported database driver: %s (supported: mysql, postgres)", driverName)
	}

	// 打开数据库连接
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 设置连接池参数
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	// 测试连接
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var gormDB *gorm.DB
	if driverName == "mysql" {
		gormDB, err = gorm.Open(mysql.New(mysql.Config{Conn: db}), gormConfig)
	} else {
		gormDB, err = gorm.Open(postgres.New(postgres.Config{Conn: db}), gormConfig)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize GORM: %w", err)
	}

	store := &Store{
		db:         db,
		gormDB:     gormDB,
		driverName: driverName,
	}

	// 自动执行数据库迁移
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Health 检查数据库健康状态
func (s *Store) Health() error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.db.Ping()
}

// migrate 执行数据库迁移（使用 GORM AutoMigrate）
func (s *Store) migrate() error {
	return s.gormDB.AutoMigrate(
		&domain.Identity{},
		&domain.Alias{},
		&domain.QuotaWindow{},
	)
}

// ========== Identity Repository ==========

// UpsertIdentity 写入或更新身份。
func (s *Store) UpsertIdentity(identity *domain.Identity) error {
	return s.gormDB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"base_address", "catch_all", "accepted_terms", "updated_at",
		}),
	}).Create(identity).Error
}

// GetIdentity 根据 ID 获取身份。
func (s *Store) GetIdentity(id int64) (*domain.Identity, error) {
	var identity domain.Identity
	err := s.gormDB.Where("id = ?", id).First(&identity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrIdentityNotFound
		}
		return nil, err
	}
	return &identity, nil
}

// ========== Alias Repository ==========

// InsertAliases 在单个事务内批量写入别名，要么全部持久化要么全部回滚。
func (s *Store) InsertAliases(aliases []*domain.Alias) error {
	if len(aliases) == 0 {
		return nil
	}
	return s.gormDB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(aliases).Error
	})
}

// ListAliases 按创建时间倒序返回指定身份的别名。
func (s *Store) ListAliases(identityID int64, limit int) ([]domain.Alias, error) {
	var aliases []domain.Alias
	query := s.gormDB.Where("identity_id = ?", identityID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&aliases).Error; err != nil {
		return nil, err
	}
	return aliases, nil
}

// DeleteAlias 按 (aliasID, identityID) 匹配删除，返回受影响行数。
// 0 行统一表示"不存在或不属于该身份"，不泄露别名在其他身份下是否存在。
func (s *Store) DeleteAlias(identityID int64, aliasID string) (int64, error) {
	result := s.gormDB.Where("id = ? AND identity_id = ?", aliasID, identityID).
		Delete(&domain.Alias{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ========== Quota Repository ==========

// ConsumeQuota 固定窗口的原子 check-and-consume。
// 事务内以行锁读取窗口，串行化同一身份的并发请求，
// 杜绝两个请求同时观察到 count < max 后双双越过上限。
func (s *Store) ConsumeQuota(identityID int64, window string, duration time.Duration, max int) (bool, error) {
	allowed := false

	err := s.gormDB.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		var w domain.QuotaWindow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("identity_id = ? AND window_name = ?", identityID, window).
			First(&w).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			w = domain.QuotaWindow{
				IdentityID:  identityID,
				Window:      window,
				WindowStart: now,
			}
		case err != nil:
			return err
		case w.Expired(now, duration):
			w.RequestCount = 0
			w.WindowStart = now
		}

		if w.RequestCount >= max {
			return nil
		}

		w.RequestCount++
		allowed = true
		return tx.Save(&w).Error
	})
	if err != nil {
		return false, fmt.Errorf("quota transaction failed: %w", err)
	}

	return allowed, nil
}

// GetQuotaWindow 读取当前窗口状态。
func (s *Store) GetQuotaWindow(identityID int64, window string) (*domain.QuotaWindow, error) {
	var w domain.QuotaWindow
	err := s.gormDB.Where("identity_id = ? AND window_name = ?", identityID, window).First(&w).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrIdentityNotFound
		}
		return nil, err
	}
	return &w, nil
}

// ========== Admin Repository ==========

// GetStatistics 汇总统计信息。
func (s *Store) GetStatistics() (*domain.Statistics, error) {
	stats := &domain.Statistics{GeneratedAt: time.Now().UTC()}

	var identities, accepted, aliases int64
	if err := s.gormDB.Model(&domain.Identity{}).Count(&identities).Error; err != nil {
		return nil, err
	}
	if err := s.gormDB.Model(&domain.Identity{}).Where("accepted_terms = ?", true).Count(&accepted).Error; err != nil {
		return nil, err
	}
	if err := s.gormDB.Model(&domain.Alias{}).Count(&aliases).Error; err != nil {
		return nil, err
	}

	stats.TotalIdentities = int(identities)
	stats.AcceptedTerms = int(accepted)
	stats.TotalAliases = int(aliases)
	return stats, nil
}
