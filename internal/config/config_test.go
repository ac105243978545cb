package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	// 保存原始环境变量
	originalEnvs := make(map[string]string)
	envKeys := []string{
		"ALIASBOT_BOT_TOKEN",
		"ALIASBOT_BOT_ADMIN_IDENTITY_IDS",
		"ALIASBOT_SERVER_HOST",
		"ALIASBOT_SERVER_PORT",
		"ALIASBOT_ALIAS_MAX_PLUS",
		"ALIASBOT_ALIAS_MAX_DOT",
		"ALIASBOT_ALIAS_MAX_CUSTOM",
		"ALIASBOT_QUOTA_MINUTE_WINDOW",
		"ALIASBOT_QUOTA_MINUTE_MAX_REQUESTS",
		"ALIASBOT_QUOTA_HOUR_WINDOW",
		"ALIASBOT_QUOTA_HOUR_MAX_REQUESTS",
		"ALIASBOT_DATABASE_TYPE",
		"ALIASBOT_DATABASE_DSN",
		"ALIASBOT_LOG_LEVEL",
		"ALIASBOT_LOG_DEVELOPMENT",
	}

	for _, key := range envKeys {
		originalEnvs[key] = os.Getenv(key)
	}

	// 测试后恢复环境变量
	defer func() {
		for key, value := range originalEnvs {
			if value == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, value)
			}
		}
	}()

	clearEnv := func() {
		for _, key := range envKeys {
			os.Unsetenv(key)
		}
	}

	t.Run("加载默认配置成功", func(t *testing.T) {
		clearEnv()
		os.Setenv("ALIASBOT_BOT_TOKEN", "test-bot-token")

		cfg, err := Load()

		assert.NoError(t, err)
		assert.NotNil(t, cfg)

		// 验证默认值
		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 100, cfg.Alias.MaxPlus)
		assert.Equal(t, 30, cfg.Alias.MaxDot)
		assert.Equal(t, 30, cfg.Alias.MaxCustom)
		assert.Equal(t, time.Minute, cfg.Quota.Minute.Duration)
		assert.Equal(t, 10, cfg.Quota.Minute.MaxRequests)
		assert.Equal(t, time.Hour, cfg.Quota.Hour.Duration)
		assert.Equal(t, 100, cfg.Quota.Hour.MaxRequests)
		assert.Equal(t, "", cfg.Database.Type)
		assert.Empty(t, cfg.Bot.AdminIdentityIDs)
	})

	t.Run("缺少机器人令牌时报错", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()

		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("解析管理身份白名单", func(t *testing.T) {
		clearEnv()
		os.Setenv("ALIASBOT_BOT_TOKEN", "test-bot-token")
		os.Setenv("ALIASBOT_BOT_ADMIN_IDENTITY_IDS", "123, 456")

		cfg, err := Load()

		assert.NoError(t, err)
		assert.Equal(t, []int64{123, 456}, cfg.Bot.AdminIdentityIDs)
		assert.True(t, cfg.Bot.IsAdmin(123))
		assert.False(t, cfg.Bot.IsAdmin(789))
	})

	t.Run("非法管理身份ID报错", func(t *testing.T) {
		clearEnv()
		os.Setenv("ALIASBOT_BOT_TOKEN", "test-bot-token")
		os.Setenv("ALIASBOT_BOT_ADMIN_IDENTITY_IDS", "abc")

		_, err := Load()

		assert.Error(t, err)
	})

	t.Run("指定数据库类型但缺少DSN时报错", func(t *testing.T) {
		clearEnv()
		os.Setenv("ALIASBOT_BOT_TOKEN", "test-bot-token")
		os.Setenv("ALIASBOT_DATABASE_TYPE", "postgres")

		_, err := Load()

		assert.Error(t, err)
	})

	t.Run("覆盖配额窗口", func(t *testing.T) {
		clearEnv()
		os.Setenv("ALIASBOT_BOT_TOKEN", "test-bot-token")
		os.Setenv("ALIASBOT_QUOTA_MINUTE_MAX_REQUESTS", "0")
		os.Setenv("ALIASBOT_QUOTA_HOUR_WINDOW", "30m")
		os.Setenv("ALIASBOT_QUOTA_HOUR_MAX_REQUESTS", "50")

		cfg, err := Load()

		assert.NoError(t, err)
		assert.Equal(t, 0, cfg.Quota.Minute.MaxRequests)
		assert.Equal(t, 30*time.Minute, cfg.Quota.Hour.Duration)
		assert.Equal(t, 50, cfg.Quota.Hour.MaxRequests)
	})
}

func TestStrategyMax(t *testing.T) {
	cfg := AliasConfig{MaxPlus: 100, MaxDot: 30, MaxCustom: 30}

	assert.Equal(t, 100, cfg.StrategyMax("plus"))
	assert.Equal(t, 30, cfg.StrategyMax("dot"))
	assert.Equal(t, 30, cfg.StrategyMax("custom"))
	assert.Equal(t, 0, cfg.StrategyMax("unknown"))
}
