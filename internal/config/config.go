package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host string // 监听地址，默认 "0.0.0.0"
	Port int    // 监听端口，默认 8080
}

// BotConfig 定义聊天机器人适配层的接入配置
type BotConfig struct {
	Token            string  // 机器人令牌，适配层用它调用本服务，必填
	AdminIdentityIDs []int64 // 管理身份ID白名单，仅管理接口使用
}

// AliasConfig 定义各生成策略的单次上限
type AliasConfig struct {
	MaxPlus   int // plus 策略单次最多生成数，默认 100
	MaxDot    int // dot 策略单次最多生成数，默认 30
	MaxCustom int // custom 策略单次最多生成数，默认 30
}

// QuotaWindowConfig 定义一个固定配额窗口
type QuotaWindowConfig struct {
	Duration    time.Duration // 窗口时长
	MaxRequests int           // 窗口内最大请求数，0 表示该窗口未启用
}

// QuotaConfig 定义身份级请求配额。分钟窗口更紧，先于小时窗口检查。
type QuotaConfig struct {
	Minute QuotaWindowConfig
	Hour   QuotaWindowConfig
}

// HTTPRateLimitConfig 定义 HTTP 层按 IP 的限流配置
type HTTPRateLimitConfig struct {
	Window      time.Duration // 计数窗口，默认 1m
	MaxRequests int           // 窗口内单 IP 最大请求数，默认 120
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 启用彩色输出和详细堆栈信息
	File        string // 日志文件路径，留空表示仅输出到标准输出
}

// DatabaseConfig 定义数据库连接配置（支持 MySQL 和 PostgreSQL）
type DatabaseConfig struct {
	Type            string        // 数据库类型: "mysql" 或 "postgres"，留空使用内存存储
	DSN             string        // 数据库连接字符串
	MaxOpenConns    int           // 最大打开连接数，默认 25
	MaxIdleConns    int           // 最大空闲连接数，默认 5
	ConnMaxLifetime time.Duration // 连接最大生命周期，默认 5 分钟
}

// RedisConfig 定义 Redis 缓存服务配置
type RedisConfig struct {
	Enabled  bool   // 是否启用 Redis（IP 限流计数与身份缓存）
	Address  string // Redis 服务地址，格式 "host:port"，默认 "localhost:6379"
	Password string // Redis 认证密码，留空表示无密码
	DB       int    // Redis 数据库编号，默认 0
}

// Config 是系统核心配置的根结构体，包含所有子系统的配置
type Config struct {
	Server        ServerConfig
	Bot           BotConfig
	Alias         AliasConfig
	Quota         QuotaConfig
	HTTPRateLimit HTTPRateLimitConfig
	CORS          CORSConfig
	Log           LogConfig
	Database      DatabaseConfig
	Redis         RedisConfig
}

// StrategyMax 返回指定策略的单次生成上限，未知策略返回 0。
func (c *AliasConfig) StrategyMax(strategy string) int {
	switch strategy {
	case "plus":
		return c.MaxPlus
	case "dot":
		return c.MaxDot
	case "custom":
		return c.MaxCustom
	default:
		return 0
	}
}

// IsAdmin 判断身份是否在管理白名单中。
func (c *BotConfig) IsAdmin(identityID int64) bool {
	for _, id := range c.AdminIdentityIDs {
		if id == identityID {
			return true
		}
	}
	return false
}

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//  1. 系统环境变量（最高优先级）
//  2. .env 文件（如果存在）
//  3. 默认值
//
// 环境变量前缀: ALIASBOT_
// 例如: ALIASBOT_SERVER_HOST, ALIASBOT_BOT_TOKEN
func Load() (*Config, error) {
	// 尝试加载 .env 文件（静默失败，因为 .env 文件是可选的）
	loadEnvFile()

	viper.SetEnvPrefix("aliasbot")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("bot.token", "")
	viper.SetDefault("bot.admin_identity_ids", "")
	viper.SetDefault("alias.max_plus", 100)
	viper.SetDefault("alias.max_dot", 30)
	viper.SetDefault("alias.max_custom", 30)
	viper.SetDefault("quota.minute_window", "1m")
	viper.SetDefault("quota.minute_max_requests", 10)
	viper.SetDefault("quota.hour_window", "1h")
	viper.SetDefault("quota.hour_max_requests", 100)
	viper.SetDefault("http_rate_limit.window", "1m")
	viper.SetDefault("http_rate_limit.max_requests", 120)
	viper.SetDefault("cors.allowed_origins", "*")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
	viper.SetDefault("log.file", "")
	viper.SetDefault("database.type", "") // 默认为空，使用内存存储
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "5m")
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	botToken := viper.GetString("bot.token")
	if botToken == "" {
		return nil, fmt.Errorf("bot token is required: set ALIASBOT_BOT_TOKEN")
	}

	adminIDs, err := parseIdentityIDs(viper.GetString("bot.admin_identity_ids"))
	if err != nil {
		return nil, fmt.Errorf("invalid bot.admin_identity_ids: %w", err)
	}

	minuteWindow, err := time.ParseDuration(viper.GetString("quota.minute_window"))
	if err != nil {
		return nil, fmt.Errorf("invalid quota.minute_window: %w", err)
	}
	hourWindow, err := time.ParseDuration(viper.GetString("quota.hour_window"))
	if err != nil {
		return nil, fmt.Errorf("invalid quota.hour_window: %w", err)
	}

	rateWindow, err := time.ParseDuration(viper.GetString("http_rate_limit.window"))
	if err != nil {
		rateWindow = time.Minute
	}

	corsOrigins := parseList(viper.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	connMaxLifetime, err := time.ParseDuration(viper.GetString("database.conn_max_lifetime"))
	if err != nil {
		connMaxLifetime = 5 * time.Minute
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("server.host"),
			Port: viper.GetInt("server.port"),
		},
		Bot: BotConfig{
			Token:            botToken,
			AdminIdentityIDs: adminIDs,
		},
		Alias: AliasConfig{
			MaxPlus:   viper.GetInt("alias.max_plus"),
			MaxDot:    viper.GetInt("alias.max_dot"),
			MaxCustom: viper.GetInt("alias.max_custom"),
		},
		Quota: QuotaConfig{
			Minute: QuotaWindowConfig{
				Duration:    minuteWindow,
				MaxRequests: viper.GetInt("quota.minute_max_requests"),
			},
			Hour: QuotaWindowConfig{
				Duration:    hourWindow,
				MaxRequests: viper.GetInt("quota.hour_max_requests"),
			},
		},
		HTTPRateLimit: HTTPRateLimitConfig{
			Window:      rateWindow,
			MaxRequests: viper.GetInt("http_rate_limit.max_requests"),
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
		Log: LogConfig{
			Level:       viper.GetString("log.level"),
			Development: viper.GetBool("log.development"),
			File:        viper.GetString("log.file"),
		},
		Database: DatabaseConfig{
			Type:            viper.GetString("database.type"),
			DSN:             viper.GetString("database.dsn"),
			MaxOpenConns:    viper.GetInt("database.max_open_conns"),
			MaxIdleConns:    viper.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Redis: RedisConfig{
			Enabled:  viper.GetBool("redis.enabled"),
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate 校验配置的内部一致性。
func (c *Config) validate() error {
	if c.Alias.MaxPlus <= 0 || c.Alias.MaxDot <= 0 || c.Alias.MaxCustom <= 0 {
		return fmt.Errorf("alias strategy limits must be positive")
	}
	if c.Quota.Minute.MaxRequests == 0 && c.Quota.Hour.MaxRequests == 0 {
		return fmt.Errorf("at least one quota window must be enabled")
	}
	if c.Quota.Minute.MaxRequests > 0 && c.Quota.Minute.Duration <= 0 {
		return fmt.Errorf("quota.minute_window must be positive")
	}
	if c.Quota.Hour.MaxRequests > 0 && c.Quota.Hour.Duration <= 0 {
		return fmt.Errorf("quota.hour_window must be positive")
	}
	if c.Database.Type != "" && c.Database.Type != "mysql" && c.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database.type: %s", c.Database.Type)
	}
	if c.Database.Type != "" && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required when database.type is set")
	}
	return nil
}

// parseIdentityIDs 将逗号分隔的数字ID字符串解析为 int64 切片
func parseIdentityIDs(value string) ([]int64, error) {
	parts := parseList(value)
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not a numeric identity id: %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseList 将逗号分隔的字符串解析为字符串切片，已去除空白字符
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile 尝试加载 .env 文件
//
// 加载顺序：
//  1. 当前目录的 .env
//  2. 父目录的 .env（从子目录运行的情况）
//
// 文件不存在时静默失败（.env 是可选的），已存在的环境变量优先级更高。
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
