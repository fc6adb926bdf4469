package config

import (
	"fmt"
	"strings"
	"time"

	"booksearch/internal/api/ecs"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 BOOKSEARCH_ECS_API_ACCESS_KEY
const EnvPrefix = "BOOKSEARCH"

// Config 应用程序配置
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Database  DatabaseConfig  `mapstructure:"database"`
	ECSAPI    ECSAPIConfig    `mapstructure:"ecs_api"`
	Server    ServerConfig    `mapstructure:"server"`
	Shell     ShellConfig     `mapstructure:"shell"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env"` // development, production
}

// SchedulerConfig 调度器配置
type SchedulerConfig struct {
	DefaultTimeout string `mapstructure:"default_timeout"` // 例如: "5m"
	Location       string `mapstructure:"location"`        // 例如: "UTC"
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level      string `mapstructure:"level"`       // verbose, debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // 日志输出路径，为空时只输出到控制台
	MaxSize    int    `mapstructure:"max_size"`    // 日志文件最大大小(MB)
	MaxBackups int    `mapstructure:"max_backups"` // 保留的日志文件数量
	MaxAge     int    `mapstructure:"max_age"`     // 日志保留天数
	Compress   bool   `mapstructure:"compress"`    // 是否压缩旧日志
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	MySQL      MySQLConfig      `mapstructure:"mysql"`
	PostgreSQL PostgreSQLConfig `mapstructure:"postgresql"`
	SQLite     SQLiteConfig     `mapstructure:"sqlite"`
	MongoDB    MongoDBConfig    `mapstructure:"mongodb"`
}

// MySQLConfig MySQL 配置
type MySQLConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	Charset  string `mapstructure:"charset"`
	// 连接池配置
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeStr string `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTimeStr string `mapstructure:"conn_max_idle_time"`

	// 解析后的时间，由 Load 函数填充
	ConnMaxLifetime time.Duration `mapstructure:"-"`
	ConnMaxIdleTime time.Duration `mapstructure:"-"`
}

// PostgreSQLConfig PostgreSQL 配置
type PostgreSQLConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
	// 连接池配置
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeStr string `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTimeStr string `mapstructure:"conn_max_idle_time"`

	// 解析后的时间，由 Load 函数填充
	ConnMaxLifetime time.Duration `mapstructure:"-"`
	ConnMaxIdleTime time.Duration `mapstructure:"-"`
}

// SQLiteConfig SQLite 配置
type SQLiteConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// MongoDBConfig MongoDB 配置
type MongoDBConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	URI            string `mapstructure:"uri"`
	Database       string `mapstructure:"database"`
	AuthSource     string `mapstructure:"auth_source"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	ReplicaSet     string `mapstructure:"replica_set"`
	MaxPoolSize    uint64 `mapstructure:"max_pool_size"`
	MinPoolSize    uint64 `mapstructure:"min_pool_size"`
	MaxIdleTimeStr string `mapstructure:"max_idle_time"`

	MaxIdleTime time.Duration `mapstructure:"-"`
}

// ECSAPIConfig Amazon ECS API 配置
type ECSAPIConfig struct {
	AccessKey         string `mapstructure:"access_key"`
	SecretKey         string `mapstructure:"secret_key"`
	AssociateTag      string `mapstructure:"associate_tag"`
	TimeoutStr        string `mapstructure:"timeout"` // 例如: "30s"
	MaxRetries        int    `mapstructure:"max_retries"`
	RetryBaseDelayStr string `mapstructure:"retry_base_delay"`
	RetryMaxDelayStr  string `mapstructure:"retry_max_delay"`
	PrintQueryURL     bool   `mapstructure:"print_query_url"`     // 是否打印签名 URL（用于调试）
	PrintResponseBody bool   `mapstructure:"print_response_body"` // 是否打印 API 响应体（用于调试）

	// 解析后的时间，由 Load 函数填充
	Timeout        time.Duration `mapstructure:"-"`
	RetryBaseDelay time.Duration `mapstructure:"-"`
	RetryMaxDelay  time.Duration `mapstructure:"-"`
}

// Credentials 构造签名凭证
func (c ECSAPIConfig) Credentials() ecs.Credentials {
	return ecs.Credentials{
		AccessKey:    c.AccessKey,
		SecretKey:    c.SecretKey,
		AssociateTag: c.AssociateTag,
	}
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"` // 是否启用服务器
	Host    string `mapstructure:"host"`    // 监听地址
	Port    int    `mapstructure:"port"`    // 监听端口
	Mode    string `mapstructure:"mode"`    // gin 模式: debug, release, test
}

// ShellConfig 命令行客户端配置
type ShellConfig struct {
	ServerURL string `mapstructure:"server_url"`
}

// ArchiveConfig 查询存档清理配置
type ArchiveConfig struct {
	RetentionStr    string `mapstructure:"retention"`        // 例如: "720h"，为空时不清理
	CleanupSchedule string `mapstructure:"cleanup_schedule"` // 带秒的 cron 表达式

	Retention time.Duration `mapstructure:"-"`
}

// Load 加载配置
// 查找顺序：configPath、当前目录、./configs；文件不存在时只使用默认值和环境变量
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// 设置环境变量
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 解析时间字符串
	if err := config.parseDurations(); err != nil {
		return nil, fmt.Errorf("failed to parse durations: %w", err)
	}

	return &config, nil
}

// parseDurations 解析时间字符串
func (c *Config) parseDurations() error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"database.mysql.conn_max_lifetime", c.Database.MySQL.ConnMaxLifetimeStr, &c.Database.MySQL.ConnMaxLifetime},
		{"database.mysql.conn_max_idle_time", c.Database.MySQL.ConnMaxIdleTimeStr, &c.Database.MySQL.ConnMaxIdleTime},
		{"database.postgresql.conn_max_lifetime", c.Database.PostgreSQL.ConnMaxLifetimeStr, &c.Database.PostgreSQL.ConnMaxLifetime},
		{"database.postgresql.conn_max_idle_time", c.Database.PostgreSQL.ConnMaxIdleTimeStr, &c.Database.PostgreSQL.ConnMaxIdleTime},
		{"database.mongodb.max_idle_time", c.Database.MongoDB.MaxIdleTimeStr, &c.Database.MongoDB.MaxIdleTime},
		{"ecs_api.timeout", c.ECSAPI.TimeoutStr, &c.ECSAPI.Timeout},
		{"ecs_api.retry_base_delay", c.ECSAPI.RetryBaseDelayStr, &c.ECSAPI.RetryBaseDelay},
		{"ecs_api.retry_max_delay", c.ECSAPI.RetryMaxDelayStr, &c.ECSAPI.RetryMaxDelay},
		{"archive.retention", c.Archive.RetentionStr, &c.Archive.Retention},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		duration, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", f.name, err)
		}
		*f.dst = duration
	}

	return nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// App 默认值
	v.SetDefault("app.name", "booksearch")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.env", "development")

	// Scheduler 默认值
	v.SetDefault("scheduler.default_timeout", "5m")
	v.SetDefault("scheduler.location", "UTC")

	// Logger 默认值
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "logs/booksearch.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.compress", true)

	// MySQL
	v.SetDefault("database.mysql.enabled", false)
	v.SetDefault("database.mysql.host", "localhost")
	v.SetDefault("database.mysql.port", 3306)
	v.SetDefault("database.mysql.username", "")
	v.SetDefault("database.mysql.password", "")
	v.SetDefault("database.mysql.database", "booksearch")
	v.SetDefault("database.mysql.charset", "utf8mb4")
	v.SetDefault("database.mysql.max_open_conns", 25)
	v.SetDefault("database.mysql.max_idle_conns", 5)
	v.SetDefault("database.mysql.conn_max_lifetime", "5m")
	v.SetDefault("database.mysql.conn_max_idle_time", "10m")

	// PostgreSQL
	v.SetDefault("database.postgresql.enabled", false)
	v.SetDefault("database.postgresql.host", "localhost")
	v.SetDefault("database.postgresql.port", 5432)
	v.SetDefault("database.postgresql.username", "")
	v.SetDefault("database.postgresql.password", "")
	v.SetDefault("database.postgresql.database", "booksearch")
	v.SetDefault("database.postgresql.sslmode", "disable")
	v.SetDefault("database.postgresql.max_open_conns", 25)
	v.SetDefault("database.postgresql.max_idle_conns", 5)
	v.SetDefault("database.postgresql.conn_max_lifetime", "5m")
	v.SetDefault("database.postgresql.conn_max_idle_time", "10m")

	// SQLite
	v.SetDefault("database.sqlite.enabled", false)
	v.SetDefault("database.sqlite.path", "data/booksearch.db")

	// MongoDB
	v.SetDefault("database.mongodb.enabled", false)
	v.SetDefault("database.mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("database.mongodb.database", "booksearch")
	v.SetDefault("database.mongodb.auth_source", "admin")
	v.SetDefault("database.mongodb.username", "")
	v.SetDefault("database.mongodb.password", "")
	v.SetDefault("database.mongodb.max_pool_size", 100)
	v.SetDefault("database.mongodb.min_pool_size", 10)
	v.SetDefault("database.mongodb.max_idle_time", "30m")

	// ECS API 默认值，凭证为空时签名会以配置错误失败
	v.SetDefault("ecs_api.access_key", "")
	v.SetDefault("ecs_api.secret_key", "")
	v.SetDefault("ecs_api.associate_tag", "")
	v.SetDefault("ecs_api.timeout", "30s")
	v.SetDefault("ecs_api.max_retries", 2)
	v.SetDefault("ecs_api.retry_base_delay", "500ms")
	v.SetDefault("ecs_api.retry_max_delay", "5s")
	v.SetDefault("ecs_api.print_query_url", false)
	v.SetDefault("ecs_api.print_response_body", false)

	// Server 默认值
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")

	// Shell 默认值
	v.SetDefault("shell.server_url", "http://localhost:8080")

	// Archive 默认值
	v.SetDefault("archive.retention", "720h")
	v.SetDefault("archive.cleanup_schedule", "0 0 2 * * *")
}

// GetDefaultTimeout 获取默认超时时间
func (c *Config) GetDefaultTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Scheduler.DefaultTimeout)
}

// GetLocation 获取时区
func (c *Config) GetLocation() (*time.Location, error) {
	return time.LoadLocation(c.Scheduler.Location)
}
