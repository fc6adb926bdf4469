package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQL 方言，与 database/sql 驱动名一致
const (
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const (
	sqlPingTimeout   = 5 * time.Second
	mongoDialTimeout = 10 * time.Second
)

// Databases 数据库连接管理器
// 各数据库都是可选的，未启用的字段为 nil
type Databases struct {
	MySQL      *sql.DB
	PostgreSQL *sql.DB
	SQLite     *sql.DB
	MongoDB    *mongo.Database
	logger     *zap.Logger
}

// Config 数据库配置
type Config struct {
	MySQL      MySQLConfig
	PostgreSQL PostgreSQLConfig
	SQLite     SQLiteConfig
	MongoDB    MongoDBConfig
	Logger     *zap.Logger
}

// PoolConfig SQL 连接池配置
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// MySQLConfig MySQL 配置，保存图书目录
type MySQLConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	Database string
	Charset  string
	Pool     PoolConfig
}

// PostgreSQLConfig PostgreSQL 配置，保存图书目录
type PostgreSQLConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	Database string
	SSLMode  string
	Pool     PoolConfig
}

// SQLiteConfig 本地 SQLite 文件，未配置 MySQL/PostgreSQL 时保存图书目录
type SQLiteConfig struct {
	Enabled bool
	Path    string
}

// MongoDBConfig MongoDB 配置，保存查询归档
type MongoDBConfig struct {
	Enabled     bool
	URI         string
	Database    string
	AuthSource  string
	Username    string
	Password    string
	ReplicaSet  string
	MaxPoolSize uint64
	MinPoolSize uint64
	MaxIdleTime time.Duration
}

// DSN 构造 go-sql-driver/mysql 连接串
func (c MySQLConfig) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = c.Username
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
	cfg.DBName = c.Database
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	if c.Charset != "" {
		cfg.Params = map[string]string{"charset": c.Charset}
	}
	return cfg.FormatDSN()
}

// DSN 构造 lib/pq URL 形式的连接串
func (c PostgreSQLConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{c.SSLMode}}.Encode()
	}
	return u.String()
}

// New 创建数据库连接管理器
func New(cfg Config) (*Databases, error) {
	db := &Databases{
		logger: cfg.Logger,
	}

	if cfg.MySQL.Enabled {
		conn, err := openSQL(DialectMySQL, cfg.MySQL.DSN(), cfg.MySQL.Pool)
		if err != nil {
			return nil, fmt.Errorf("failed to connect MySQL: %w", err)
		}
		db.MySQL = conn
		if cfg.Logger != nil {
			cfg.Logger.Info("MySQL connected successfully",
				zap.String("host", cfg.MySQL.Host),
				zap.String("database", cfg.MySQL.Database),
			)
		}
	}

	if cfg.PostgreSQL.Enabled {
		conn, err := openSQL(DialectPostgres, cfg.PostgreSQL.DSN(), cfg.PostgreSQL.Pool)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect PostgreSQL: %w", err)
		}
		db.PostgreSQL = conn
		if cfg.Logger != nil {
			cfg.Logger.Info("PostgreSQL connected successfully",
				zap.String("host", cfg.PostgreSQL.Host),
				zap.String("database", cfg.PostgreSQL.Database),
			)
		}
	}

	if cfg.SQLite.Enabled {
		conn, err := openSQLite(cfg.SQLite.Path)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to open SQLite: %w", err)
		}
		db.SQLite = conn
		if cfg.Logger != nil {
			cfg.Logger.Info("SQLite opened successfully", zap.String("path", cfg.SQLite.Path))
		}
	}

	if cfg.MongoDB.Enabled {
		mdb, err := connectMongoDB(cfg.MongoDB)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect MongoDB: %w", err)
		}
		db.MongoDB = mdb
		if cfg.Logger != nil {
			cfg.Logger.Info("MongoDB connected successfully",
				zap.String("database", cfg.MongoDB.Database),
			)
		}
	}

	return db, nil
}

// openSQL 打开 SQL 连接、设置连接池并测试连通性
func openSQL(driver, dsn string, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", driver, err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), sqlPingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}
	return db, nil
}

// openSQLite 打开 SQLite 文件并启用 WAL
// path 为 ":memory:" 时使用内存数据库
func openSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open(DialectSQLite, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// 单连接，避免内存库在不同连接间不可见以及写锁竞争
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	return db, nil
}

// connectMongoDB 连接 MongoDB
func connectMongoDB(cfg MongoDBConfig) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoDialTimeout)
	defer cancel()

	opts := options.Client().ApplyURI(cfg.URI)

	// 如果提供了用户名和密码，设置认证
	if cfg.Username != "" && cfg.Password != "" {
		opts.SetAuth(options.Credential{
			AuthSource: cfg.AuthSource,
			Username:   cfg.Username,
			Password:   cfg.Password,
		})
	}
	if cfg.ReplicaSet != "" {
		opts.SetReplicaSet(cfg.ReplicaSet)
	}
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.MinPoolSize > 0 {
		opts.SetMinPoolSize(cfg.MinPoolSize)
	}
	if cfg.MaxIdleTime > 0 {
		opts.SetMaxConnIdleTime(cfg.MaxIdleTime)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(cfg.Database), nil
}

// Catalog 返回保存图书目录的 SQL 连接及其方言
// 优先级 MySQL > PostgreSQL > SQLite；都未启用时返回 nil
func (d *Databases) Catalog() (*sql.DB, string) {
	if d == nil {
		return nil, ""
	}
	if d.MySQL != nil {
		return d.MySQL, DialectMySQL
	}
	if d.PostgreSQL != nil {
		return d.PostgreSQL, DialectPostgres
	}
	if d.SQLite != nil {
		return d.SQLite, DialectSQLite
	}
	return nil, ""
}

// Close 关闭所有数据库连接
func (d *Databases) Close() error {
	var errs []error

	if d.MySQL != nil {
		if err := d.MySQL.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close MySQL: %w", err))
		} else if d.logger != nil {
			d.logger.Info("MySQL connection closed")
		}
	}

	if d.PostgreSQL != nil {
		if err := d.PostgreSQL.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close PostgreSQL: %w", err))
		} else if d.logger != nil {
			d.logger.Info("PostgreSQL connection closed")
		}
	}

	if d.SQLite != nil {
		if err := d.SQLite.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close SQLite: %w", err))
		} else if d.logger != nil {
			d.logger.Info("SQLite connection closed")
		}
	}

	if d.MongoDB != nil {
		ctx, cancel := context.WithTimeout(context.Background(), sqlPingTimeout)
		defer cancel()

		if err := d.MongoDB.Client().Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close MongoDB: %w", err))
		} else if d.logger != nil {
			d.logger.Info("MongoDB connection closed")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing databases: %v", errs)
	}
	return nil
}

// Ping 检查所有已启用数据库的连接状态
func (d *Databases) Ping(ctx context.Context) error {
	if d.MySQL != nil {
		if err := d.MySQL.PingContext(ctx); err != nil {
			return fmt.Errorf("MySQL ping failed: %w", err)
		}
	}
	if d.PostgreSQL != nil {
		if err := d.PostgreSQL.PingContext(ctx); err != nil {
			return fmt.Errorf("PostgreSQL ping failed: %w", err)
		}
	}
	if d.SQLite != nil {
		if err := d.SQLite.PingContext(ctx); err != nil {
			return fmt.Errorf("SQLite ping failed: %w", err)
		}
	}
	if d.MongoDB != nil {
		if err := d.MongoDB.Client().Ping(ctx, nil); err != nil {
			return fmt.Errorf("MongoDB ping failed: %w", err)
		}
	}
	return nil
}
