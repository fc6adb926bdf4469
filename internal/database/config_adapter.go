package database

import (
	"booksearch/internal/config"

	"go.uber.org/zap"
)

// ConfigFromAppConfig 从应用配置转换为数据库配置
func ConfigFromAppConfig(cfg *config.Config, logger *zap.Logger) Config {
	my := cfg.Database.MySQL
	pg := cfg.Database.PostgreSQL
	mg := cfg.Database.MongoDB

	return Config{
		MySQL: MySQLConfig{
			Enabled:  my.Enabled,
			Host:     my.Host,
			Port:     my.Port,
			Username: my.Username,
			Password: my.Password,
			Database: my.Database,
			Charset:  my.Charset,
			Pool: PoolConfig{
				MaxOpenConns:    my.MaxOpenConns,
				MaxIdleConns:    my.MaxIdleConns,
				ConnMaxLifetime: my.ConnMaxLifetime,
				ConnMaxIdleTime: my.ConnMaxIdleTime,
			},
		},
		PostgreSQL: PostgreSQLConfig{
			Enabled:  pg.Enabled,
			Host:     pg.Host,
			Port:     pg.Port,
			Username: pg.Username,
			Password: pg.Password,
			Database: pg.Database,
			SSLMode:  pg.SSLMode,
			Pool: PoolConfig{
				MaxOpenConns:    pg.MaxOpenConns,
				MaxIdleConns:    pg.MaxIdleConns,
				ConnMaxLifetime: pg.ConnMaxLifetime,
				ConnMaxIdleTime: pg.ConnMaxIdleTime,
			},
		},
		SQLite: SQLiteConfig{
			Enabled: cfg.Database.SQLite.Enabled,
			Path:    cfg.Database.SQLite.Path,
		},
		MongoDB: MongoDBConfig{
			Enabled:     mg.Enabled,
			URI:         mg.URI,
			Database:    mg.Database,
			AuthSource:  mg.AuthSource,
			Username:    mg.Username,
			Password:    mg.Password,
			ReplicaSet:  mg.ReplicaSet,
			MaxPoolSize: mg.MaxPoolSize,
			MinPoolSize: mg.MinPoolSize,
			MaxIdleTime: mg.MaxIdleTime,
		},
		Logger: logger,
	}
}
