package config

import (
	"fmt"
	"os"
	"strings"

	"booksearch/internal/api/ecs"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// 观察列表中的操作名
const (
	WatchOperationItemSearch       = "item_search"
	WatchOperationItemLookup       = "item_lookup"
	WatchOperationSimilarityLookup = "similarity_lookup"
)

// WatchlistConfig 定时查询列表
type WatchlistConfig struct {
	Entries []WatchEntry `mapstructure:"entries"`
}

// WatchEntry 一条定时查询
type WatchEntry struct {
	Name          string `mapstructure:"name"`
	Enabled       bool   `mapstructure:"enabled"`
	Schedule      string `mapstructure:"schedule"` // 带秒的 cron 表达式
	Operation     string `mapstructure:"operation"`
	Keywords      string `mapstructure:"keywords"`
	IDType        string `mapstructure:"id_type"`
	ItemID        string `mapstructure:"item_id"`
	SearchIndex   string `mapstructure:"search_index"`
	ResponseGroup string `mapstructure:"response_group"`
}

// BuildOperation 把配置项转换为 ECS 操作
// 未配置的 search_index、response_group 使用对应构造函数的默认值
func (e WatchEntry) BuildOperation() (ecs.Operation, error) {
	switch strings.ToLower(strings.TrimSpace(e.Operation)) {
	case WatchOperationItemSearch:
		op := ecs.NewItemSearch(e.Keywords)
		if e.SearchIndex != "" {
			op.SearchIndex = e.SearchIndex
		}
		if e.ResponseGroup != "" {
			op.ResponseGroup = e.ResponseGroup
		}
		return op, op.Validate()

	case WatchOperationItemLookup:
		idType, err := ecs.ParseIDType(e.IDType)
		if err != nil {
			return nil, fmt.Errorf("watch entry %q: %w", e.Name, err)
		}
		op := ecs.NewItemLookupByASIN(e.ItemID)
		if idType == ecs.IDTypeISBN {
			op = ecs.NewItemLookupByISBN(e.ItemID)
		}
		if e.SearchIndex != "" {
			op.SearchIndex = e.SearchIndex
		}
		if e.ResponseGroup != "" {
			op.ResponseGroup = e.ResponseGroup
		}
		return op, op.Validate()

	case WatchOperationSimilarityLookup:
		idType, err := ecs.ParseIDType(e.IDType)
		if err != nil {
			return nil, fmt.Errorf("watch entry %q: %w", e.Name, err)
		}
		op := ecs.SimilarityLookup{IDType: idType, ItemID: e.ItemID, ResponseGroup: e.ResponseGroup}
		return op, op.Validate()

	default:
		return nil, fmt.Errorf("watch entry %q: unknown operation %q", e.Name, e.Operation)
	}
}

// LoadWatchlistConfig 加载 watchlist.yaml
// 找不到文件时返回空列表
func LoadWatchlistConfig(configPath string, logger *zap.Logger) (*WatchlistConfig, error) {
	v := viper.New()
	v.SetConfigName("watchlist")
	v.SetConfigType("yaml")

	// 添加配置路径
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if logger != nil {
				logger.Warn("watchlist.yaml not found, no scheduled searches")
			}
			return &WatchlistConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read watchlist config file: %w", err)
	}

	return decodeWatchlist(v, v.ConfigFileUsed(), logger)
}

// LoadWatchlistConfigFromFile 从指定文件加载观察列表
func LoadWatchlistConfigFromFile(filePath string, logger *zap.Logger) (*WatchlistConfig, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		if logger != nil {
			logger.Warn("watchlist file not found, no scheduled searches",
				zap.String("file_path", filePath),
			)
		}
		return &WatchlistConfig{}, nil
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(filePath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read watchlist config file: %w", err)
	}

	return decodeWatchlist(v, filePath, logger)
}

func decodeWatchlist(v *viper.Viper, source string, logger *zap.Logger) (*WatchlistConfig, error) {
	var watchlist WatchlistConfig
	if err := v.Unmarshal(&watchlist); err != nil {
		return nil, fmt.Errorf("failed to unmarshal watchlist config: %w", err)
	}

	if logger != nil {
		logger.Info("watchlist config loaded successfully",
			zap.String("config_file", source),
			zap.Int("entries", len(watchlist.Entries)),
		)
	}
	return &watchlist, nil
}
