package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"booksearch/internal/model"
	"booksearch/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultArchiveLimit = 20
	maxArchiveLimit     = 200
)

// ArchiveReader 查询存档
type ArchiveReader interface {
	RecentSearches(ctx context.Context, operation string, limit int64) ([]model.SearchArchive, error)
}

// ItemReader 按 ASIN 读取目录
type ItemReader interface {
	GetItem(ctx context.Context, asin string) (*model.ItemRecord, error)
}

// CatalogHandler 存档与图书目录查询处理器
type CatalogHandler struct {
	archive ArchiveReader
	items   ItemReader
	logger  *zap.Logger
}

// NewCatalogHandler 创建处理器，archive 和 items 可为 nil
func NewCatalogHandler(archive ArchiveReader, items ItemReader, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		archive: archive,
		items:   items,
		logger:  logger,
	}
}

// RecentSearches GET /archive?operation=&limit=
func (h *CatalogHandler) RecentSearches(c *gin.Context) {
	if h.archive == nil {
		JSONNotFound(c, h.logger, "search archive is not configured", nil)
		return
	}

	limit := defaultArchiveLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			JSONBadRequest(c, h.logger, "invalid limit", fmt.Errorf("limit must be a positive integer, got %q", raw))
			return
		}
		limit = n
	}
	if limit > maxArchiveLimit {
		limit = maxArchiveLimit
	}

	archives, err := h.archive.RecentSearches(c.Request.Context(), c.Query("operation"), int64(limit))
	if err != nil {
		JSONInternalError(c, h.logger, "failed to query search archive", err)
		return
	}

	JSONSuccess(c, gin.H{
		"count":    len(archives),
		"archives": archives,
	})
}

// GetItem GET /items/:asin
func (h *CatalogHandler) GetItem(c *gin.Context) {
	if h.items == nil {
		JSONNotFound(c, h.logger, "item catalog is not configured", nil)
		return
	}

	asin := c.Param("asin")
	item, err := h.items.GetItem(c.Request.Context(), asin)
	if errors.Is(err, repository.ErrItemNotFound) {
		JSONNotFound(c, h.logger, "item not found", fmt.Errorf("asin %s: %w", asin, err))
		return
	}
	if err != nil {
		JSONInternalError(c, h.logger, "failed to query item catalog", err)
		return
	}

	JSONSuccess(c, item)
}
