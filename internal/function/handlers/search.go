package handlers

import (
	"context"

	"booksearch/internal/api/ecs"
	"booksearch/internal/model"
	"booksearch/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ArchiveSource HTTP 触发的查询在存档中的来源
const ArchiveSource = "http"

// Searcher 执行一次 ECS 查询
type Searcher interface {
	Search(ctx context.Context, op ecs.Operation) (*ecs.Response, error)
}

// SearchHandler 图书查询处理器
type SearchHandler struct {
	searcher Searcher
	archive  *repository.SearchRepository
	logger   *zap.Logger
}

// NewSearchHandler 创建查询处理器，archive 可为 nil
func NewSearchHandler(searcher Searcher, archive *repository.SearchRepository, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		searcher: searcher,
		archive:  archive,
		logger:   logger,
	}
}

// SearchRequest 关键词搜索请求
type SearchRequest struct {
	Keywords      string `json:"keywords"`
	SearchIndex   string `json:"search_index,omitempty"`
	ResponseGroup string `json:"response_group,omitempty"`
}

// LookupRequest 详情查询请求
type LookupRequest struct {
	IDType        string `json:"id_type"`
	ItemID        string `json:"item_id"`
	SearchIndex   string `json:"search_index,omitempty"`
	ResponseGroup string `json:"response_group,omitempty"`
}

// SimilarRequest 相似图书查询请求
type SimilarRequest struct {
	IDType        string `json:"id_type"`
	ItemID        string `json:"item_id"`
	ResponseGroup string `json:"response_group,omitempty"`
}

// SearchData 查询成功时的 data 字段
// 签名和完整 URL 不返回
type SearchData struct {
	RequestID      string              `json:"request_id"`
	ArchiveID      string              `json:"archive_id,omitempty"`
	Operation      string              `json:"operation"`
	CanonicalQuery string              `json:"canonical_query"`
	Timestamp      string              `json:"timestamp"`
	Result         *model.SearchResult `json:"result"`
}

// Search POST /functions/search
func (h *SearchHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONBadRequest(c, h.logger, "invalid request body", err)
		return
	}

	op := ecs.NewItemSearch(req.Keywords)
	if req.SearchIndex != "" {
		op.SearchIndex = req.SearchIndex
	}
	if req.ResponseGroup != "" {
		op.ResponseGroup = req.ResponseGroup
	}
	h.execute(c, op)
}

// Lookup POST /functions/lookup
func (h *SearchHandler) Lookup(c *gin.Context) {
	var req LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONBadRequest(c, h.logger, "invalid request body", err)
		return
	}

	idType, err := ecs.ParseIDType(req.IDType)
	if err != nil {
		JSONBadRequest(c, h.logger, "invalid id_type", err)
		return
	}

	op := ecs.NewItemLookupByASIN(req.ItemID)
	if idType == ecs.IDTypeISBN {
		op = ecs.NewItemLookupByISBN(req.ItemID)
	}
	if req.SearchIndex != "" {
		op.SearchIndex = req.SearchIndex
	}
	if req.ResponseGroup != "" {
		op.ResponseGroup = req.ResponseGroup
	}
	h.execute(c, op)
}

// Similar POST /functions/similar
func (h *SearchHandler) Similar(c *gin.Context) {
	var req SimilarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONBadRequest(c, h.logger, "invalid request body", err)
		return
	}

	idType, err := ecs.ParseIDType(req.IDType)
	if err != nil {
		JSONBadRequest(c, h.logger, "invalid id_type", err)
		return
	}

	op := ecs.SimilarityLookup{IDType: idType, ItemID: req.ItemID, ResponseGroup: req.ResponseGroup}
	h.execute(c, op)
}

func (h *SearchHandler) execute(c *gin.Context, op ecs.Operation) {
	ctx := c.Request.Context()

	resp, err := h.searcher.Search(ctx, op)
	if err != nil {
		JSONError(c, h.logger, StatusForError(err), op.Name()+" failed", err)
		return
	}

	data := SearchData{
		RequestID: RequestID(c),
		Operation: resp.Operation,
		Result:    resp.Result,
	}
	if resp.Request != nil {
		data.CanonicalQuery = resp.Request.CanonicalQuery
		data.Timestamp = resp.Request.Timestamp
	}

	// 存档失败不影响查询结果
	if h.archive != nil {
		archive, err := h.archive.SaveSearch(ctx, ArchiveSource, resp)
		if err != nil {
			if h.logger != nil {
				h.logger.Warn("failed to archive search",
					zap.String("request_id", data.RequestID),
					zap.Error(err),
				)
			}
		} else {
			data.ArchiveID = archive.RequestID
		}
	}

	JSONSuccess(c, data)
}
