package ecs

import (
	"context"
	"fmt"

	"booksearch/internal/model"

	"go.uber.org/zap"
)

// Fetcher 传输层：对签名 URL 发起 GET 并返回响应体
type Fetcher interface {
	GetRawData(ctx context.Context, rawURL string) ([]byte, error)
}

// Response 一次查询的完整产出
type Response struct {
	Operation string
	Request   *SignedRequest
	Result    *model.SearchResult
	Raw       []byte
}

// Service ECS 图书查询服务：签名 -> 获取 -> 解析
type Service struct {
	signer  *Signer
	fetcher Fetcher
	logger  *zap.Logger
}

// NewService 创建新的查询服务
func NewService(signer *Signer, fetcher Fetcher, logger *zap.Logger) *Service {
	return &Service{
		signer:  signer,
		fetcher: fetcher,
		logger:  logger,
	}
}

// Search 执行一次查询
// 签名失败在任何网络调用之前返回；远端返回 IsValid=false 不视为错误
func (s *Service) Search(ctx context.Context, op Operation) (*Response, error) {
	signed, err := s.signer.Sign(op)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to sign request", zap.Error(err))
		}
		return nil, fmt.Errorf("sign failed: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("executing ECS request",
			zap.String("operation", op.Name()),
			zap.String("canonical_query", signed.CanonicalQuery),
		)
	}

	raw, err := s.fetcher.GetRawData(ctx, signed.URL)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to fetch ECS response",
				zap.String("operation", op.Name()),
				zap.Error(err),
			)
		}
		return nil, fmt.Errorf("failed to fetch data: %w", err)
	}

	result := ParseResponse(raw)

	if s.logger != nil {
		if result.IsValid {
			s.logger.Info("ECS response parsed",
				zap.String("operation", op.Name()),
				zap.Int("total_results", result.TotalResults),
				zap.Int("total_pages", result.TotalPages),
				zap.Int("item_count", len(result.Items)),
			)
		} else {
			s.logger.Warn("ECS reported an invalid request",
				zap.String("operation", op.Name()),
				zap.String("error_message", model.StringValue(result.ErrorMessage)),
			)
		}
	}

	return &Response{
		Operation: op.Name(),
		Request:   signed,
		Result:    result,
		Raw:       raw,
	}, nil
}

// SearchBooks 按关键词搜索图书
func (s *Service) SearchBooks(ctx context.Context, keywords string) (*Response, error) {
	return s.Search(ctx, NewItemSearch(keywords))
}

// LookupByASIN 按 ASIN 查询详情
func (s *Service) LookupByASIN(ctx context.Context, asin string) (*Response, error) {
	return s.Search(ctx, NewItemLookupByASIN(asin))
}

// LookupByISBN 按 ISBN 查询详情
func (s *Service) LookupByISBN(ctx context.Context, isbn string) (*Response, error) {
	return s.Search(ctx, NewItemLookupByISBN(isbn))
}

// SimilarByASIN 按 ASIN 查询相似图书
func (s *Service) SimilarByASIN(ctx context.Context, asin string) (*Response, error) {
	return s.Search(ctx, NewSimilarityLookupByASIN(asin))
}

// SimilarByISBN 按 ISBN 查询相似图书
func (s *Service) SimilarByISBN(ctx context.Context, isbn string) (*Response, error) {
	return s.Search(ctx, NewSimilarityLookupByISBN(isbn))
}
