package ecs

import (
	"fmt"
	"strings"
)

// 操作名称，与 ECS 的 Operation 参数一致
const (
	OperationItemSearch       = "ItemSearch"
	OperationItemLookup       = "ItemLookup"
	OperationSimilarityLookup = "SimilarityLookup"
)

const (
	// SearchIndexBooks 图书搜索索引
	SearchIndexBooks = "Books"
	// DefaultResponseGroup 默认返回的数据分组
	DefaultResponseGroup = "ItemAttributes,Images,EditorialReview"
)

// IDType 商品标识类型
type IDType string

const (
	IDTypeASIN IDType = "ASIN"
	IDTypeISBN IDType = "ISBN"
)

// ParseIDType 解析标识类型，不区分大小写
func ParseIDType(s string) (IDType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(IDTypeASIN):
		return IDTypeASIN, nil
	case string(IDTypeISBN):
		return IDTypeISBN, nil
	default:
		return "", fmt.Errorf("unknown id type: %q (valid: ASIN, ISBN)", s)
	}
}

// Operation 一次 ECS 查询操作
// 只有 ItemSearch、ItemLookup、SimilarityLookup 三种实现
type Operation interface {
	// Name 返回 ECS Operation 参数值
	Name() string

	// Validate 验证请求参数
	Validate() error

	// ToQueryParams 转换为查询参数字典，空值由签名器丢弃
	ToQueryParams() map[string]string

	isOperation()
}

// ItemSearch 按关键词搜索
type ItemSearch struct {
	Keywords      string `json:"keywords"`
	SearchIndex   string `json:"search_index,omitempty"`
	ResponseGroup string `json:"response_group,omitempty"`
}

// NewItemSearch 创建图书关键词搜索
func NewItemSearch(keywords string) ItemSearch {
	return ItemSearch{
		Keywords:      keywords,
		SearchIndex:   SearchIndexBooks,
		ResponseGroup: DefaultResponseGroup,
	}
}

func (ItemSearch) Name() string { return OperationItemSearch }

func (ItemSearch) isOperation() {}

// Validate 验证请求参数
func (op ItemSearch) Validate() error {
	if strings.TrimSpace(op.Keywords) == "" {
		return &ValidationError{Operation: OperationItemSearch, Field: "keywords", Reason: "is required"}
	}
	return nil
}

// ToQueryParams 转换为查询参数字典
func (op ItemSearch) ToQueryParams() map[string]string {
	return map[string]string{
		"Operation":     OperationItemSearch,
		"Keywords":      strings.TrimSpace(op.Keywords),
		"SearchIndex":   op.SearchIndex,
		"ResponseGroup": op.ResponseGroup,
	}
}

// ItemLookup 按 ASIN 或 ISBN 查询详情
type ItemLookup struct {
	IDType        IDType `json:"id_type"`
	ItemID        string `json:"item_id"`
	SearchIndex   string `json:"search_index,omitempty"`
	ResponseGroup string `json:"response_group,omitempty"`
}

// NewItemLookupByASIN 按 ASIN 查询详情
func NewItemLookupByASIN(asin string) ItemLookup {
	return ItemLookup{
		IDType:        IDTypeASIN,
		ItemID:        asin,
		ResponseGroup: DefaultResponseGroup,
	}
}

// NewItemLookupByISBN 按 ISBN 查询详情，ECS 要求 ISBN 查询带上 SearchIndex
func NewItemLookupByISBN(isbn string) ItemLookup {
	return ItemLookup{
		IDType:        IDTypeISBN,
		ItemID:        isbn,
		SearchIndex:   SearchIndexBooks,
		ResponseGroup: DefaultResponseGroup,
	}
}

func (ItemLookup) Name() string { return OperationItemLookup }

func (ItemLookup) isOperation() {}

// Validate 验证请求参数
func (op ItemLookup) Validate() error {
	return validateIdentifier(OperationItemLookup, op.IDType, op.ItemID)
}

// ToQueryParams 转换为查询参数字典
func (op ItemLookup) ToQueryParams() map[string]string {
	return map[string]string{
		"Operation":     OperationItemLookup,
		"IdType":        string(op.IDType),
		"ItemId":        strings.TrimSpace(op.ItemID),
		"SearchIndex":   op.SearchIndex,
		"ResponseGroup": op.ResponseGroup,
	}
}

// SimilarityLookup 查询相似商品
type SimilarityLookup struct {
	IDType        IDType `json:"id_type"`
	ItemID        string `json:"item_id"`
	ResponseGroup string `json:"response_group,omitempty"`
}

// NewSimilarityLookupByASIN 按 ASIN 查询相似图书
func NewSimilarityLookupByASIN(asin string) SimilarityLookup {
	return SimilarityLookup{IDType: IDTypeASIN, ItemID: asin}
}

// NewSimilarityLookupByISBN 按 ISBN 查询相似图书
func NewSimilarityLookupByISBN(isbn string) SimilarityLookup {
	return SimilarityLookup{IDType: IDTypeISBN, ItemID: isbn}
}

func (SimilarityLookup) Name() string { return OperationSimilarityLookup }

func (SimilarityLookup) isOperation() {}

// Validate 验证请求参数
func (op SimilarityLookup) Validate() error {
	return validateIdentifier(OperationSimilarityLookup, op.IDType, op.ItemID)
}

// ToQueryParams 转换为查询参数字典
func (op SimilarityLookup) ToQueryParams() map[string]string {
	return map[string]string{
		"Operation":     OperationSimilarityLookup,
		"IdType":        string(op.IDType),
		"ItemId":        strings.TrimSpace(op.ItemID),
		"ResponseGroup": op.ResponseGroup,
	}
}

// validateIdentifier 标识必须且只能是 ASIN 或 ISBN 之一
func validateIdentifier(operation string, idType IDType, itemID string) error {
	if strings.TrimSpace(itemID) == "" {
		return &ValidationError{Operation: operation, Field: "item id", Reason: "is required (neither ASIN nor ISBN supplied)"}
	}
	if idType != IDTypeASIN && idType != IDTypeISBN {
		return &ValidationError{Operation: operation, Field: "id type", Reason: fmt.Sprintf("%q is not ASIN or ISBN", idType)}
	}
	return nil
}
