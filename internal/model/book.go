package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 集合与表名
const (
	CollectionSearchArchive = "search_archive"
	CollectionBookItems     = "book_items"
	TableBookItems          = "book_items"
)

// SearchResult 一次 ECS 调用的解析结果
// IsValid 为 false 时 Items 不可信，应先检查 ErrorMessage
type SearchResult struct {
	IsValid      bool         `json:"is_valid" bson:"is_valid"`
	ErrorMessage *string      `json:"error_message,omitempty" bson:"error_message,omitempty"`
	TotalResults int          `json:"total_results" bson:"total_results"`
	TotalPages   int          `json:"total_pages" bson:"total_pages"`
	Items        []ItemRecord `json:"items" bson:"items"`
}

// ItemRecord 单个商品（图书）记录，所有字段均可缺失
// nil 表示文档中没有该字段，与空字符串区分
type ItemRecord struct {
	ASIN           *string `json:"asin,omitempty" bson:"asin,omitempty"`
	DetailURL      *string `json:"detail_url,omitempty" bson:"detail_url,omitempty"`
	Author         *string `json:"author,omitempty" bson:"author,omitempty"`
	Binding        *string `json:"binding,omitempty" bson:"binding,omitempty"`
	DeweyDecimal   *string `json:"dewey_decimal,omitempty" bson:"dewey_decimal,omitempty"`
	EAN            *string `json:"ean,omitempty" bson:"ean,omitempty"`
	Edition        *string `json:"edition,omitempty" bson:"edition,omitempty"`
	ISBN           *string `json:"isbn,omitempty" bson:"isbn,omitempty"`
	Manufacturer   *string `json:"manufacturer,omitempty" bson:"manufacturer,omitempty"`
	Title          *string `json:"title,omitempty" bson:"title,omitempty"`
	ProductGroup   *string `json:"product_group,omitempty" bson:"product_group,omitempty"`
	Publisher      *string `json:"publisher,omitempty" bson:"publisher,omitempty"`
	FormattedPrice *string `json:"formatted_price,omitempty" bson:"formatted_price,omitempty"`
	NumberOfPages  *string `json:"number_of_pages,omitempty" bson:"number_of_pages,omitempty"`
	SmallImageURL  *string `json:"small_image_url,omitempty" bson:"small_image_url,omitempty"`
	MediumImageURL *string `json:"medium_image_url,omitempty" bson:"medium_image_url,omitempty"`
	LargeImageURL  *string `json:"large_image_url,omitempty" bson:"large_image_url,omitempty"`
}

// SearchArchive search_archive 集合中的存档文档
type SearchArchive struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RequestID      string             `json:"request_id" bson:"request_id"`
	Source         string             `json:"source" bson:"source"` // 触发来源，例如 watch 任务名或 http
	Operation      string             `json:"operation" bson:"operation"`
	CanonicalQuery string             `json:"canonical_query" bson:"canonical_query"`
	Timestamp      string             `json:"timestamp" bson:"timestamp"` // 签名时使用的时间戳
	Result         SearchResult       `json:"result" bson:"result"`
	RawXML         string             `json:"-" bson:"raw_xml,omitempty"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
}

// StringValue 返回指针指向的值，nil 时返回空字符串
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
