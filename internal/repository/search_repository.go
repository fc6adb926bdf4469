package repository

import (
	"context"
	"fmt"
	"time"

	"booksearch/internal/api/ecs"
	"booksearch/internal/database"
	"booksearch/internal/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// SearchRepository 查询结果的 MongoDB 存储层
// 使用 database.Storage 作为底层存储实现
type SearchRepository struct {
	storage *database.Storage
	logger  *zap.Logger
}

// NewSearchRepository 创建新的 SearchRepository 实例
func NewSearchRepository(storage *database.Storage, logger *zap.Logger) *SearchRepository {
	return &SearchRepository{
		storage: storage,
		logger:  logger,
	}
}

// NewArchive 由一次查询的产出构造存档文档
// 签名和完整 URL 不入库
func NewArchive(source string, resp *ecs.Response, now time.Time) *model.SearchArchive {
	archive := &model.SearchArchive{
		RequestID: uuid.NewString(),
		Source:    source,
		Operation: resp.Operation,
		RawXML:    string(resp.Raw),
		CreatedAt: now,
	}
	if resp.Request != nil {
		archive.CanonicalQuery = resp.Request.CanonicalQuery
		archive.Timestamp = resp.Request.Timestamp
	}
	if resp.Result != nil {
		archive.Result = *resp.Result
	}
	return archive
}

// SaveSearch 保存一次查询到 search_archive
func (r *SearchRepository) SaveSearch(ctx context.Context, source string, resp *ecs.Response) (*model.SearchArchive, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}

	archive := NewArchive(source, resp, time.Now())

	_, err := r.storage.InsertOne(ctx, model.CollectionSearchArchive, archive)
	if err != nil {
		if r.logger != nil {
			r.logger.Error("failed to save search archive",
				zap.String("request_id", archive.RequestID),
				zap.String("operation", archive.Operation),
				zap.Error(err),
			)
		}
		return nil, fmt.Errorf("failed to save search archive: %w", err)
	}

	if r.logger != nil {
		r.logger.Debug("saved search archive",
			zap.String("request_id", archive.RequestID),
			zap.String("source", source),
			zap.Int("item_count", len(archive.Result.Items)),
		)
	}

	return archive, nil
}

// itemUpdate 构造单个商品的 upsert 更新，nil 字段不覆盖已有值
func itemUpdate(item model.ItemRecord, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	fields := map[string]*string{
		"detail_url":       item.DetailURL,
		"author":           item.Author,
		"binding":          item.Binding,
		"dewey_decimal":    item.DeweyDecimal,
		"ean":              item.EAN,
		"edition":          item.Edition,
		"isbn":             item.ISBN,
		"manufacturer":     item.Manufacturer,
		"title":            item.Title,
		"product_group":    item.ProductGroup,
		"publisher":        item.Publisher,
		"formatted_price":  item.FormattedPrice,
		"number_of_pages":  item.NumberOfPages,
		"small_image_url":  item.SmallImageURL,
		"medium_image_url": item.MediumImageURL,
		"large_image_url":  item.LargeImageURL,
	}
	for k, v := range fields {
		if v != nil {
			set[k] = *v
		}
	}

	return bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"created_at": now,
		},
	}
}

// SaveItems 按 ASIN upsert 商品到 book_items，没有 ASIN 的记录跳过
// 返回写入的记录数
func (r *SearchRepository) SaveItems(ctx context.Context, items []model.ItemRecord) (int, error) {
	now := time.Now()
	saved := 0

	for _, item := range items {
		asin := model.StringValue(item.ASIN)
		if asin == "" {
			continue
		}

		_, err := r.storage.UpsertOne(ctx, model.CollectionBookItems, bson.M{"asin": asin}, itemUpdate(item, now))
		if err != nil {
			if r.logger != nil {
				r.logger.Error("failed to save item",
					zap.String("asin", asin),
					zap.Error(err),
				)
			}
			return saved, fmt.Errorf("failed to save item %s: %w", asin, err)
		}
		saved++
	}

	if r.logger != nil && saved > 0 {
		r.logger.Debug("saved items", zap.Int("count", saved))
	}

	return saved, nil
}

// RecentSearches 按创建时间倒序查询存档，operation 为空时不过滤
func (r *SearchRepository) RecentSearches(ctx context.Context, operation string, limit int64) ([]model.SearchArchive, error) {
	filter := bson.M{}
	if operation != "" {
		filter["operation"] = operation
	}

	var archives []model.SearchArchive
	err := r.storage.FindDocuments(ctx, model.CollectionSearchArchive, filter,
		bson.D{{Key: "created_at", Value: -1}}, limit, &archives)
	if err != nil {
		return nil, fmt.Errorf("failed to query search archive: %w", err)
	}
	if archives == nil {
		archives = []model.SearchArchive{}
	}
	return archives, nil
}

// PruneArchive 删除 before 之前创建的存档，返回删除数量
func (r *SearchRepository) PruneArchive(ctx context.Context, before time.Time) (int64, error) {
	deleted, err := r.storage.DeleteMany(ctx, model.CollectionSearchArchive,
		bson.M{"created_at": bson.M{"$lt": before}})
	if err != nil {
		return 0, fmt.Errorf("failed to prune search archive: %w", err)
	}

	if r.logger != nil {
		r.logger.Info("pruned search archive",
			zap.Time("before", before),
			zap.Int64("deleted", deleted),
		)
	}
	return deleted, nil
}

// EnsureIndexes 创建必要的索引
func (r *SearchRepository) EnsureIndexes(ctx context.Context) error {
	archiveIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "request_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "operation", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}
	if _, err := r.storage.GetCollection(model.CollectionSearchArchive).Indexes().CreateMany(ctx, archiveIndexes); err != nil {
		return fmt.Errorf("failed to create search archive indexes: %w", err)
	}

	itemIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "asin", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "isbn", Value: 1}},
		},
	}
	if _, err := r.storage.GetCollection(model.CollectionBookItems).Indexes().CreateMany(ctx, itemIndexes); err != nil {
		return fmt.Errorf("failed to create book item indexes: %w", err)
	}

	if r.logger != nil {
		r.logger.Info("ensured search repository indexes")
	}

	return nil
}
