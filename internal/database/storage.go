package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Storage MongoDB 存储管理器
type Storage struct {
	db     *mongo.Database
	logger *zap.Logger
}

// NewStorage 创建新的存储管理器
func NewStorage(db *mongo.Database, logger *zap.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// GetCollection 获取集合
func (s *Storage) GetCollection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// InsertOne 插入一条文档，返回插入的 _id
func (s *Storage) InsertOne(ctx context.Context, collectionName string, doc interface{}) (interface{}, error) {
	result, err := s.db.Collection(collectionName).InsertOne(ctx, doc)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to insert document to MongoDB",
				zap.String("collection", collectionName),
				zap.Error(err),
			)
		}
		return nil, fmt.Errorf("failed to insert data: %w", err)
	}

	if s.logger != nil {
		s.logger.Debug("document saved to MongoDB",
			zap.String("collection", collectionName),
			zap.Any("inserted_id", result.InsertedID),
		)
	}
	return result.InsertedID, nil
}

// UpsertOne 按 filter 更新一条文档，不存在则插入
// update 需带 $set / $setOnInsert 等操作符
func (s *Storage) UpsertOne(ctx context.Context, collectionName string, filter bson.M, update bson.M) (*mongo.UpdateResult, error) {
	opts := options.Update().SetUpsert(true)
	result, err := s.db.Collection(collectionName).UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to upsert document to MongoDB",
				zap.String("collection", collectionName),
				zap.Error(err),
			)
		}
		return nil, fmt.Errorf("failed to upsert data: %w", err)
	}

	if s.logger != nil {
		s.logger.Debug("document upserted to MongoDB",
			zap.String("collection", collectionName),
			zap.Int64("matched_count", result.MatchedCount),
			zap.Int64("modified_count", result.ModifiedCount),
			zap.Any("upserted_id", result.UpsertedID),
		)
	}
	return result, nil
}

// FindDocuments 查询文档并解码到 results（指向切片的指针）
// limit 为 0 表示不限制
func (s *Storage) FindDocuments(ctx context.Context, collectionName string, filter bson.M, sort bson.D, limit int64, results interface{}) error {
	opts := options.Find()
	if len(sort) > 0 {
		opts.SetSort(sort)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := s.db.Collection(collectionName).Find(ctx, filter, opts)
	if err != nil {
		return fmt.Errorf("failed to find documents: %w", err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, results); err != nil {
		return fmt.Errorf("failed to decode documents: %w", err)
	}
	return nil
}

// DeleteMany 删除匹配 filter 的文档，返回删除数量
func (s *Storage) DeleteMany(ctx context.Context, collectionName string, filter bson.M) (int64, error) {
	result, err := s.db.Collection(collectionName).DeleteMany(ctx, filter)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to delete documents from MongoDB",
				zap.String("collection", collectionName),
				zap.Error(err),
			)
		}
		return 0, fmt.Errorf("failed to delete data: %w", err)
	}

	if s.logger != nil {
		s.logger.Debug("documents deleted from MongoDB",
			zap.String("collection", collectionName),
			zap.Int64("deleted_count", result.DeletedCount),
		)
	}
	return result.DeletedCount, nil
}
