package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"booksearch/internal/database"
	"booksearch/internal/model"

	"go.uber.org/zap"
)

// ErrItemNotFound 目录中没有该 ASIN
var ErrItemNotFound = errors.New("item not found")

// catalogColumns book_items 中除主键外的列，顺序与 itemValues 一致
var catalogColumns = []string{
	"detail_url",
	"author",
	"binding",
	"dewey_decimal",
	"ean",
	"edition",
	"isbn",
	"manufacturer",
	"title",
	"product_group",
	"publisher",
	"formatted_price",
	"number_of_pages",
	"small_image_url",
	"medium_image_url",
	"large_image_url",
}

// ItemCatalog 图书目录的 SQL 存储，按 ASIN upsert
// 支持 mysql、postgres、sqlite 三种方言
type ItemCatalog struct {
	db      *sql.DB
	dialect string
	logger  *zap.Logger
}

// NewItemCatalog 创建图书目录
func NewItemCatalog(db *sql.DB, dialect string, logger *zap.Logger) (*ItemCatalog, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	switch dialect {
	case database.DialectMySQL, database.DialectPostgres, database.DialectSQLite:
	default:
		return nil, fmt.Errorf("unsupported catalog dialect: %q", dialect)
	}
	return &ItemCatalog{
		db:      db,
		dialect: dialect,
		logger:  logger,
	}, nil
}

// Dialect 返回 SQL 方言
func (c *ItemCatalog) Dialect() string {
	return c.dialect
}

// schemaSQL 建表语句
func schemaSQL(dialect string) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS " + model.TableBookItems + " (\n")

	switch dialect {
	case database.DialectMySQL:
		b.WriteString("\tasin VARCHAR(32) NOT NULL PRIMARY KEY,\n")
		for _, col := range catalogColumns {
			b.WriteString("\t" + col + " TEXT NULL,\n")
		}
		b.WriteString("\tupdated_at DATETIME NOT NULL\n")
		b.WriteString(") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4")
	case database.DialectPostgres:
		b.WriteString("\tasin VARCHAR(32) PRIMARY KEY,\n")
		for _, col := range catalogColumns {
			b.WriteString("\t" + col + " TEXT,\n")
		}
		b.WriteString("\tupdated_at TIMESTAMPTZ NOT NULL\n)")
	default:
		b.WriteString("\tasin TEXT PRIMARY KEY,\n")
		for _, col := range catalogColumns {
			b.WriteString("\t" + col + " TEXT,\n")
		}
		b.WriteString("\tupdated_at TEXT NOT NULL\n)")
	}
	return b.String()
}

// upsertSQL 按方言构造 upsert 语句
// 已有记录只被非 NULL 的新值覆盖
func upsertSQL(dialect string) string {
	columns := append([]string{"asin"}, catalogColumns...)
	columns = append(columns, "updated_at")

	placeholders := make([]string, len(columns))
	for i := range columns {
		if dialect == database.DialectPostgres {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		} else {
			placeholders[i] = "?"
		}
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		model.TableBookItems,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	updates := make([]string, 0, len(catalogColumns)+1)
	switch dialect {
	case database.DialectMySQL:
		for _, col := range catalogColumns {
			updates = append(updates, fmt.Sprintf("%s = COALESCE(VALUES(%s), %s)", col, col, col))
		}
		updates = append(updates, "updated_at = VALUES(updated_at)")
		return insert + " ON DUPLICATE KEY UPDATE " + strings.Join(updates, ", ")
	default:
		for _, col := range catalogColumns {
			updates = append(updates, fmt.Sprintf("%s = COALESCE(excluded.%s, %s.%s)", col, col, model.TableBookItems, col))
		}
		updates = append(updates, "updated_at = excluded.updated_at")
		return insert + " ON CONFLICT (asin) DO UPDATE SET " + strings.Join(updates, ", ")
	}
}

// selectSQL 按 ASIN 查询
func selectSQL(dialect string) string {
	placeholder := "?"
	if dialect == database.DialectPostgres {
		placeholder = "$1"
	}
	return fmt.Sprintf("SELECT asin, %s FROM %s WHERE asin = %s",
		strings.Join(catalogColumns, ", "), model.TableBookItems, placeholder)
}

// itemValues 按 catalogColumns 顺序展开字段
func itemValues(item model.ItemRecord) []*string {
	return []*string{
		item.DetailURL,
		item.Author,
		item.Binding,
		item.DeweyDecimal,
		item.EAN,
		item.Edition,
		item.ISBN,
		item.Manufacturer,
		item.Title,
		item.ProductGroup,
		item.Publisher,
		item.FormattedPrice,
		item.NumberOfPages,
		item.SmallImageURL,
		item.MediumImageURL,
		item.LargeImageURL,
	}
}

// timestampArg SQLite 中时间按 RFC 3339 文本保存
func (c *ItemCatalog) timestampArg(t time.Time) interface{} {
	if c.dialect == database.DialectSQLite {
		return t.UTC().Format(time.RFC3339)
	}
	return t.UTC()
}

// EnsureSchema 创建 book_items 表
func (c *ItemCatalog) EnsureSchema(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, schemaSQL(c.dialect)); err != nil {
		return fmt.Errorf("failed to create %s table: %w", model.TableBookItems, err)
	}
	if c.logger != nil {
		c.logger.Info("ensured item catalog schema", zap.String("dialect", c.dialect))
	}
	return nil
}

// UpsertItems 在一个事务中按 ASIN upsert，没有 ASIN 的记录跳过
// 返回写入的记录数
func (c *ItemCatalog) UpsertItems(ctx context.Context, items []model.ItemRecord) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSQL(c.dialect))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := c.timestampArg(time.Now())
	saved := 0
	for _, item := range items {
		asin := strings.TrimSpace(model.StringValue(item.ASIN))
		if asin == "" {
			continue
		}

		args := []interface{}{asin}
		for _, v := range itemValues(item) {
			args = append(args, nullString(v))
		}
		args = append(args, now)

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			if c.logger != nil {
				c.logger.Error("failed to upsert catalog item",
					zap.String("asin", asin),
					zap.Error(err),
				)
			}
			return 0, fmt.Errorf("failed to upsert item %s: %w", asin, err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit catalog upsert: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug("upserted catalog items",
			zap.String("dialect", c.dialect),
			zap.Int("count", saved),
		)
	}
	return saved, nil
}

// GetItem 按 ASIN 查询目录记录
func (c *ItemCatalog) GetItem(ctx context.Context, asin string) (*model.ItemRecord, error) {
	values := make([]sql.NullString, len(catalogColumns)+1)
	dest := make([]interface{}, len(values))
	for i := range values {
		dest[i] = &values[i]
	}

	err := c.db.QueryRowContext(ctx, selectSQL(c.dialect), asin).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query item %s: %w", asin, err)
	}

	item := &model.ItemRecord{ASIN: stringPtr(values[0])}
	ptrs := []**string{
		&item.DetailURL,
		&item.Author,
		&item.Binding,
		&item.DeweyDecimal,
		&item.EAN,
		&item.Edition,
		&item.ISBN,
		&item.Manufacturer,
		&item.Title,
		&item.ProductGroup,
		&item.Publisher,
		&item.FormattedPrice,
		&item.NumberOfPages,
		&item.SmallImageURL,
		&item.MediumImageURL,
		&item.LargeImageURL,
	}
	for i, p := range ptrs {
		*p = stringPtr(values[i+1])
	}
	return item, nil
}

// Count 返回目录中的记录数
func (c *ItemCatalog) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+model.TableBookItems).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return n, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
