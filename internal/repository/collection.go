package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"folio/internal/database"
)

var (
	// ErrNotFound 表示目标文档不存在。
	ErrNotFound = errors.New("document not found")
	// ErrUserExists 表示用户名已被占用。
	ErrUserExists = errors.New("user already exists")
)

// Scope narrows a list query.
type Scope = func(*gorm.DB) *gorm.DB

// Document is satisfied by pointers to models embedding database.Base.
type Document[T any] interface {
	*T
	Meta() *database.Base
}

// Collection 对单一内容类型提供通用的持久化操作。
// 列表排序在构造时固定，每种内容类型只有一个排序规则。
type Collection[T any, P Document[T]] struct {
	db    *gorm.DB
	order string
	carry func(prev, next P)
}

// Option customises a Collection.
type Option[T any, P Document[T]] func(*Collection[T, P])

// WithCarryOver copies server-managed fields from the stored document into a replacement.
func WithCarryOver[T any, P Document[T]](fn func(prev, next P)) Option[T, P] {
	return func(c *Collection[T, P]) { c.carry = fn }
}

// NewCollection builds a collection sorted by order (a SQL ORDER BY clause).
func NewCollection[T any, P Document[T]](db *gorm.DB, order string, opts ...Option[T, P]) *Collection[T, P] {
	c := &Collection[T, P]{db: db, order: order}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List 返回按固定顺序排列的全部文档，没有分页。
func (c *Collection[T, P]) List(ctx context.Context, scopes ...Scope) ([]T, error) {
	items := make([]T, 0)
	if err := c.db.WithContext(ctx).Scopes(scopes...).Order(c.order).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return items, nil
}

// Get 按 ID 读取单个文档。
func (c *Collection[T, P]) Get(ctx context.Context, id string) (P, error) {
	item := P(new(T))
	if err := c.db.WithContext(ctx).Where("id = ?", id).First(item).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return item, nil
}

// Create 持久化新文档，ID 与时间戳由存储层生成。
func (c *Collection[T, P]) Create(ctx context.Context, item P) error {
	meta := item.Meta()
	meta.ID = ""
	if err := c.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// Replace 整体替换文档：输入中缺省的字段会被清空，只保留 ID 与 createdAt。
// 完成后 item 会被重新加载为存储中的最新内容。
func (c *Collection[T, P]) Replace(ctx context.Context, id string, item P) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prev := P(new(T))
		if err := tx.Where("id = ?", id).First(prev).Error; err != nil {
			return mapNotFound(err)
		}

		meta := item.Meta()
		meta.ID = id
		meta.CreatedAt = prev.Meta().CreatedAt
		if c.carry != nil {
			c.carry(prev, item)
		}

		if err := tx.Save(item).Error; err != nil {
			return fmt.Errorf("replace document: %w", err)
		}
		if err := tx.Where("id = ?", id).First(item).Error; err != nil {
			return fmt.Errorf("reload document: %w", err)
		}
		return nil
	})
}

// Delete 硬删除文档，不做级联清理。
func (c *Collection[T, P]) Delete(ctx context.Context, id string) error {
	res := c.db.WithContext(ctx).Where("id = ?", id).Delete(P(new(T)))
	if res.Error != nil {
		return fmt.Errorf("delete document: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("query document: %w", err)
}
