package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/MMTunning/MMTunning/internal/common/apperr"
	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) withCtx(ctx context.Context) *gorm.DB {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx)
}

// CreateWithItems 在一个事务里落工单头 + 全部明细。
func (r *Repo) CreateWithItems(ctx context.Context, o *ServiceOrder, items []OrderItem) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

// GetWithItems 加载工单头与全部明细（按插入顺序）。
func (r *Repo) GetWithItems(ctx context.Context, id string) (*ServiceOrder, []OrderItem, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, nil, fmt.Errorf("repo db is nil")
	}
	var o ServiceOrder
	if err := db.Where("id = ?", id).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("order", id)
		}
		return nil, nil, err
	}
	var items []OrderItem
	if err := db.Where("order_id = ?", id).Order("position ASC").Find(&items).Error; err != nil {
		return nil, nil, err
	}
	return &o, items, nil
}

// Update 保存工单头（关单写回状态/总额）。
func (r *Repo) Update(ctx context.Context, o *ServiceOrder) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Save(o).Error
}

// List 支持按 client_id / status 过滤 + 分页。
func (r *Repo) List(ctx context.Context, clientID string, status Status, offset, limit int) ([]ServiceOrder, int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, 0, fmt.Errorf("repo db is nil")
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := db.Model(&ServiceOrder{})
	if clientID != "" {
		q = q.Where("client_id = ?", clientID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []ServiceOrder
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
