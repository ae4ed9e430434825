package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/MMTunning/MMTunning/internal/common/apperr"
	"github.com/MMTunning/MMTunning/internal/inventory"
	"github.com/MMTunning/MMTunning/internal/order"
	"gorm.io/gorm"
)

// Repo 发票 GORM 存储。
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

func (r *Repo) ExistsForOrder(ctx context.Context, orderID string) (bool, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return false, fmt.Errorf("repo db is nil")
	}
	var count int64
	if err := db.Model(&Invoice{}).Where("service_order_id = ?", orderID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repo) Create(ctx context.Context, inv *Invoice) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return mapCreateError(db.Create(inv).Error, inv.ServiceOrderID)
}

// mapCreateError 把 service_order_id 唯一索引冲突翻译成 AlreadyInvoicedError：
// 两个并发事务同时通过存在性检查时，败者在 INSERT 处撞约束回滚，
// 调用方拿到的必须是业务错误而不是驱动错误。
// 依赖 gorm.Config 开启 TranslateError（见 internal/common/db）。
func mapCreateError(err error, orderID string) error {
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return &apperr.AlreadyInvoicedError{OrderID: orderID}
	}
	return err
}

// GetByOrder 按工单号查发票。
func (r *Repo) GetByOrder(ctx context.Context, orderID string) (*Invoice, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var inv Invoice
	if err := db.Where("service_order_id = ?", orderID).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("invoice", orderID)
		}
		return nil, err
	}
	return &inv, nil
}

// List 发票分页列表，time DESC。
func (r *Repo) List(ctx context.Context, offset, limit int) ([]Invoice, int64, error) {
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

	var total int64
	if err := db.Model(&Invoice{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var invoices []Invoice
	if err := db.Order("issued_at DESC").Offset(offset).Limit(limit).Find(&invoices).Error; err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

// GormUnitOfWork 用数据库事务实现 UnitOfWork：
// 一次 InTx 内的工单、库存、发票操作共享同一个事务句柄。
type GormUnitOfWork struct {
	db *gorm.DB
}

func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

func (u *GormUnitOfWork) InTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	if u == nil || u.db == nil {
		return fmt.Errorf("unit of work db is nil")
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s := Stores{
			Orders:   order.NewRepo(tx),
			Ledger:   inventory.NewLedger(tx),
			Invoices: NewRepo(tx),
		}
		return fn(ctx, s)
	})
}
