package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/MMTunning/MMTunning/internal/catalog"
	"github.com/MMTunning/MMTunning/internal/common/apperr"
	"gorm.io/gorm"
)

// Ledger 是每个配件库存数的唯一权威计数器（落在 parts.qty 上）。
// Debit 只允许在开票事务内部调用：传入的 db 必须是事务句柄，
// 任一配件扣减失败会让整个事务回滚，购物车/下单流程从不触碰它。
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) withCtx(ctx context.Context) *gorm.DB {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.WithContext(ctx)
}

// Available 读取配件当前库存与库存码。
func (l *Ledger) Available(ctx context.Context, partID string) (sku string, qty int64, err error) {
	db := l.withCtx(ctx)
	if db == nil {
		return "", 0, fmt.Errorf("ledger db is nil")
	}
	var p catalog.Part
	if err := db.Select("sku", "qty").Where("id = ?", partID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", 0, apperr.NotFound("part", partID)
		}
		return "", 0, err
	}
	return p.SKU, p.Qty, nil
}

// CheckAvailability 库存是否足够扣减 qty。
func (l *Ledger) CheckAvailability(ctx context.Context, partID string, qty int64) (bool, error) {
	_, available, err := l.Available(ctx, partID)
	if err != nil {
		return false, err
	}
	return available >= qty, nil
}

// Debit 按条件 UPDATE 做单配件 compare-and-swap 扣减：
//
//	UPDATE parts SET qty = qty - ? WHERE id = ? AND qty >= ?
//
// 受影响行数为 0 即库存不足（或并发竞争被抢先），返回 InsufficientStockError；
// 调用方（开票事务）据此回滚全部已扣减配件。
func (l *Ledger) Debit(ctx context.Context, partID string, qty int64) error {
	db := l.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("ledger db is nil")
	}
	if qty <= 0 {
		return apperr.Validationf("debit quantity must be > 0, got %d", qty)
	}

	res := db.Model(&catalog.Part{}).
		Where("id = ? AND qty >= ?", partID, qty).
		UpdateColumn("qty", gorm.Expr("qty - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		sku, available, err := l.Available(ctx, partID)
		if err != nil {
			return err
		}
		return &apperr.InsufficientStockError{SKU: sku, Required: qty, Available: available}
	}
	return nil
}
