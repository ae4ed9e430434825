package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/MMTunning/MMTunning/internal/common/apperr"
	"github.com/MMTunning/MMTunning/internal/order"
	"github.com/google/uuid"
)

// Generator 开票：在一个事务里完成 先查后扣 的库存对账并关单。
//
// 事务内顺序固定：
//  1. 读工单 + 明细；非 Open 或已有发票 → AlreadyInvoicedError
//  2. 先逐行检查全部明细的库存（任何一行不足立即失败，不做任何扣减）
//  3. 再逐行条件 UPDATE 扣库存（并发竞争下某行被抢先时同样整体回滚）
//  4. 总额 = 工时费 + Σ 数量*单价快照；工单流转到 Closed 并写回
//  5. 落发票
//
// 任一步失败整个事务回滚，库存、工单、发票都回到开票前的状态。
type Generator struct {
	uow UnitOfWork
	now func() time.Time
}

func NewGenerator(uow UnitOfWork) *Generator {
	return &Generator{uow: uow, now: time.Now}
}

// Generate 为工单 orderID 开票，返回新发票。paid 标记票已当场结清。
func (g *Generator) Generate(ctx context.Context, orderID string, paid bool) (*Invoice, error) {
	if g == nil || g.uow == nil {
		return nil, fmt.Errorf("generator not initialized")
	}

	var invoice *Invoice
	err := g.uow.InTx(ctx, func(ctx context.Context, s Stores) error {
		o, items, err := s.Orders.GetWithItems(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status != order.StatusOpen {
			return &apperr.AlreadyInvoicedError{OrderID: orderID}
		}
		exists, err := s.Invoices.ExistsForOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if exists {
			return &apperr.AlreadyInvoicedError{OrderID: orderID}
		}

		// 先全量检查：一行不足就整单失败，库存一分不动
		for _, it := range items {
			sku, available, err := s.Ledger.Available(ctx, it.PartID)
			if err != nil {
				return err
			}
			if available < it.Qty {
				return &apperr.InsufficientStockError{SKU: sku, Required: it.Qty, Available: available}
			}
		}

		// 再逐行扣减；Debit 自带条件 UPDATE，被并发抢先的行会报不足
		for _, it := range items {
			if err := s.Ledger.Debit(ctx, it.PartID, it.Qty); err != nil {
				return err
			}
		}

		total := o.LaborPrice
		for _, it := range items {
			total += it.Subtotal()
		}

		now := g.now()
		if err := order.ApplyTransition(o, order.StatusClosed, now); err != nil {
			return err
		}
		o.FinalTotal = total
		if err := s.Orders.Update(ctx, o); err != nil {
			return err
		}

		inv := &Invoice{
			ID:             uuid.NewString(),
			ServiceOrderID: o.ID,
			Total:          total,
			Paid:           paid,
			IssuedAt:       now,
		}
		if err := s.Invoices.Create(ctx, inv); err != nil {
			return err
		}
		invoice = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}
