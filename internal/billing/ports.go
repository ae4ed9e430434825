package billing

import (
	"context"

	"github.com/MMTunning/MMTunning/internal/order"
)

// UnitOfWork 把开票的全部读写圈进一个原子边界：
// fn 返回 error 时，边界内发生过的每一次写入（扣库存、关单、落发票）整体撤销。
// 生产实现走数据库事务（GormUnitOfWork），测试实现用拷贝提交。
type UnitOfWork interface {
	InTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}

// Stores 是事务内可见的存储集合，全部绑定在同一个事务句柄上。
type Stores struct {
	Orders   OrderStore
	Ledger   StockLedger
	Invoices InvoiceStore
}

// OrderStore 开票事务需要的工单读写子集（*order.Repo 满足）。
type OrderStore interface {
	GetWithItems(ctx context.Context, id string) (*order.ServiceOrder, []order.OrderItem, error)
	Update(ctx context.Context, o *order.ServiceOrder) error
}

// StockLedger 库存检查与扣减（*inventory.Ledger 满足）。
type StockLedger interface {
	Available(ctx context.Context, partID string) (sku string, qty int64, err error)
	Debit(ctx context.Context, partID string, qty int64) error
}

// InvoiceStore 发票读写（*Repo 满足）。
type InvoiceStore interface {
	ExistsForOrder(ctx context.Context, orderID string) (bool, error)
	Create(ctx context.Context, inv *Invoice) error
}
