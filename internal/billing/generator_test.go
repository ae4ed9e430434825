package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MMTunning/MMTunning/internal/common/apperr"
	"github.com/MMTunning/MMTunning/internal/order"
)

// memState 一份可整体拷贝的世界状态，memUnitOfWork 用它模拟事务回滚。
type memState struct {
	orders   map[string]*order.ServiceOrder
	items    map[string][]order.OrderItem
	stock    map[string]*memPart // partID -> 库存
	invoices map[string]*Invoice // orderID -> 发票
}

type memPart struct {
	sku string
	qty int64
}

func newMemState() *memState {
	return &memState{
		orders:   make(map[string]*order.ServiceOrder),
		items:    make(map[string][]order.OrderItem),
		stock:    make(map[string]*memPart),
		invoices: make(map[string]*Invoice),
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for id, o := range s.orders {
		cp := *o
		c.orders[id] = &cp
	}
	for id, its := range s.items {
		c.items[id] = append([]order.OrderItem(nil), its...)
	}
	for id, p := range s.stock {
		cp := *p
		c.stock[id] = &cp
	}
	for id, inv := range s.invoices {
		cp := *inv
		c.invoices[id] = &cp
	}
	return c
}

// memUnitOfWork 拷贝提交：fn 在克隆上执行，成功才把克隆换成现状。
type memUnitOfWork struct {
	state *memState
}

func (u *memUnitOfWork) InTx(_ context.Context, fn func(ctx context.Context, s Stores) error) error {
	working := u.state.clone()
	stores := Stores{
		Orders:   &memOrderStore{state: working},
		Ledger:   &memLedger{state: working},
		Invoices: &memInvoiceStore{state: working},
	}
	if err := fn(context.Background(), stores); err != nil {
		return err
	}
	u.state = working
	return nil
}

type memOrderStore struct{ state *memState }

func (m *memOrderStore) GetWithItems(_ context.Context, id string) (*order.ServiceOrder, []order.OrderItem, error) {
	o, ok := m.state.orders[id]
	if !ok {
		return nil, nil, apperr.NotFound("order", id)
	}
	cp := *o
	return &cp, append([]order.OrderItem(nil), m.state.items[id]...), nil
}

func (m *memOrderStore) Update(_ context.Context, o *order.ServiceOrder) error {
	cp := *o
	m.state.orders[o.ID] = &cp
	return nil
}

type memLedger struct{ state *memState }

func (m *memLedger) Available(_ context.Context, partID string) (string, int64, error) {
	p, ok := m.state.stock[partID]
	if !ok {
		return "", 0, apperr.NotFound("part", partID)
	}
	return p.sku, p.qty, nil
}

func (m *memLedger) Debit(_ context.Context, partID string, qty int64) error {
	p, ok := m.state.stock[partID]
	if !ok {
		return apperr.NotFound("part", partID)
	}
	if p.qty < qty {
		return &apperr.InsufficientStockError{SKU: p.sku, Required: qty, Available: p.qty}
	}
	p.qty -= qty
	return nil
}

type memInvoiceStore struct{ state *memState }

func (m *memInvoiceStore) ExistsForOrder(_ context.Context, orderID string) (bool, error) {
	_, ok := m.state.invoices[orderID]
	return ok, nil
}

func (m *memInvoiceStore) Create(_ context.Context, inv *Invoice) error {
	if _, ok := m.state.invoices[inv.ServiceOrderID]; ok {
		return &apperr.AlreadyInvoicedError{OrderID: inv.ServiceOrderID}
	}
	cp := *inv
	m.state.invoices[inv.ServiceOrderID] = &cp
	return nil
}

// seedOrder 一张典型工单：工时费 150.00，明细两种配件。
func seedOrder(s *memState) string {
	const orderID = "o-1"
	s.orders[orderID] = &order.ServiceOrder{
		ID:           orderID,
		ClientID:     "c-1",
		VehiclePlate: "ABC-1234",
		Status:       order.StatusOpen,
		LaborPrice:   15000,
	}
	s.items[orderID] = []order.OrderItem{
		{ID: "i-1", OrderID: orderID, PartID: "p-turbo", Qty: 1, UnitPrice: 45000, Position: 0},
		{ID: "i-2", OrderID: orderID, PartID: "p-oil", Qty: 5, UnitPrice: 6500, Position: 1},
	}
	s.stock["p-turbo"] = &memPart{sku: "TRB-001", qty: 2}
	s.stock["p-oil"] = &memPart{sku: "OIL-5W30", qty: 10}
	return orderID
}

func TestGenerateDebitsStockClosesOrderAndConservesTotal(t *testing.T) {
	uow := &memUnitOfWork{state: newMemState()}
	orderID := seedOrder(uow.state)

	gen := NewGenerator(uow)
	issuedAt := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	gen.now = func() time.Time { return issuedAt }

	inv, err := gen.Generate(context.Background(), orderID, true)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// 总额守恒：15000 + 1*45000 + 5*6500 = 92500
	if inv.Total != 92500 {
		t.Fatalf("expected total 92500, got %d", inv.Total)
	}
	if !inv.Paid {
		t.Fatalf("expected paid invoice")
	}
	if !inv.IssuedAt.Equal(issuedAt) {
		t.Fatalf("expected issuedAt %v, got %v", issuedAt, inv.IssuedAt)
	}

	o := uow.state.orders[orderID]
	if o.Status != order.StatusClosed {
		t.Fatalf("expected closed order, got %s", o.Status)
	}
	if o.FinalTotal != 92500 {
		t.Fatalf("expected frozen final total 92500, got %d", o.FinalTotal)
	}
	if o.ClosedAt == nil || !o.ClosedAt.Equal(issuedAt) {
		t.Fatalf("expected closedAt %v, got %v", issuedAt, o.ClosedAt)
	}

	if got := uow.state.stock["p-turbo"].qty; got != 1 {
		t.Fatalf("expected turbo stock 1, got %d", got)
	}
	if got := uow.state.stock["p-oil"].qty; got != 5 {
		t.Fatalf("expected oil stock 5, got %d", got)
	}
}

func TestGenerateInsufficientStockRollsBackEverything(t *testing.T) {
	uow := &memUnitOfWork{state: newMemState()}
	orderID := seedOrder(uow.state)
	uow.state.stock["p-oil"].qty = 3 // 第二行需要 5

	gen := NewGenerator(uow)
	_, err := gen.Generate(context.Background(), orderID, false)

	var ins *apperr.InsufficientStockError
	if !errors.As(err, &ins) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if ins.SKU != "OIL-5W30" || ins.Required != 5 || ins.Available != 3 {
		t.Fatalf("unexpected error detail: %+v", ins)
	}

	// 第一行库存足够，但也不能被部分扣减
	if got := uow.state.stock["p-turbo"].qty; got != 2 {
		t.Fatalf("partial debit leaked: turbo stock = %d", got)
	}
	if got := uow.state.stock["p-oil"].qty; got != 3 {
		t.Fatalf("oil stock changed: %d", got)
	}
	o := uow.state.orders[orderID]
	if o.Status != order.StatusOpen || o.FinalTotal != 0 || o.ClosedAt != nil {
		t.Fatalf("order mutated on failed invoicing: %+v", o)
	}
	if len(uow.state.invoices) != 0 {
		t.Fatalf("invoice created on failed invoicing")
	}
}

func TestGenerateIsExactlyOnce(t *testing.T) {
	uow := &memUnitOfWork{state: newMemState()}
	orderID := seedOrder(uow.state)

	gen := NewGenerator(uow)
	if _, err := gen.Generate(context.Background(), orderID, false); err != nil {
		t.Fatalf("first Generate: %v", err)
	}

	_, err := gen.Generate(context.Background(), orderID, false)
	var already *apperr.AlreadyInvoicedError
	if !errors.As(err, &already) {
		t.Fatalf("expected AlreadyInvoicedError, got %v", err)
	}
	if already.OrderID != orderID {
		t.Fatalf("expected order %s in error, got %s", orderID, already.OrderID)
	}

	// 库存只被扣减一次
	if got := uow.state.stock["p-oil"].qty; got != 5 {
		t.Fatalf("stock debited twice: oil = %d", got)
	}
	if len(uow.state.invoices) != 1 {
		t.Fatalf("expected exactly one invoice, got %d", len(uow.state.invoices))
	}
}

func TestGenerateUsesSnapshotPricesNotCurrentOnes(t *testing.T) {
	uow := &memUnitOfWork{state: newMemState()}
	orderID := seedOrder(uow.state)

	// 明细里的单价快照已定死；把它改成与任何"现价"都不同的值，
	// 总额必须只看快照
	uow.state.items[orderID][0].UnitPrice = 40000

	gen := NewGenerator(uow)
	inv, err := gen.Generate(context.Background(), orderID, false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := int64(15000 + 1*40000 + 5*6500)
	if inv.Total != want {
		t.Fatalf("expected total %d, got %d", want, inv.Total)
	}
}

func TestGenerateUnknownOrder(t *testing.T) {
	gen := NewGenerator(&memUnitOfWork{state: newMemState()})
	_, err := gen.Generate(context.Background(), "ghost", false)
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestGenerateLaborOnlyOrder(t *testing.T) {
	uow := &memUnitOfWork{state: newMemState()}
	uow.state.orders["o-2"] = &order.ServiceOrder{
		ID:         "o-2",
		ClientID:   "c-1",
		Status:     order.StatusOpen,
		LaborPrice: 15000,
	}

	inv, err := NewGenerator(uow).Generate(context.Background(), "o-2", true)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if inv.Total != 15000 {
		t.Fatalf("expected total 15000, got %d", inv.Total)
	}
	if uow.state.orders["o-2"].Status != order.StatusClosed {
		t.Fatalf("expected closed order")
	}
}
