package order

import (
	"context"
	"testing"

	"github.com/MMTunning/MMTunning/internal/catalog"
	"github.com/MMTunning/MMTunning/internal/common/apperr"
)

// fakeCatalog 内存配件目录，测试购物车/下单用。
type fakeCatalog struct {
	parts map[string]*catalog.Part
}

func newFakeCatalog(parts ...*catalog.Part) *fakeCatalog {
	m := make(map[string]*catalog.Part, len(parts))
	for _, p := range parts {
		m[p.ID] = p
	}
	return &fakeCatalog{parts: m}
}

func (f *fakeCatalog) GetPart(_ context.Context, id string) (*catalog.Part, error) {
	p, ok := f.parts[id]
	if !ok {
		return nil, apperr.NotFound("part", id)
	}
	cp := *p
	return &cp, nil
}

func TestCartAddItemRejectsNonPositiveQty(t *testing.T) {
	cart := NewCart(newFakeCatalog(&catalog.Part{ID: "p1", SKU: "P-FIL-010", Price: 4500}))

	for _, qty := range []int64{0, -3} {
		if err := cart.AddItem(context.Background(), "p1", qty); !apperr.IsValidation(err) {
			t.Fatalf("qty=%d: expected ValidationError, got %v", qty, err)
		}
	}
	if got := cart.Summary(); len(got.Lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(got.Lines))
	}
}

func TestCartAddItemAccumulatesAndKeepsFirstSnapshot(t *testing.T) {
	ctx := context.Background()
	fc := newFakeCatalog(&catalog.Part{ID: "p1", SKU: "P-FIL-010", Name: "Oil filter", Price: 4500})
	cart := NewCart(fc)

	if err := cart.AddItem(ctx, "p1", 2); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	// 调价后再次加入：数量累加，单价仍是首次快照
	fc.parts["p1"].Price = 9900
	if err := cart.AddItem(ctx, "p1", 3); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	sum := cart.Summary()
	if len(sum.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(sum.Lines))
	}
	l := sum.Lines[0]
	if l.Qty != 5 {
		t.Fatalf("expected qty 5, got %d", l.Qty)
	}
	if l.UnitPrice != 4500 {
		t.Fatalf("expected snapshot price 4500, got %d", l.UnitPrice)
	}
	if sum.PartsTotal != 5*4500 {
		t.Fatalf("expected total %d, got %d", 5*4500, sum.PartsTotal)
	}
}

func TestCartPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	cart := NewCart(newFakeCatalog(
		&catalog.Part{ID: "p1", SKU: "A", Price: 100},
		&catalog.Part{ID: "p2", SKU: "B", Price: 200},
		&catalog.Part{ID: "p3", SKU: "C", Price: 300},
	))

	for _, id := range []string{"p2", "p1", "p3"} {
		if err := cart.AddItem(ctx, id, 1); err != nil {
			t.Fatalf("AddItem(%s): %v", id, err)
		}
	}

	sum := cart.Summary()
	want := []string{"p2", "p1", "p3"}
	for i, l := range sum.Lines {
		if l.PartID != want[i] {
			t.Fatalf("line %d: expected %s, got %s", i, want[i], l.PartID)
		}
	}
}

func TestCartRemoveItemIsNoOpWhenAbsent(t *testing.T) {
	ctx := context.Background()
	cart := NewCart(newFakeCatalog(
		&catalog.Part{ID: "p1", SKU: "A", Price: 100},
		&catalog.Part{ID: "p2", SKU: "B", Price: 200},
	))
	_ = cart.AddItem(ctx, "p1", 1)
	_ = cart.AddItem(ctx, "p2", 1)

	cart.RemoveItem("missing") // no-op
	cart.RemoveItem("p1")

	sum := cart.Summary()
	if len(sum.Lines) != 1 || sum.Lines[0].PartID != "p2" {
		t.Fatalf("unexpected lines after remove: %+v", sum.Lines)
	}

	// 删除后继续加入，顺序与下标保持一致
	if err := cart.AddItem(ctx, "p1", 2); err != nil {
		t.Fatalf("AddItem after remove: %v", err)
	}
	sum = cart.Summary()
	if len(sum.Lines) != 2 || sum.Lines[1].PartID != "p1" {
		t.Fatalf("unexpected lines: %+v", sum.Lines)
	}
}

func TestCartClear(t *testing.T) {
	ctx := context.Background()
	cart := NewCart(newFakeCatalog(&catalog.Part{ID: "p1", SKU: "A", Price: 100}))
	_ = cart.AddItem(ctx, "p1", 1)

	cart.Clear()
	if sum := cart.Summary(); len(sum.Lines) != 0 || sum.PartsTotal != 0 {
		t.Fatalf("expected empty summary after clear")
	}

	// Clear 后可复用
	if err := cart.AddItem(ctx, "p1", 1); err != nil {
		t.Fatalf("AddItem after clear: %v", err)
	}
}

func TestCartAddItemUnknownPart(t *testing.T) {
	cart := NewCart(newFakeCatalog())
	err := cart.AddItem(context.Background(), "ghost", 1)
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}
