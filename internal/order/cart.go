package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/MMTunning/MMTunning/internal/catalog"
	"github.com/MMTunning/MMTunning/internal/common/apperr"
)

// Catalog 购物车取价快照所需的只读配件目录。
// *catalog.Repo 与 *catalog.CachedRepo 均满足该接口。
type Catalog interface {
	GetPart(ctx context.Context, id string) (*catalog.Part, error)
}

// CartLine 购物车行：配件 + 数量 + 加入时的单价快照。
type CartLine struct {
	PartID    string
	SKU       string
	Name      string
	Qty       int64
	UnitPrice int64 // 单价快照（分），首次加入时锁定
}

// Subtotal 行小计。
func (l CartLine) Subtotal() int64 {
	return l.Qty * l.UnitPrice
}

// CartSummary 购物车汇总（行按插入顺序）。
type CartSummary struct {
	Lines      []CartLine
	PartsTotal int64 // 配件小计之和（不含工时费）
}

// Cart 单次开单会话的待定明细集合，属于调用方的显式值对象。
// 这里刻意不做库存校验：购物车可能存在任意久，库存以开票时为准。
// 下单前对账本没有任何影响，Clear 即可无痕放弃。
type Cart struct {
	catalog Catalog
	lines   []CartLine
	index   map[string]int // partID -> lines 下标
}

func NewCart(c Catalog) *Cart {
	return &Cart{
		catalog: c,
		index:   make(map[string]int),
	}
}

// AddItem 加入配件；数量必须为正。
// 同一配件重复加入时数量累加，单价保持首次加入时的快照。
func (c *Cart) AddItem(ctx context.Context, partID string, qty int64) error {
	if c == nil || c.catalog == nil {
		return fmt.Errorf("cart not initialized")
	}
	partID = strings.TrimSpace(partID)
	if partID == "" {
		return apperr.Validationf("part id required")
	}
	if qty <= 0 {
		return apperr.Validationf("quantity must be > 0, got %d", qty)
	}

	if i, ok := c.index[partID]; ok {
		c.lines[i].Qty += qty
		return nil
	}

	p, err := c.catalog.GetPart(ctx, partID)
	if err != nil {
		return err
	}

	c.index[partID] = len(c.lines)
	c.lines = append(c.lines, CartLine{
		PartID:    p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		Qty:       qty,
		UnitPrice: p.Price,
	})
	return nil
}

// RemoveItem 移除配件；不存在时为 no-op。
func (c *Cart) RemoveItem(partID string) {
	if c == nil {
		return
	}
	i, ok := c.index[partID]
	if !ok {
		return
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	delete(c.index, partID)
	// 压缩后修正下标
	for j := i; j < len(c.lines); j++ {
		c.index[c.lines[j].PartID] = j
	}
}

// Summary 返回按插入顺序的行副本与配件小计；无副作用。
func (c *Cart) Summary() CartSummary {
	if c == nil || len(c.lines) == 0 {
		return CartSummary{}
	}
	lines := make([]CartLine, len(c.lines))
	copy(lines, c.lines)

	var total int64
	for _, l := range lines {
		total += l.Subtotal()
	}
	return CartSummary{Lines: lines, PartsTotal: total}
}

// Clear 丢弃全部待定明细（放弃开单时使用，无持久化影响）。
func (c *Cart) Clear() {
	if c == nil {
		return
	}
	c.lines = nil
	c.index = make(map[string]int)
}
