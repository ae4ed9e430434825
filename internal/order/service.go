package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/MMTunning/MMTunning/internal/common/apperr"
	"github.com/google/uuid"
)

// Writer 工单持久化（*Repo 满足；测试用内存实现）。
type Writer interface {
	CreateWithItems(ctx context.Context, o *ServiceOrder, items []OrderItem) error
}

// Service 封装开单用例（不依赖 HTTP），便于复用和测试。
type Service struct {
	writer    Writer
	validator *OwnershipValidator
}

func NewService(writer Writer, validator *OwnershipValidator) *Service {
	return &Service{writer: writer, validator: validator}
}

// CreateOrderInput 开单入参。
type CreateOrderInput struct {
	ClientUsername string
	VehiclePlate   string
	Description    string
	LaborPrice     int64 // 工时费（分）
	AttendantName  string
	Cart           CartSummary // 购物车汇总；开单即提交，之后由调用方 Clear
}

// CreateOrder 把“购物车 + 工单头”固化为一张 Open 工单：
//  1. 经济内容校验：工时费为 0 且购物车为空 → ValidationError
//  2. 归属校验：委托 OwnershipValidator，错误原样上抛
//  3. 落库：状态 Open、FinalTotal 0、明细按快照单价逐行拷贝
//
// 这里刻意不检查也不扣库存——多张 Open 工单合计可以超过现有库存，
// 对账发生且只发生在开票事务（internal/billing）里。
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (string, error) {
	if s == nil || s.writer == nil || s.validator == nil {
		return "", fmt.Errorf("service not initialized")
	}
	if in.LaborPrice < 0 {
		return "", apperr.Validationf("labor price must be >= 0")
	}
	if in.LaborPrice == 0 && len(in.Cart.Lines) == 0 {
		return "", apperr.Validationf("order is empty: add parts or a labor charge")
	}

	clientID, err := s.validator.Validate(ctx, in.ClientUsername, in.VehiclePlate)
	if err != nil {
		return "", err
	}

	o := &ServiceOrder{
		ID:            uuid.NewString(),
		ClientID:      clientID,
		VehiclePlate:  strings.TrimSpace(in.VehiclePlate),
		Description:   strings.TrimSpace(in.Description),
		Status:        StatusOpen,
		AttendantName: strings.TrimSpace(in.AttendantName),
		LaborPrice:    in.LaborPrice,
		FinalTotal:    0, // 关单前未定义
	}

	items := make([]OrderItem, 0, len(in.Cart.Lines))
	for i, l := range in.Cart.Lines {
		if l.Qty <= 0 {
			return "", apperr.Validationf("line %d: quantity must be > 0", i)
		}
		items = append(items, OrderItem{
			ID:        uuid.NewString(),
			OrderID:   o.ID,
			PartID:    l.PartID,
			Qty:       l.Qty,
			UnitPrice: l.UnitPrice,
			Position:  i,
		})
	}

	if err := s.writer.CreateWithItems(ctx, o, items); err != nil {
		return "", err
	}
	return o.ID, nil
}
