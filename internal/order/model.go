package order

import "time"

// Status 工单状态枚举（持久化为字符串）。
type Status string

const (
	StatusOpen   Status = "open"   // 已开单，未开票
	StatusClosed Status = "closed" // 已开票关单（终态）
)

// ServiceOrder 工单 GORM 模型。
// FinalTotal 在 Open 期间恒为 0（未定义），关单时一次性计算并冻结。
type ServiceOrder struct {
	ID string `gorm:"primaryKey;size:36"`

	ClientID      string `gorm:"index;size:36;not null"`          // 客户
	VehiclePlate  string `gorm:"index;size:32;not null"`          // 车牌
	Description   string `gorm:"size:255"`                        // 问题描述
	Status        Status `gorm:"type:varchar(16);index;not null"` // 当前状态
	AttendantName string `gorm:"size:128"`                        // 开单员

	// 金额信息（单位：分）
	LaborPrice int64 `gorm:"not null;default:0"` // 工时费
	FinalTotal int64 `gorm:"not null;default:0"` // 关单总额（开票时写入）

	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	ClosedAt  *time.Time // 关单时间
}

// OrderItem 工单明细 GORM 模型：配件 + 数量 + 加入购物车时的单价快照。
// 配件后续调价不影响已提交的明细。
type OrderItem struct {
	ID        string `gorm:"primaryKey;size:36"`
	OrderID   string `gorm:"index;size:36;not null"`
	PartID    string `gorm:"index;size:36;not null"`
	Qty       int64  `gorm:"not null"`
	UnitPrice int64  `gorm:"not null"` // 单价快照（分）
	Position  int    `gorm:"not null;default:0"` // 购物车内的插入顺序
}

// Subtotal 明细小计。
func (it OrderItem) Subtotal() int64 {
	return it.Qty * it.UnitPrice
}
