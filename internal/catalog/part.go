package catalog

import "time"

// Part 是 parts 表的 GORM 模型。
// Qty 是该配件的权威库存数，仅允许开票事务扣减（见 internal/inventory）。
// 金额一律用分（int64），避免浮点漂移。
type Part struct {
	ID          string    `gorm:"primaryKey;size:36"`
	Name        string    `gorm:"size:128;not null"`
	SKU         string    `gorm:"uniqueIndex;size:32;not null"`
	Qty         int64     `gorm:"not null;default:0"`
	Price       int64     `gorm:"not null;default:0"` // 单价（分）
	Description string    `gorm:"size:255"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}
