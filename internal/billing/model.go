package billing

import "time"

// Invoice 发票 GORM 模型。
// ServiceOrderID 上的唯一索引是"一单一票"的数据库兜底：
// 即使两个并发事务同时通过了存在性检查，第二个也会在 INSERT 时撞约束。
type Invoice struct {
	ID             string `gorm:"primaryKey;size:36"`
	ServiceOrderID string `gorm:"uniqueIndex;size:36;not null"`

	Total int64 `gorm:"not null"` // 总额（分）= 工时费 + Σ 明细小计
	Paid  bool  `gorm:"not null;default:false"`

	IssuedAt  time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
