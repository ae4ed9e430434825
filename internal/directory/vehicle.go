package directory

import "time"

// 车辆分两类建模（汽车/摩托），与库存、订单解耦；
// 车牌跨两张表全局唯一，由注册流程保证（见 Repo.plateExists）。

// Car 是 cars 表的 GORM 模型。
type Car struct {
	ID           string    `gorm:"primaryKey;size:36"`
	ClientID     string    `gorm:"index;size:36;not null"` // 车主
	LicensePlate string    `gorm:"uniqueIndex;size:32;not null"`
	Brand        string    `gorm:"size:64"`
	Model        string    `gorm:"size:64"`
	Year         int       `gorm:""`
	Color        string    `gorm:"size:32"`
	Engine       string    `gorm:"size:64"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Motorcycle 是 motorcycles 表的 GORM 模型。
type Motorcycle struct {
	ID           string    `gorm:"primaryKey;size:36"`
	ClientID     string    `gorm:"index;size:36;not null"`
	LicensePlate string    `gorm:"uniqueIndex;size:32;not null"`
	Brand        string    `gorm:"size:64"`
	Model        string    `gorm:"size:64"`
	Year         int       `gorm:""`
	EngineCC     int       `gorm:""`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}
