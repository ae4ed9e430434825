package directory

import "time"

// Client 是 clients 表的 GORM 模型（原 users 表，登录名为自然键）。
type Client struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Username     string    `gorm:"uniqueIndex;size:64;not null"`
	PasswordHash string    `gorm:"size:128;not null"`
	PasswordSalt string    `gorm:"size:64;not null"`
	FullName     string    `gorm:"size:128"`
	Email        string    `gorm:"size:128"`
	Phone        string    `gorm:"size:32"`
	Role         string    `gorm:"size:16;not null"` // admin / client
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}
