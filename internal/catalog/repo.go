package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MMTunning/MMTunning/internal/common/apperr"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) withCtx(ctx context.Context) *gorm.DB {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx)
}

// CreateInput 新增配件入参。
type CreateInput struct {
	Name        string
	SKU         string
	Qty         int64
	Price       int64
	Description string
}

func (r *Repo) Create(ctx context.Context, in CreateInput) (*Part, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	name := strings.TrimSpace(in.Name)
	sku := strings.TrimSpace(in.SKU)
	if name == "" || sku == "" {
		return nil, apperr.Validationf("name/sku required")
	}
	if in.Qty < 0 || in.Price < 0 {
		return nil, apperr.Validationf("qty/price must be >= 0")
	}

	if _, err := r.GetBySKU(ctx, sku); err == nil {
		return nil, &apperr.DuplicateError{Entity: "part", Key: sku}
	} else if !apperr.IsNotFound(err) {
		return nil, err
	}

	p := &Part{
		ID:          uuid.NewString(),
		Name:        name,
		SKU:         sku,
		Qty:         in.Qty,
		Price:       in.Price,
		Description: strings.TrimSpace(in.Description),
	}
	if err := db.Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetPart 按 ID 查询配件。
func (r *Repo) GetPart(ctx context.Context, id string) (*Part, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var p Part
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("part", id)
		}
		return nil, err
	}
	return &p, nil
}

// GetBySKU 按库存码查询配件。
func (r *Repo) GetBySKU(ctx context.Context, sku string) (*Part, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var p Part
	if err := db.Where("sku = ?", sku).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("part", sku)
		}
		return nil, err
	}
	return &p, nil
}

// List 配件目录（按名称排序 + 分页）。
func (r *Repo) List(ctx context.Context, offset, limit int) ([]Part, int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, 0, fmt.Errorf("repo db is nil")
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := db.Model(&Part{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var parts []Part
	if err := db.Order("name ASC").Offset(offset).Limit(limit).Find(&parts).Error; err != nil {
		return nil, 0, err
	}
	return parts, total, nil
}

// LowStock 库存最少的 n 个配件（仪表盘用）。
func (r *Repo) LowStock(ctx context.Context, n int) ([]Part, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	if n <= 0 {
		n = 5
	}
	var parts []Part
	if err := db.Order("qty ASC").Limit(n).Find(&parts).Error; err != nil {
		return nil, err
	}
	return parts, nil
}
