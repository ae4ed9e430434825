package directory

import (
	"context"
	"errors"
	"fmt"

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

func (r *Repo) CreateClient(ctx context.Context, c *Client) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(c).Error
}

func (r *Repo) FindClientByUsername(ctx context.Context, username string) (*Client, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var c Client
	if err := db.Where("username = ?", username).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) FindClientByID(ctx context.Context, id string) (*Client, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var c Client
	if err := db.Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) CreateCar(ctx context.Context, v *Car) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(v).Error
}

func (r *Repo) CreateMotorcycle(ctx context.Context, v *Motorcycle) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(v).Error
}

// FindPlateOwner 按车牌查车主；汽车、摩托两张表都查（等价于原库的 UNION 查询）。
// 未登记时返回 gorm.ErrRecordNotFound。
func (r *Repo) FindPlateOwner(ctx context.Context, plate string) (string, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return "", fmt.Errorf("repo db is nil")
	}

	var car Car
	err := db.Select("client_id").Where("license_plate = ?", plate).First(&car).Error
	if err == nil {
		return car.ClientID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var moto Motorcycle
	err = db.Select("client_id").Where("license_plate = ?", plate).First(&moto).Error
	if err == nil {
		return moto.ClientID, nil
	}
	return "", err
}

// PlateExists 车牌是否已在任一车辆表中登记。
func (r *Repo) PlateExists(ctx context.Context, plate string) (bool, error) {
	_, err := r.FindPlateOwner(ctx, plate)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}
