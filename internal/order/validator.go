package order

import (
	"context"
	"fmt"

	"github.com/MMTunning/MMTunning/internal/common/apperr"
)

// Directory 只读客户/车辆目录（由 internal/directory 提供实现）。
type Directory interface {
	// ResolveClientID 按登录名解析客户 ID；不存在返回 NotFoundError{client}。
	ResolveClientID(ctx context.Context, username string) (string, error)
	// ResolveVehicleOwner 按车牌解析登记车主；未登记返回 NotFoundError{vehicle}。
	ResolveVehicleOwner(ctx context.Context, plate string) (string, error)
}

// OwnershipValidator 开单前校验（客户, 车牌）二元组的归属一致性。
type OwnershipValidator struct {
	dir Directory
}

func NewOwnershipValidator(dir Directory) *OwnershipValidator {
	return &OwnershipValidator{dir: dir}
}

// Validate 解析客户与车主并比对；一致时返回客户 ID 供开单使用。
func (v *OwnershipValidator) Validate(ctx context.Context, clientUsername, plate string) (string, error) {
	if v == nil || v.dir == nil {
		return "", fmt.Errorf("validator not initialized")
	}

	clientID, err := v.dir.ResolveClientID(ctx, clientUsername)
	if err != nil {
		return "", err
	}

	ownerID, err := v.dir.ResolveVehicleOwner(ctx, plate)
	if err != nil {
		return "", err
	}

	if ownerID != clientID {
		return "", &apperr.OwnershipMismatchError{
			Plate:    plate,
			ClientID: clientID,
			OwnerID:  ownerID,
		}
	}
	return clientID, nil
}
