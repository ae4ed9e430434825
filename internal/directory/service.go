package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MMTunning/MMTunning/internal/common/apperr"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service 封装客户与车辆的注册/解析用例。
// 对核心（订单/开票）而言它是只读的目录：ResolveClientID / ResolveVehicleOwner。
type Service struct {
	repo *Repo
}

func NewService(repo *Repo) *Service {
	return &Service{repo: repo}
}

// RegisterClientInput 注册客户入参。
type RegisterClientInput struct {
	Username string
	Password string
	FullName string
	Email    string
	Phone    string
	Role     string
}

func (s *Service) RegisterClient(ctx context.Context, in RegisterClientInput) (*Client, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, apperr.Validationf("username/password required")
	}

	if _, err := s.repo.FindClientByUsername(ctx, username); err == nil {
		return nil, &apperr.DuplicateError{Entity: "client", Key: username}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	salt, err := GenerateSaltHex()
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(in.Password, salt)
	if err != nil {
		return nil, err
	}

	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = "client"
	}

	c := &Client{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		PasswordSalt: salt,
		FullName:     strings.TrimSpace(in.FullName),
		Email:        strings.TrimSpace(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         role,
	}
	if err := s.repo.CreateClient(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Authenticate 校验用户名/密码；成功返回客户记录。
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Client, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperr.Validationf("username/password required")
	}

	c, err := s.repo.FindClientByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("client", username)
		}
		return nil, err
	}
	if !VerifyPassword(password, c.PasswordSalt, c.PasswordHash) {
		return nil, apperr.Validationf("invalid credentials")
	}
	return c, nil
}

// RegisterCarInput 登记汽车入参。
type RegisterCarInput struct {
	OwnerUsername string
	LicensePlate  string
	Brand         string
	Model         string
	Year          int
	Color         string
	Engine        string
}

func (s *Service) RegisterCar(ctx context.Context, in RegisterCarInput) (*Car, error) {
	ownerID, err := s.checkVehicleInput(ctx, in.OwnerUsername, in.LicensePlate)
	if err != nil {
		return nil, err
	}
	v := &Car{
		ID:           uuid.NewString(),
		ClientID:     ownerID,
		LicensePlate: strings.TrimSpace(in.LicensePlate),
		Brand:        strings.TrimSpace(in.Brand),
		Model:        strings.TrimSpace(in.Model),
		Year:         in.Year,
		Color:        strings.TrimSpace(in.Color),
		Engine:       strings.TrimSpace(in.Engine),
	}
	if err := s.repo.CreateCar(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// RegisterMotorcycleInput 登记摩托车入参。
type RegisterMotorcycleInput struct {
	OwnerUsername string
	LicensePlate  string
	Brand         string
	Model         string
	Year          int
	EngineCC      int
}

func (s *Service) RegisterMotorcycle(ctx context.Context, in RegisterMotorcycleInput) (*Motorcycle, error) {
	ownerID, err := s.checkVehicleInput(ctx, in.OwnerUsername, in.LicensePlate)
	if err != nil {
		return nil, err
	}
	v := &Motorcycle{
		ID:           uuid.NewString(),
		ClientID:     ownerID,
		LicensePlate: strings.TrimSpace(in.LicensePlate),
		Brand:        strings.TrimSpace(in.Brand),
		Model:        strings.TrimSpace(in.Model),
		Year:         in.Year,
		EngineCC:     in.EngineCC,
	}
	if err := s.repo.CreateMotorcycle(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// checkVehicleInput 车辆登记公共校验：车主存在 + 车牌全局唯一（跨两类车辆）。
func (s *Service) checkVehicleInput(ctx context.Context, ownerUsername, plate string) (string, error) {
	if s == nil || s.repo == nil {
		return "", fmt.Errorf("service not initialized")
	}
	plate = strings.TrimSpace(plate)
	if plate == "" {
		return "", apperr.Validationf("license plate required")
	}

	ownerID, err := s.ResolveClientID(ctx, ownerUsername)
	if err != nil {
		return "", err
	}

	exists, err := s.repo.PlateExists(ctx, plate)
	if err != nil {
		return "", err
	}
	if exists {
		return "", &apperr.DuplicateError{Entity: "vehicle", Key: plate}
	}
	return ownerID, nil
}

// ResolveClientID 按登录名解析客户 ID。
func (s *Service) ResolveClientID(ctx context.Context, username string) (string, error) {
	if s == nil || s.repo == nil {
		return "", fmt.Errorf("service not initialized")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return "", apperr.Validationf("username required")
	}
	c, err := s.repo.FindClientByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.NotFound("client", username)
		}
		return "", err
	}
	return c.ID, nil
}

// ResolveVehicleOwner 按车牌解析登记车主的客户 ID。
func (s *Service) ResolveVehicleOwner(ctx context.Context, plate string) (string, error) {
	if s == nil || s.repo == nil {
		return "", fmt.Errorf("service not initialized")
	}
	plate = strings.TrimSpace(plate)
	if plate == "" {
		return "", apperr.Validationf("license plate required")
	}
	ownerID, err := s.repo.FindPlateOwner(ctx, plate)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.NotFound("vehicle", plate)
		}
		return "", err
	}
	return ownerID, nil
}
