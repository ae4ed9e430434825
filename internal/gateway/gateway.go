package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MMTunning/MMTunning/internal/billing"
	"github.com/MMTunning/MMTunning/internal/catalog"
	"github.com/MMTunning/MMTunning/internal/common/apperr"
	"github.com/MMTunning/MMTunning/internal/common/auth"
	"github.com/MMTunning/MMTunning/internal/common/config"
	"github.com/MMTunning/MMTunning/internal/common/logger"
	"github.com/MMTunning/MMTunning/internal/common/middleware"
	"github.com/MMTunning/MMTunning/internal/directory"
	"github.com/MMTunning/MMTunning/internal/events"
	"github.com/MMTunning/MMTunning/internal/order"
	"github.com/MMTunning/MMTunning/internal/report"
)

// Gateway 车间业务的 HTTP JSON 入口。
type Gateway struct {
	cfg       *config.Config
	log       logger.Logger
	directory *directory.Service
	parts     *catalog.Repo
	reader    order.Catalog // 配件读路径（有 Redis 时为 CachedRepo）
	cache     *catalog.CachedRepo
	orders    *order.Service
	orderRepo *order.Repo
	generator *billing.Generator
	invoices  *billing.Repo
	reporter  *report.Reporter
	publisher *events.Publisher
	limiter   middleware.RateLimiter
}

// Deps 构造入参。Cache 可为 nil（未配置 Redis）。
type Deps struct {
	Cfg       *config.Config
	Log       logger.Logger
	Directory *directory.Service
	Parts     *catalog.Repo
	Cache     *catalog.CachedRepo
	Orders    *order.Service
	OrderRepo *order.Repo
	Generator *billing.Generator
	Invoices  *billing.Repo
	Reporter  *report.Reporter
	Publisher *events.Publisher
}

func New(d Deps) *Gateway {
	var reader order.Catalog = d.Parts
	if d.Cache != nil {
		reader = d.Cache
	}
	return &Gateway{
		cfg:       d.Cfg,
		log:       d.Log,
		directory: d.Directory,
		parts:     d.Parts,
		reader:    reader,
		cache:     d.Cache,
		orders:    d.Orders,
		orderRepo: d.OrderRepo,
		generator: d.Generator,
		invoices:  d.Invoices,
		reporter:  d.Reporter,
		publisher: d.Publisher,
		limiter:   middleware.NewTokenBucket(200, 100),
	}
}

// Handler 组装路由与中间件链：recover -> 访问日志 -> 限流 -> 鉴权 -> 路由。
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/auth/register", g.handleRegister)
	mux.HandleFunc("/api/auth/login", g.handleLogin)
	mux.HandleFunc("/api/vehicles/cars", g.handleRegisterCar)
	mux.HandleFunc("/api/vehicles/motorcycles", g.handleRegisterMotorcycle)
	mux.HandleFunc("/api/parts", g.handleParts)
	mux.HandleFunc("/api/parts/low-stock", g.handleLowStock)
	mux.HandleFunc("/api/parts/", g.handlePartByID)
	mux.HandleFunc("/api/orders", g.handleOrders)
	mux.HandleFunc("/api/orders/", g.handleOrderSub)
	mux.HandleFunc("/api/invoices", g.handleListInvoices)
	mux.HandleFunc("/api/reports/summary", requireRole(g.cfg.Auth, []string{"admin"}, g.handleReportSummary))

	public := append([]string{"/api/auth/register", "/api/auth/login"}, g.cfg.Auth.PublicMethods...)

	var h http.Handler = mux
	h = authMiddleware(g.cfg.Auth, public, h)
	h = rateLimitMiddleware(g.limiter, h)
	h = accessLogMiddleware(g.log, h)
	h = recoverMiddleware(g.log, h)
	return h
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validationf("invalid json body")
	}
	return nil
}

// decodeOptional body 可缺省的解码：空 body 保持 dst 零值。
// 不看 ContentLength——chunked 请求的长度是 -1。
func decodeOptional(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return apperr.Validationf("invalid json body")
}

// ---- 客户与车辆 ----

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

func (g *Gateway) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	var req registerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	c, err := g.directory.RegisterClient(r.Context(), directory.RegisterClientInput{
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":       c.ID,
		"username": c.Username,
		"role":     c.Role,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (g *Gateway) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	c, err := g.directory.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		// 不区分"用户不存在"和"密码错误"
		if apperr.IsNotFound(err) || apperr.IsValidation(err) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid credentials"})
			return
		}
		writeError(w, err)
		return
	}
	token, expiresAt, err := auth.GenerateAccessToken(g.cfg.Auth, c.ID, []string{c.Role}, 24*time.Hour)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"expires_at":   expiresAt.Unix(),
		"username":     c.Username,
		"role":         c.Role,
	})
}

type registerCarRequest struct {
	OwnerUsername string `json:"owner_username"`
	LicensePlate  string `json:"license_plate"`
	Brand         string `json:"brand"`
	Model         string `json:"model"`
	Year          int    `json:"year"`
	Color         string `json:"color"`
	Engine        string `json:"engine"`
}

func (g *Gateway) handleRegisterCar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	var req registerCarRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	v, err := g.directory.RegisterCar(r.Context(), directory.RegisterCarInput{
		OwnerUsername: req.OwnerUsername,
		LicensePlate:  req.LicensePlate,
		Brand:         req.Brand,
		Model:         req.Model,
		Year:          req.Year,
		Color:         req.Color,
		Engine:        req.Engine,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

type registerMotorcycleRequest struct {
	OwnerUsername string `json:"owner_username"`
	LicensePlate  string `json:"license_plate"`
	Brand         string `json:"brand"`
	Model         string `json:"model"`
	Year          int    `json:"year"`
	EngineCC      int    `json:"engine_cc"`
}

func (g *Gateway) handleRegisterMotorcycle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	var req registerMotorcycleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	v, err := g.directory.RegisterMotorcycle(r.Context(), directory.RegisterMotorcycleInput{
		OwnerUsername: req.OwnerUsername,
		LicensePlate:  req.LicensePlate,
		Brand:         req.Brand,
		Model:         req.Model,
		Year:          req.Year,
		EngineCC:      req.EngineCC,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// ---- 配件目录 ----

type createPartRequest struct {
	Name        string `json:"name"`
	SKU         string `json:"sku"`
	Qty         int64  `json:"qty"`
	Price       int64  `json:"price"`
	Description string `json:"description"`
}

func (g *Gateway) handleParts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req createPartRequest
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		p, err := g.parts.Create(r.Context(), catalog.CreateInput{
			Name:        req.Name,
			SKU:         req.SKU,
			Qty:         req.Qty,
			Price:       req.Price,
			Description: req.Description,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	case http.MethodGet:
		offset, limit := pagination(r)
		parts, total, err := g.parts.List(r.Context(), offset, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"parts": parts, "total": total})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
	}
}

func (g *Gateway) handleLowStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	threshold := queryInt(r, "threshold", 5)
	parts, err := g.parts.LowStock(r.Context(), threshold)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"parts": parts, "threshold": threshold})
}

func (g *Gateway) handlePartByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/parts/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
		return
	}
	p, err := g.reader.GetPart(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ---- 工单 ----

type orderLineRequest struct {
	PartID string `json:"part_id"`
	Qty    int64  `json:"qty"`
}

type createOrderRequest struct {
	ClientUsername string             `json:"client_username"`
	VehiclePlate   string             `json:"vehicle_plate"`
	Description    string             `json:"description"`
	LaborPrice     int64              `json:"labor_price"`
	AttendantName  string             `json:"attendant_name"`
	Items          []orderLineRequest `json:"items"`
}

func (g *Gateway) handleOrders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		g.handleCreateOrder(w, r)
	case http.MethodGet:
		g.handleListOrders(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
	}
}

func (g *Gateway) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	cart := order.NewCart(g.reader)
	for _, line := range req.Items {
		if err := cart.AddItem(r.Context(), line.PartID, line.Qty); err != nil {
			writeError(w, err)
			return
		}
	}
	sum := cart.Summary()

	orderID, err := g.orders.CreateOrder(r.Context(), order.CreateOrderInput{
		ClientUsername: req.ClientUsername,
		VehiclePlate:   req.VehiclePlate,
		Description:    req.Description,
		LaborPrice:     req.LaborPrice,
		AttendantName:  req.AttendantName,
		Cart:           sum,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	cart.Clear()

	if g.publisher != nil {
		g.publisher.OrderCreated(r.Context(), events.OrderCreated{
			OrderID:      orderID,
			VehiclePlate: req.VehiclePlate,
			ItemCount:    len(sum.Lines),
			LaborPrice:   req.LaborPrice,
		})
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"order_id":    orderID,
		"status":      order.StatusOpen,
		"parts_total": sum.PartsTotal,
	})
}

func (g *Gateway) handleListOrders(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)
	clientID := r.URL.Query().Get("client_id")
	status := order.Status(r.URL.Query().Get("status"))
	orders, total, err := g.orderRepo.List(r.Context(), clientID, status, offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders, "total": total})
}

// handleOrderSub 处理 /api/orders/{id} 与 /api/orders/{id}/invoice。
func (g *Gateway) handleOrderSub(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/orders/")
	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		g.handleGetOrder(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "invoice":
		g.handleGenerateInvoice(w, r, parts[0])
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
	}
}

func (g *Gateway) handleGetOrder(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	o, items, err := g.orderRepo.GetWithItems(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": o, "items": items})
}

type generateInvoiceRequest struct {
	Paid bool `json:"paid"`
}

func (g *Gateway) handleGenerateInvoice(w http.ResponseWriter, r *http.Request, orderID string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	var req generateInvoiceRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, err)
		return
	}

	inv, err := g.generator.Generate(r.Context(), orderID, req.Paid)
	if err != nil {
		writeError(w, err)
		return
	}

	// 开票会扣库存，配件缓存随之作废
	if g.cache != nil {
		if _, items, gerr := g.orderRepo.GetWithItems(r.Context(), orderID); gerr == nil {
			ids := make([]string, 0, len(items))
			for _, it := range items {
				ids = append(ids, it.PartID)
			}
			g.cache.Invalidate(r.Context(), ids...)
		}
	}
	if g.publisher != nil {
		g.publisher.InvoiceGenerated(r.Context(), events.InvoiceGenerated{
			InvoiceID: inv.ID,
			OrderID:   inv.ServiceOrderID,
			Total:     inv.Total,
			Paid:      inv.Paid,
		})
	}
	writeJSON(w, http.StatusCreated, inv)
}

// ---- 发票与报表 ----

func (g *Gateway) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	offset, limit := pagination(r)
	invoices, total, err := g.invoices.List(r.Context(), offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoices": invoices, "total": total})
}

func (g *Gateway) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	threshold := int64(queryInt(r, "threshold", 5))
	s, err := g.reporter.BuildSummary(r.Context(), threshold)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func pagination(r *http.Request) (offset, limit int) {
	offset = queryInt(r, "offset", 0)
	limit = queryInt(r, "limit", 20)
	return offset, limit
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
