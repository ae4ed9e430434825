package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MMTunning/MMTunning/internal/common/apperr"
	"github.com/MMTunning/MMTunning/internal/common/auth"
	"github.com/MMTunning/MMTunning/internal/common/config"
	"github.com/MMTunning/MMTunning/internal/common/server"
)

func TestStatusOfMapsBusinessErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.Validationf("bad input"), http.StatusBadRequest},
		{apperr.NotFound("order", "o-1"), http.StatusNotFound},
		{&apperr.DuplicateError{Entity: "client", Key: "bob"}, http.StatusConflict},
		{&apperr.AlreadyInvoicedError{OrderID: "o-1"}, http.StatusConflict},
		{&apperr.InsufficientStockError{SKU: "OIL", Required: 5, Available: 3}, http.StatusConflict},
		{&apperr.OwnershipMismatchError{Plate: "ABC-1234"}, http.StatusUnprocessableEntity},
		{http.ErrServerClosed, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := statusOf(c.err); got != c.want {
			t.Fatalf("statusOf(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.ErrServerClosed)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body := rec.Body.String(); body == "" || body[:1] != "{" {
		t.Fatalf("expected json body, got %q", body)
	}
}

func TestDecodeOptional(t *testing.T) {
	// chunked 请求：ContentLength 为 -1，paid 标记不能丢
	req := httptest.NewRequest(http.MethodPost, "/api/orders/o-1/invoice", strings.NewReader(`{"paid":true}`))
	req.ContentLength = -1
	var body generateInvoiceRequest
	if err := decodeOptional(req, &body); err != nil {
		t.Fatalf("decodeOptional: %v", err)
	}
	if !body.Paid {
		t.Fatalf("paid flag dropped for chunked body")
	}

	// 空 body -> 零值，不报错
	req = httptest.NewRequest(http.MethodPost, "/api/orders/o-1/invoice", nil)
	body = generateInvoiceRequest{}
	if err := decodeOptional(req, &body); err != nil {
		t.Fatalf("decodeOptional empty body: %v", err)
	}
	if body.Paid {
		t.Fatalf("expected zero value for empty body")
	}

	// 非法 JSON -> ValidationError
	req = httptest.NewRequest(http.MethodPost, "/api/orders/o-1/invoice", strings.NewReader(`{"paid":`))
	if err := decodeOptional(req, &generateInvoiceRequest{}); !apperr.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func authTestConfig() config.AuthConfig {
	return config.AuthConfig{
		Enabled:   true,
		JWTSecret: "test-secret",
		Issuer:    "mmtunning",
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	cfg := authTestConfig()
	h := authMiddleware(cfg, nil, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareAllowsPublicPath(t *testing.T) {
	cfg := authTestConfig()
	h := authMiddleware(cfg, []string{"/api/auth/"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for public path, got %d", rec.Code)
	}
}

func TestAuthMiddlewarePropagatesClaims(t *testing.T) {
	cfg := authTestConfig()
	token, _, err := auth.GenerateAccessToken(cfg, "c-1", []string{"admin"}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	var got server.AuthInfo
	h := authMiddleware(cfg, nil, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = server.AuthFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.Subject != "c-1" || !server.HasAnyRole(got.Roles, []string{"admin"}) {
		t.Fatalf("unexpected auth info: %+v", got)
	}
}

func TestRequireRole(t *testing.T) {
	cfg := authTestConfig()
	handler := requireRole(cfg, []string{"admin"}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// 无身份 -> 401
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/reports/summary", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	// 角色不符 -> 403
	req := httptest.NewRequest(http.MethodGet, "/api/reports/summary", nil)
	req = req.WithContext(server.ContextWithAuth(req.Context(), server.AuthInfo{Subject: "c-1", Roles: []string{"client"}}))
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	// admin -> 放行
	req = httptest.NewRequest(http.MethodGet, "/api/reports/summary", nil)
	req = req.WithContext(server.ContextWithAuth(req.Context(), server.AuthInfo{Subject: "c-2", Roles: []string{"admin"}}))
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
