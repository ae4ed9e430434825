package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MMTunning/MMTunning/internal/common/apperr"
)

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

// statusOf 把业务错误翻译成 HTTP 状态码：
//
//	ValidationError        -> 400
//	NotFoundError          -> 404
//	DuplicateError         -> 409
//	AlreadyInvoicedError   -> 409
//	InsufficientStockError -> 409
//	OwnershipMismatchError -> 422
//	其余                    -> 500
func statusOf(err error) int {
	var (
		validation *apperr.ValidationError
		notFound   *apperr.NotFoundError
		duplicate  *apperr.DuplicateError
		invoiced   *apperr.AlreadyInvoicedError
		stock      *apperr.InsufficientStockError
		mismatch   *apperr.OwnershipMismatchError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &duplicate), errors.As(err, &invoiced), errors.As(err, &stock):
		return http.StatusConflict
	case errors.As(err, &mismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusOf(err)
	body := map[string]any{"error": err.Error()}
	if code == http.StatusInternalServerError {
		// 内部错误细节不外露
		body["error"] = "internal error"
	}
	var stock *apperr.InsufficientStockError
	if errors.As(err, &stock) {
		body["sku"] = stock.SKU
		body["required"] = stock.Required
		body["available"] = stock.Available
	}
	writeJSON(w, code, body)
}
