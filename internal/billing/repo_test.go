package billing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/MMTunning/MMTunning/internal/common/apperr"
	"gorm.io/gorm"
)

func TestMapCreateErrorTranslatesDuplicateKey(t *testing.T) {
	// 并发开票的败者：唯一索引冲突必须以业务错误形态上抛
	err := mapCreateError(gorm.ErrDuplicatedKey, "o-1")
	var already *apperr.AlreadyInvoicedError
	if !errors.As(err, &already) {
		t.Fatalf("expected AlreadyInvoicedError, got %v", err)
	}
	if already.OrderID != "o-1" {
		t.Fatalf("expected order o-1 in error, got %s", already.OrderID)
	}

	// 包装过的冲突同样要命中
	wrapped := fmt.Errorf("insert invoice: %w", gorm.ErrDuplicatedKey)
	if err := mapCreateError(wrapped, "o-2"); !errors.As(err, &already) {
		t.Fatalf("expected AlreadyInvoicedError for wrapped error, got %v", err)
	}
}

func TestMapCreateErrorPassesOtherErrorsThrough(t *testing.T) {
	if err := mapCreateError(nil, "o-1"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}

	plain := errors.New("connection reset")
	if err := mapCreateError(plain, "o-1"); !errors.Is(err, plain) {
		t.Fatalf("expected passthrough, got %v", err)
	}
	var already *apperr.AlreadyInvoicedError
	if errors.As(mapCreateError(plain, "o-1"), &already) {
		t.Fatalf("non-duplicate error must not become AlreadyInvoicedError")
	}
}
