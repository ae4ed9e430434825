package report

import (
	"context"
	"fmt"

	"github.com/MMTunning/MMTunning/internal/billing"
	"github.com/MMTunning/MMTunning/internal/catalog"
	"github.com/MMTunning/MMTunning/internal/order"
	"gorm.io/gorm"
)

// Summary 车间经营快照。金额单位：分。
type Summary struct {
	OpenOrders     int64 `json:"open_orders"`
	ClosedOrders   int64 `json:"closed_orders"`
	InvoiceCount   int64 `json:"invoice_count"`
	PaidInvoices   int64 `json:"paid_invoices"`
	UnpaidInvoices int64 `json:"unpaid_invoices"`
	ClosedRevenue  int64 `json:"closed_revenue"`  // 已关单工单总额之和
	UnpaidRevenue  int64 `json:"unpaid_revenue"`  // 未结清发票金额之和
	PartKinds      int64 `json:"part_kinds"`      // 配件品类数
	StockUnits     int64 `json:"stock_units"`     // 在库件数合计
	LowStockParts  int64 `json:"low_stock_parts"` // 低于阈值的品类数
}

// Reporter 聚合查询，只读。
type Reporter struct {
	db *gorm.DB
}

func NewReporter(db *gorm.DB) *Reporter {
	return &Reporter{db: db}
}

// BuildSummary 汇总当前经营状况。threshold 为低库存阈值。
func (r *Reporter) BuildSummary(ctx context.Context, threshold int64) (*Summary, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("reporter db is nil")
	}
	db := r.db.WithContext(ctx)
	var s Summary

	if err := db.Model(&order.ServiceOrder{}).Where("status = ?", order.StatusOpen).Count(&s.OpenOrders).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&order.ServiceOrder{}).Where("status = ?", order.StatusClosed).Count(&s.ClosedOrders).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&billing.Invoice{}).Count(&s.InvoiceCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&billing.Invoice{}).Where("paid = ?", true).Count(&s.PaidInvoices).Error; err != nil {
		return nil, err
	}
	s.UnpaidInvoices = s.InvoiceCount - s.PaidInvoices

	type sumRow struct{ Total int64 }
	var row sumRow
	if err := db.Model(&order.ServiceOrder{}).
		Select("COALESCE(SUM(final_total), 0) AS total").
		Where("status = ?", order.StatusClosed).
		Scan(&row).Error; err != nil {
		return nil, err
	}
	s.ClosedRevenue = row.Total

	if err := db.Model(&billing.Invoice{}).
		Select("COALESCE(SUM(total), 0) AS total").
		Where("paid = ?", false).
		Scan(&row).Error; err != nil {
		return nil, err
	}
	s.UnpaidRevenue = row.Total

	if err := db.Model(&catalog.Part{}).Count(&s.PartKinds).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&catalog.Part{}).
		Select("COALESCE(SUM(qty), 0) AS total").
		Scan(&row).Error; err != nil {
		return nil, err
	}
	s.StockUnits = row.Total

	if err := db.Model(&catalog.Part{}).Where("qty < ?", threshold).Count(&s.LowStockParts).Error; err != nil {
		return nil, err
	}
	return &s, nil
}
