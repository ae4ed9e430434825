package events

import "time"

// 领域事件类型
const (
	TypeOrderCreated     = "order.created"
	TypeInvoiceGenerated = "invoice.generated"
)

// Envelope 事件信封：payload 按事件类型取 OrderCreated / InvoiceGenerated。
type Envelope struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// OrderCreated 开单事件。
type OrderCreated struct {
	OrderID      string `json:"order_id"`
	ClientID     string `json:"client_id"`
	VehiclePlate string `json:"vehicle_plate"`
	ItemCount    int    `json:"item_count"`
	LaborPrice   int64  `json:"labor_price"`
}

// InvoiceGenerated 开票事件。
type InvoiceGenerated struct {
	InvoiceID string `json:"invoice_id"`
	OrderID   string `json:"order_id"`
	Total     int64  `json:"total"`
	Paid      bool   `json:"paid"`
}
