package models

import (
	"time"

	"gorm.io/datatypes"
)

// Gateway identifies the payment path that produced an event.
type Gateway string

const (
	GatewayCard   Gateway = "card"
	GatewayWallet Gateway = "wallet"
	GatewayBank   Gateway = "bank"
	GatewayCash   Gateway = "cash"
)

// EventStatus is the outcome recorded by a single payment event.
type EventStatus string

const (
	EventPaid      EventStatus = "paid"
	EventFailed    EventStatus = "failed"
	EventCanceled  EventStatus = "canceled"
	EventSubmitted EventStatus = "submitted"
)

// PaymentEvent maps to the append-only `payments` table.
// BookingID is nil when the order id could not be resolved to a booking.
type PaymentEvent struct {
	ID             uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	BookingID      *uint          `gorm:"column:booking_id;index" json:"booking_id"`
	Gateway        Gateway        `gorm:"column:gateway;size:16;not null;index" json:"gateway"`
	OrderID        string         `gorm:"column:order_id;size:191;not null;index" json:"order_id"`
	TransactionRef *string        `gorm:"column:transaction_ref;size:191" json:"transaction_ref"`
	Amount         int64          `gorm:"column:amount;not null" json:"amount"`
	Currency       string         `gorm:"column:currency;size:8;not null;default:VND" json:"currency"`
	Status         EventStatus    `gorm:"column:status;size:16;not null" json:"status"`
	RawData        datatypes.JSON `gorm:"column:raw_data" json:"raw_data"`
	CreatedAt      time.Time      `gorm:"column:created_at;index" json:"created_at"`
}

func (PaymentEvent) TableName() string {
	return "payments"
}
