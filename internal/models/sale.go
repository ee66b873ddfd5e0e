package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is a boutique or hardware transaction header. The balance column is
// always TotalAmount - AmountPaid, clamped at zero, and IsCreditCleared
// mirrors balance <= 0. Those fields are only ever written by the sale
// service inside a transaction.
type Sale struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	BusinessType    BusinessType    `gorm:"size:20;not null;index" json:"business_type"`
	ReferenceNumber string          `gorm:"size:20;uniqueIndex" json:"reference_number"`
	Branch          string          `gorm:"size:10" json:"branch,omitempty"`
	SaleDate        time.Time       `gorm:"type:date;not null" json:"sale_date"`
	CustomerID      *uint           `json:"customer_id"`
	Customer        *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	PaymentType     PaymentType     `gorm:"size:10;not null" json:"payment_type"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	AmountPaid      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount_paid"`
	Balance         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance"`
	IsCreditCleared bool            `gorm:"default:false" json:"is_credit_cleared"`
	IsDeleted       bool            `gorm:"default:false;index" json:"is_deleted"`
	DeletedAt       *time.Time      `json:"deleted_at,omitempty"`
	Items           []SaleItem      `gorm:"foreignKey:SaleID" json:"items,omitempty"`
	Payments        []CreditPayment `gorm:"foreignKey:SaleID" json:"payments,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// SaleItem is one line of a sale. StockID is nil for ad-hoc "other" items
// that never touch inventory.
type SaleItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	SaleID      uint            `gorm:"not null;index" json:"sale_id"`
	StockID     *uint           `json:"stock_id"`
	ItemName    string          `gorm:"size:100;not null" json:"item_name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	IsOtherItem bool            `gorm:"default:false" json:"is_other_item"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreditPayment records one installment against a part-payment sale,
// with the balance remaining right after it was applied.
type CreditPayment struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	SaleID           uint            `gorm:"not null;index" json:"sale_id"`
	PaymentDate      time.Time       `gorm:"type:date;not null" json:"payment_date"`
	Amount           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	RemainingBalance decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"remaining_balance"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Customer is a retail customer. One is created on the fly (matched by
// phone) when a part-payment sale names somebody new.
type Customer struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"size:100;not null" json:"name"`
	Phone        string       `gorm:"size:20;not null;index" json:"phone"`
	Address      string       `gorm:"size:255" json:"address,omitempty"`
	NIN          string       `gorm:"size:20" json:"nin,omitempty"`
	BusinessType BusinessType `gorm:"size:20" json:"business_type"`
	CreatedAt    time.Time    `json:"created_at"`
}

// ReferenceSequence is the locked counter behind sale reference numbers.
// One row per prefix; NextNumber is read and bumped under a row lock so
// concurrent writers cannot allocate the same suffix.
type ReferenceSequence struct {
	Prefix     string `gorm:"primaryKey;size:10"`
	NextNumber int    `gorm:"not null"`
}
