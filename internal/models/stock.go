package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups stock items within one business section.
type Category struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	BusinessType BusinessType `gorm:"size:20;not null;index:idx_category_business_name,unique,priority:1" json:"business_type"`
	Name         string       `gorm:"size:50;not null;index:idx_category_business_name,unique,priority:2" json:"name"`
	CreatedAt    time.Time    `json:"created_at"`
}

// StockItem is a boutique or hardware inventory row. The two shops share the
// table; BusinessType is the discriminant. Branch partitions boutique stock
// ('K', 'B', or empty for shared) and stays empty for hardware.
type StockItem struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	BusinessType      BusinessType    `gorm:"size:20;not null;index" json:"business_type"`
	ItemName          string          `gorm:"size:100;not null" json:"item_name"`
	CategoryID        *uint           `json:"category_id"`
	Category          *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Branch            string          `gorm:"size:10" json:"branch,omitempty"`
	Quantity          int             `gorm:"not null" json:"quantity"`
	InitialQuantity   int             `gorm:"not null" json:"initial_quantity"`
	Unit              string          `gorm:"size:20;default:pieces" json:"unit"`
	CostPrice         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"cost_price"`
	MinSellingPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"min_selling_price"`
	MaxSellingPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"max_selling_price"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	ImageURL          string          `gorm:"size:500" json:"image_url,omitempty"`
	IsActive          bool            `gorm:"default:true" json:"is_active"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// IsLowStock reports whether the item has fallen to its reorder threshold.
func (s *StockItem) IsLowStock() bool {
	return s.LowStockThreshold > 0 && s.Quantity <= s.LowStockThreshold
}

// DeriveThreshold computes the default low-stock threshold from the opening
// quantity: a quarter of it, truncated, never below one.
func DeriveThreshold(initialQuantity int) int {
	t := initialQuantity / 4
	if t < 1 {
		t = 1
	}
	return t
}
