package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/apperr"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/models"
)

// SaleService is the sale/payment reconciler. Every multi-row mutation —
// sale + items + stock decrements, payment + balance update, delete + stock
// restore — runs inside one transaction and commits or rolls back whole.
type SaleService struct {
	DB    *gorm.DB
	Log   *logrus.Logger
	Audit *AuditService
	// Now is injectable for tests that move the calendar.
	Now func() time.Time
}

func NewSaleService(db *gorm.DB, log *logrus.Logger, audit *AuditService) *SaleService {
	return &SaleService{DB: db, Log: log, Audit: audit, Now: time.Now}
}

type SaleItemInput struct {
	StockID   *uint
	ItemName  string
	Quantity  int
	UnitPrice decimal.Decimal
}

type CreateSaleInput struct {
	BusinessType models.BusinessType
	Branch       string
	SaleDate     time.Time
	PaymentType  models.PaymentType
	// CustomerID names an existing customer; CustomerName/Phone create one on
	// the fly (matched by phone first). Required for part-payment sales.
	CustomerID    *uint
	CustomerName  string
	CustomerPhone string
	// AmountPaid is only read for part payment; full sales pay in full.
	AmountPaid decimal.Decimal
	Items      []SaleItemInput
}

func (s *SaleService) Create(ctx context.Context, in CreateSaleInput) (*models.Sale, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if !in.BusinessType.Valid() {
		return nil, apperr.Validationf("unknown business type %q", in.BusinessType)
	}
	if !in.PaymentType.Valid() {
		return nil, apperr.Validationf("payment type must be full or part")
	}
	if len(in.Items) == 0 {
		return nil, apperr.Validationf("at least one item is required")
	}
	for _, it := range in.Items {
		if it.Quantity <= 0 {
			return nil, apperr.Validationf("item quantity must be positive")
		}
		if it.UnitPrice.IsNegative() {
			return nil, apperr.Validationf("unit price must not be negative")
		}
		if it.StockID == nil && strings.TrimSpace(it.ItemName) == "" {
			return nil, apperr.Validationf("ad-hoc items need a name")
		}
	}
	if in.PaymentType == models.PaymentPart && in.AmountPaid.IsNegative() {
		return nil, apperr.Validationf("amount paid must not be negative")
	}

	var sale models.Sale
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		total := decimal.Zero
		saleItems := make([]models.SaleItem, 0, len(in.Items))
		for _, it := range in.Items {
			price := it.UnitPrice.Round(2)
			subtotal := price.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2)
			item := models.SaleItem{
				ItemName:  strings.TrimSpace(it.ItemName),
				Quantity:  it.Quantity,
				UnitPrice: price,
				Subtotal:  subtotal,
			}
			if it.StockID != nil {
				stock, err := decrementForSale(tx, in.BusinessType, *it.StockID, it.Quantity)
				if err != nil {
					return err
				}
				if !branchVisible(actor, in.BusinessType, stock.Branch) {
					return apperr.Permissionf("stock item %q belongs to another branch", stock.ItemName)
				}
				if !actor.IsManager() {
					if price.LessThan(stock.MinSellingPrice) || price.GreaterThan(stock.MaxSellingPrice) {
						return apperr.Validationf("unit price %s for %q is outside the permitted range %s - %s",
							price, stock.ItemName, stock.MinSellingPrice, stock.MaxSellingPrice)
					}
				}
				item.StockID = it.StockID
				item.ItemName = stock.ItemName
			} else {
				item.IsOtherItem = true
			}
			total = total.Add(subtotal)
			saleItems = append(saleItems, item)
		}

		amountPaid := in.AmountPaid.Round(2)
		if in.PaymentType == models.PaymentFull {
			amountPaid = total
		} else if amountPaid.GreaterThan(total) {
			return apperr.Validationf("amount paid %s exceeds sale total %s", amountPaid, total)
		}
		balance := total.Sub(amountPaid)
		if balance.IsNegative() {
			balance = decimal.Zero
		}

		customerID := in.CustomerID
		if customerID != nil {
			var customer models.Customer
			if err := tx.Where("business_type = ?", in.BusinessType).
				First(&customer, *customerID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFoundf("customer %d not found", *customerID)
				}
				return err
			}
		}
		if in.PaymentType == models.PaymentPart {
			if customerID == nil {
				id, err := s.findOrCreateCustomer(tx, in)
				if err != nil {
					return err
				}
				customerID = id
			}
			if customerID == nil {
				return apperr.Validationf("part-payment sales need a customer (id, or name and phone)")
			}
		}

		ref, err := NextReference(tx, in.BusinessType.ReferencePrefix())
		if err != nil {
			return err
		}

		sale = models.Sale{
			BusinessType:    in.BusinessType,
			ReferenceNumber: ref,
			Branch:          in.Branch,
			SaleDate:        dateOnly(in.SaleDate),
			CustomerID:      customerID,
			PaymentType:     in.PaymentType,
			TotalAmount:     total,
			AmountPaid:      amountPaid,
			Balance:         balance,
			IsCreditCleared: !balance.IsPositive(),
			Items:           saleItems,
		}
		return tx.Create(&sale).Error
	})
	if err != nil {
		return nil, wrapTx("create sale", err)
	}

	s.Audit.Record(ctx, string(in.BusinessType), models.ActionCreate, "sale", sale.ID, map[string]any{
		"reference":    sale.ReferenceNumber,
		"total":        sale.TotalAmount.String(),
		"payment_type": sale.PaymentType,
		"items_count":  len(sale.Items),
	})
	return &sale, nil
}

func (s *SaleService) findOrCreateCustomer(tx *gorm.DB, in CreateSaleInput) (*uint, error) {
	name := strings.TrimSpace(in.CustomerName)
	phone := strings.TrimSpace(in.CustomerPhone)
	if name == "" || phone == "" {
		return nil, nil
	}
	var existing models.Customer
	err := tx.Where("phone = ? AND business_type = ?", phone, in.BusinessType).First(&existing).Error
	if err == nil {
		return &existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	c := models.Customer{Name: name, Phone: phone, BusinessType: in.BusinessType}
	if err := tx.Create(&c).Error; err != nil {
		return nil, err
	}
	return &c.ID, nil
}

// RecordPayment applies an installment to a part-payment sale. The sale row
// is locked for the update so concurrent installments serialize instead of
// overpaying.
func (s *SaleService) RecordPayment(ctx context.Context, business models.BusinessType, saleID uint, amount decimal.Decimal, date time.Time) (*models.CreditPayment, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, apperr.Validationf("payment amount must be greater than 0")
	}
	amount = amount.Round(2)

	var payment models.CreditPayment
	var sale models.Sale
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("business_type = ? AND is_deleted = ?", business, false).
			First(&sale, saleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("sale %d not found", saleID)
			}
			return err
		}
		if sale.PaymentType != models.PaymentPart {
			return apperr.Conflictf("sale %s was paid in full at creation", sale.ReferenceNumber)
		}
		if sale.IsCreditCleared {
			return apperr.Conflictf("sale %s is already cleared", sale.ReferenceNumber)
		}
		if amount.GreaterThan(sale.Balance) {
			return apperr.Conflictf("payment %s exceeds remaining balance %s", amount, sale.Balance)
		}

		sale.AmountPaid = sale.AmountPaid.Add(amount)
		sale.Balance = sale.TotalAmount.Sub(sale.AmountPaid)
		if !sale.Balance.IsPositive() {
			sale.Balance = decimal.Zero
			sale.IsCreditCleared = true
		}
		if err := tx.Model(&sale).Updates(map[string]any{
			"amount_paid":       sale.AmountPaid,
			"balance":           sale.Balance,
			"is_credit_cleared": sale.IsCreditCleared,
		}).Error; err != nil {
			return err
		}

		payment = models.CreditPayment{
			SaleID:           sale.ID,
			PaymentDate:      dateOnly(date),
			Amount:           amount,
			RemainingBalance: sale.Balance,
		}
		return tx.Create(&payment).Error
	})
	if err != nil {
		return nil, wrapTx("record payment", err)
	}

	s.Audit.Record(ctx, string(business), models.ActionCreate, "credit_payment", payment.ID, map[string]any{
		"sale_reference":    sale.ReferenceNumber,
		"amount":            amount.String(),
		"remaining_balance": sale.Balance.String(),
	})
	return &payment, nil
}

// Delete soft-deletes a sale and puts every stock-linked quantity back.
// Deleting twice is rejected, not silently re-restored.
func (s *SaleService) Delete(ctx context.Context, business models.BusinessType, saleID uint) error {
	if _, err := actorFrom(ctx); err != nil {
		return err
	}
	var sale models.Sale
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("business_type = ?", business).
			Preload("Items").
			First(&sale, saleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("sale %d not found", saleID)
			}
			return err
		}
		if sale.IsDeleted {
			return apperr.Conflictf("sale %s is already deleted", sale.ReferenceNumber)
		}
		for _, item := range sale.Items {
			if item.StockID != nil {
				if err := restoreForSale(tx, *item.StockID, item.Quantity); err != nil {
					return err
				}
			}
		}
		now := s.Now()
		return tx.Model(&sale).Updates(map[string]any{
			"is_deleted": true,
			"deleted_at": &now,
		}).Error
	})
	if err != nil {
		return wrapTx("delete sale", err)
	}

	s.Audit.Record(ctx, string(business), models.ActionDelete, "sale", sale.ID, map[string]any{
		"reference": sale.ReferenceNumber,
		"total":     sale.TotalAmount.String(),
	})
	return nil
}

type ListSalesInput struct {
	BusinessType models.BusinessType
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
}

func (s *SaleService) List(ctx context.Context, in ListSalesInput) ([]models.Sale, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	limit := in.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := s.DB.WithContext(ctx).Model(&models.Sale{}).
		Where("business_type = ? AND is_deleted = ?", in.BusinessType, false)
	if in.StartDate != nil {
		q = q.Where("sale_date >= ?", dateOnly(*in.StartDate))
	}
	if in.EndDate != nil {
		q = q.Where("sale_date <= ?", dateOnly(*in.EndDate))
	}
	q = branchScoped(q, actor, in.BusinessType)
	var sales []models.Sale
	if err := q.Preload("Customer").Order("sale_date DESC, id DESC").Limit(limit).Find(&sales).Error; err != nil {
		return nil, apperr.Internal("list sales", err)
	}
	return sales, nil
}

func (s *SaleService) Get(ctx context.Context, business models.BusinessType, saleID uint) (*models.Sale, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	var sale models.Sale
	err := s.DB.WithContext(ctx).
		Where("business_type = ?", business).
		Preload("Items").
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("payment_date DESC") }).
		Preload("Customer").
		First(&sale, saleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("sale %d not found", saleID)
	}
	if err != nil {
		return nil, apperr.Internal("load sale", err)
	}
	return &sale, nil
}

// PendingCredits lists part-payment sales still carrying a balance.
func (s *SaleService) PendingCredits(ctx context.Context, business models.BusinessType) ([]models.Sale, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	q := s.DB.WithContext(ctx).Model(&models.Sale{}).
		Where("business_type = ? AND is_deleted = ? AND payment_type = ? AND is_credit_cleared = ? AND balance > 0",
			business, false, models.PaymentPart, false)
	q = branchScoped(q, actor, business)
	var sales []models.Sale
	if err := q.Preload("Customer").Order("sale_date DESC").Find(&sales).Error; err != nil {
		return nil, apperr.Internal("list pending credits", err)
	}
	return sales, nil
}
