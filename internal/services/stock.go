package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/apperr"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/models"
)

// StockService owns the stock ledger: item lifecycle, manual adjustments and
// the sale-driven decrements/restores that run inside the sale transaction.
type StockService struct {
	DB    *gorm.DB
	Log   *logrus.Logger
	Audit *AuditService
}

func NewStockService(db *gorm.DB, log *logrus.Logger, audit *AuditService) *StockService {
	return &StockService{DB: db, Log: log, Audit: audit}
}

type AddStockInput struct {
	BusinessType    models.BusinessType
	ItemName        string
	CategoryID      *uint
	Branch          string
	InitialQuantity int
	Unit            string
	CostPrice       decimal.Decimal
	MinSellingPrice decimal.Decimal
	MaxSellingPrice decimal.Decimal
	// Threshold overrides the derived low-stock threshold when non-nil.
	Threshold *int
	ImageURL  string
}

func (s *StockService) AddItem(ctx context.Context, in AddStockInput) (*models.StockItem, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if !in.BusinessType.Valid() {
		return nil, apperr.Validationf("unknown business type %q", in.BusinessType)
	}
	name := strings.TrimSpace(in.ItemName)
	if name == "" {
		return nil, apperr.Validationf("item name is required")
	}
	if in.InitialQuantity < 0 {
		return nil, apperr.Validationf("initial quantity must not be negative")
	}
	if in.MinSellingPrice.GreaterThan(in.MaxSellingPrice) {
		return nil, apperr.Validationf("min selling price exceeds max selling price")
	}
	if in.CategoryID != nil {
		if err := s.checkCategory(ctx, in.BusinessType, *in.CategoryID); err != nil {
			return nil, err
		}
	}
	threshold := models.DeriveThreshold(in.InitialQuantity)
	if in.Threshold != nil {
		if *in.Threshold < 0 {
			return nil, apperr.Validationf("low stock threshold must not be negative")
		}
		threshold = *in.Threshold
	}
	unit := in.Unit
	if unit == "" {
		unit = "pieces"
	}

	item := models.StockItem{
		BusinessType:      in.BusinessType,
		ItemName:          name,
		CategoryID:        in.CategoryID,
		Branch:            in.Branch,
		Quantity:          in.InitialQuantity,
		InitialQuantity:   in.InitialQuantity,
		Unit:              unit,
		CostPrice:         in.CostPrice.Round(2),
		MinSellingPrice:   in.MinSellingPrice.Round(2),
		MaxSellingPrice:   in.MaxSellingPrice.Round(2),
		LowStockThreshold: threshold,
		ImageURL:          in.ImageURL,
		IsActive:          true,
	}
	if err := s.DB.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, apperr.Internal("create stock item", err)
	}
	s.Audit.Record(ctx, string(in.BusinessType), models.ActionCreate, "stock", item.ID,
		map[string]any{"item_name": item.ItemName, "quantity": item.Quantity, "by": actor.Username})
	return &item, nil
}

type UpdateStockInput struct {
	ItemName        *string
	CategoryID      *uint
	Unit            *string
	CostPrice       *decimal.Decimal
	MinSellingPrice *decimal.Decimal
	MaxSellingPrice *decimal.Decimal
	Threshold       *int
	ImageURL        *string
	IsActive        *bool
}

func (s *StockService) UpdateItem(ctx context.Context, business models.BusinessType, id uint, in UpdateStockInput) (*models.StockItem, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	item, err := s.get(ctx, business, id)
	if err != nil {
		return nil, err
	}
	if !branchVisible(actor, business, item.Branch) {
		return nil, apperr.Permissionf("item belongs to another branch")
	}

	oldName := item.ItemName
	if in.ItemName != nil {
		name := strings.TrimSpace(*in.ItemName)
		if name == "" {
			return nil, apperr.Validationf("item name is required")
		}
		item.ItemName = name
	}
	if in.CategoryID != nil {
		if err := s.checkCategory(ctx, business, *in.CategoryID); err != nil {
			return nil, err
		}
		item.CategoryID = in.CategoryID
	}
	if in.Unit != nil {
		item.Unit = *in.Unit
	}
	if in.CostPrice != nil {
		item.CostPrice = in.CostPrice.Round(2)
	}
	if in.MinSellingPrice != nil {
		item.MinSellingPrice = in.MinSellingPrice.Round(2)
	}
	if in.MaxSellingPrice != nil {
		item.MaxSellingPrice = in.MaxSellingPrice.Round(2)
	}
	if item.MinSellingPrice.GreaterThan(item.MaxSellingPrice) {
		return nil, apperr.Validationf("min selling price exceeds max selling price")
	}
	if in.Threshold != nil {
		item.LowStockThreshold = *in.Threshold
	}
	if in.ImageURL != nil {
		item.ImageURL = *in.ImageURL
	}
	if in.IsActive != nil {
		item.IsActive = *in.IsActive
	}
	if err := s.DB.WithContext(ctx).Save(item).Error; err != nil {
		return nil, apperr.Internal("update stock item", err)
	}
	s.Audit.Record(ctx, string(business), models.ActionUpdate, "stock", item.ID,
		map[string]any{"item_name": item.ItemName, "old_name": oldName})
	return item, nil
}

// Adjust applies a manual +/- delta. Going below zero clamps to zero and the
// clamp is visible in the audit details (old/new/delta).
func (s *StockService) Adjust(ctx context.Context, business models.BusinessType, id uint, delta int) (*models.StockItem, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	var item models.StockItem
	var old int
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("business_type = ?", business).
			First(&item, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("stock item %d not found", id)
			}
			return err
		}
		if !branchVisible(actor, business, item.Branch) {
			return apperr.Permissionf("item belongs to another branch")
		}
		old = item.Quantity
		item.Quantity = old + delta
		if item.Quantity < 0 {
			item.Quantity = 0
		}
		return tx.Model(&item).Update("quantity", item.Quantity).Error
	})
	if err != nil {
		return nil, wrapTx("adjust stock", err)
	}
	s.Audit.Record(ctx, string(business), models.ActionAdjust, "stock", item.ID, map[string]any{
		"item_name":    item.ItemName,
		"old_quantity": old,
		"adjustment":   delta,
		"new_quantity": item.Quantity,
		"clamped":      old+delta < 0,
	})
	return &item, nil
}

// Deactivate soft-deletes: the item stops listing but its sale history and
// quantities stay intact.
func (s *StockService) Deactivate(ctx context.Context, business models.BusinessType, id uint) error {
	if _, err := actorFrom(ctx); err != nil {
		return err
	}
	item, err := s.get(ctx, business, id)
	if err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Model(item).Update("is_active", false).Error; err != nil {
		return apperr.Internal("deactivate stock item", err)
	}
	s.Audit.Record(ctx, string(business), models.ActionDelete, "stock", item.ID,
		map[string]any{"item_name": item.ItemName, "soft": true})
	return nil
}

// HardDelete removes the row for good. It refuses when any sale item still
// references the stock row; orphaning sale history is worse than keeping a
// dead item around.
func (s *StockService) HardDelete(ctx context.Context, business models.BusinessType, id uint) error {
	actor, err := actorFrom(ctx)
	if err != nil {
		return err
	}
	if !actor.IsManager() {
		return apperr.Permissionf("only managers may permanently delete stock")
	}
	item, err := s.get(ctx, business, id)
	if err != nil {
		return err
	}
	var refs int64
	if err := s.DB.WithContext(ctx).Model(&models.SaleItem{}).
		Where("stock_id = ?", id).Count(&refs).Error; err != nil {
		return apperr.Internal("count sale references", err)
	}
	if refs > 0 {
		return apperr.Conflictf("stock item %q has %d sale records; deactivate it instead", item.ItemName, refs)
	}
	if err := s.DB.WithContext(ctx).Delete(&models.StockItem{}, id).Error; err != nil {
		return apperr.Internal("delete stock item", err)
	}
	s.Audit.Record(ctx, string(business), models.ActionDelete, "stock", id,
		map[string]any{"item_name": item.ItemName, "permanent": true})
	return nil
}

type ListStockInput struct {
	BusinessType    models.BusinessType
	IncludeInactive bool
	CategoryID      *uint
	LowStockOnly    bool
}

func (s *StockService) List(ctx context.Context, in ListStockInput) ([]models.StockItem, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	q := s.DB.WithContext(ctx).Model(&models.StockItem{}).
		Where("business_type = ?", in.BusinessType)
	if !in.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if in.CategoryID != nil {
		q = q.Where("category_id = ?", *in.CategoryID)
	}
	if in.LowStockOnly {
		q = q.Where("low_stock_threshold > 0 AND quantity <= low_stock_threshold")
	}
	q = branchScoped(q, actor, in.BusinessType)
	var items []models.StockItem
	if err := q.Preload("Category").Order("item_name").Find(&items).Error; err != nil {
		return nil, apperr.Internal("list stock", err)
	}
	return items, nil
}

func (s *StockService) Get(ctx context.Context, business models.BusinessType, id uint) (*models.StockItem, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	return s.get(ctx, business, id)
}

// checkCategory rejects category ids that do not exist in the section before
// they reach the database as dangling foreign keys.
func (s *StockService) checkCategory(ctx context.Context, business models.BusinessType, id uint) error {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&models.Category{}).
		Where("business_type = ? AND id = ?", business, id).
		Count(&n).Error; err != nil {
		return apperr.Internal("check category", err)
	}
	if n == 0 {
		return apperr.NotFoundf("category %d not found", id)
	}
	return nil
}

func (s *StockService) get(ctx context.Context, business models.BusinessType, id uint) (*models.StockItem, error) {
	var item models.StockItem
	err := s.DB.WithContext(ctx).Preload("Category").
		Where("business_type = ?", business).
		First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("stock item %d not found", id)
	}
	if err != nil {
		return nil, apperr.Internal("load stock item", err)
	}
	return &item, nil
}

// decrementForSale takes qty off a stock row under a row lock. Called only
// from inside the sale transaction; the insufficient-stock check is
// unconditional on every path.
func decrementForSale(tx *gorm.DB, business models.BusinessType, stockID uint, qty int) (*models.StockItem, error) {
	var item models.StockItem
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_type = ?", business).
		First(&item, stockID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("stock item %d not found", stockID)
		}
		return nil, err
	}
	if !item.IsActive {
		return nil, apperr.Validationf("stock item %q is inactive", item.ItemName)
	}
	if qty > item.Quantity {
		return nil, apperr.InsufficientStockf("insufficient stock for %q: have %d, need %d",
			item.ItemName, item.Quantity, qty)
	}
	item.Quantity -= qty
	if err := tx.Model(&item).Update("quantity", item.Quantity).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// restoreForSale is the inverse of decrementForSale, used when a sale is
// soft-deleted. The item may have been deactivated since; quantities are
// restored regardless.
func restoreForSale(tx *gorm.DB, stockID uint, qty int) error {
	var item models.StockItem
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, stockID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// stock row hard-deleted since the sale; nothing to restore onto
			return nil
		}
		return err
	}
	return tx.Model(&item).Update("quantity", item.Quantity+qty).Error
}

// wrapTx keeps apperr kinds intact across the transaction boundary and wraps
// anything else as infrastructure failure.
func wrapTx(op string, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperr.Internal(fmt.Sprintf("%s failed", op), err)
}
