package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/apperr"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/models"
)

// DashboardService assembles the manager overview numbers. Reads only.
type DashboardService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{DB: db, Now: time.Now}
}

type SectionSummary struct {
	StockCount     int64           `json:"stock_count"`
	LowStockCount  int64           `json:"low_stock_count"`
	TodaySales     int64           `json:"today_sales"`
	PendingCredits int64           `json:"pending_credits"`
	CreditBalance  decimal.Decimal `json:"credit_balance"`
}

type FinanceSummary struct {
	ActiveLoans      int64           `json:"active_loans"`
	ActiveGroupLoans int64           `json:"active_group_loans"`
	OverdueLoans     int64           `json:"overdue_loans"`
	OverdueGroups    int64           `json:"overdue_group_loans"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
}

type Summary struct {
	Boutique SectionSummary `json:"boutique"`
	Hardware SectionSummary `json:"hardware"`
	Finance  FinanceSummary `json:"finance"`
}

func (s *DashboardService) Summary(ctx context.Context) (*Summary, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	out := &Summary{}
	var err error
	if out.Boutique, err = s.section(ctx, models.BusinessBoutique); err != nil {
		return nil, err
	}
	if out.Hardware, err = s.section(ctx, models.BusinessHardware); err != nil {
		return nil, err
	}
	if out.Finance, err = s.finance(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *DashboardService) section(ctx context.Context, business models.BusinessType) (SectionSummary, error) {
	var sum SectionSummary
	db := s.DB.WithContext(ctx)
	today := dateOnly(s.Now())

	if err := db.Model(&models.StockItem{}).
		Where("business_type = ? AND is_active = ?", business, true).
		Count(&sum.StockCount).Error; err != nil {
		return sum, apperr.Internal("count stock", err)
	}
	if err := db.Model(&models.StockItem{}).
		Where("business_type = ? AND is_active = ? AND low_stock_threshold > 0 AND quantity <= low_stock_threshold", business, true).
		Count(&sum.LowStockCount).Error; err != nil {
		return sum, apperr.Internal("count low stock", err)
	}
	if err := db.Model(&models.Sale{}).
		Where("business_type = ? AND is_deleted = ? AND sale_date = ?", business, false, today).
		Count(&sum.TodaySales).Error; err != nil {
		return sum, apperr.Internal("count today's sales", err)
	}
	if err := db.Model(&models.Sale{}).
		Where("business_type = ? AND is_deleted = ? AND payment_type = ? AND is_credit_cleared = ?",
			business, false, models.PaymentPart, false).
		Count(&sum.PendingCredits).Error; err != nil {
		return sum, apperr.Internal("count pending credits", err)
	}
	var balance decimal.NullDecimal
	if err := db.Model(&models.Sale{}).
		Where("business_type = ? AND is_deleted = ? AND is_credit_cleared = ?", business, false, false).
		Select("SUM(balance)").Scan(&balance).Error; err != nil {
		return sum, apperr.Internal("sum credit balance", err)
	}
	if balance.Valid {
		sum.CreditBalance = balance.Decimal
	}
	return sum, nil
}

func (s *DashboardService) finance(ctx context.Context) (FinanceSummary, error) {
	var sum FinanceSummary
	db := s.DB.WithContext(ctx)

	if err := db.Model(&models.Loan{}).
		Where("is_deleted = ? AND balance > 0", false).
		Count(&sum.ActiveLoans).Error; err != nil {
		return sum, apperr.Internal("count active loans", err)
	}
	if err := db.Model(&models.GroupLoan{}).
		Where("is_deleted = ? AND balance > 0", false).
		Count(&sum.ActiveGroupLoans).Error; err != nil {
		return sum, apperr.Internal("count active group loans", err)
	}
	if err := db.Model(&models.Loan{}).
		Where("is_deleted = ? AND status = ?", false, models.LoanOverdue).
		Count(&sum.OverdueLoans).Error; err != nil {
		return sum, apperr.Internal("count overdue loans", err)
	}
	if err := db.Model(&models.GroupLoan{}).
		Where("is_deleted = ? AND status = ?", false, models.LoanOverdue).
		Count(&sum.OverdueGroups).Error; err != nil {
		return sum, apperr.Internal("count overdue group loans", err)
	}

	total := decimal.Zero
	for _, model := range []any{&models.Loan{}, &models.GroupLoan{}} {
		var part decimal.NullDecimal
		if err := db.Model(model).
			Where("is_deleted = ? AND balance > 0", false).
			Select("SUM(balance)").Scan(&part).Error; err != nil {
			return sum, apperr.Internal("sum outstanding", err)
		}
		if part.Valid {
			total = total.Add(part.Decimal)
		}
	}
	sum.TotalOutstanding = total
	return sum, nil
}
