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

// GroupLoanService mirrors LoanService for group lending, where repayment is
// split into fixed periods instead of a single due date.
type GroupLoanService struct {
	DB    *gorm.DB
	Log   *logrus.Logger
	Audit *AuditService
	Now   func() time.Time
}

func NewGroupLoanService(db *gorm.DB, log *logrus.Logger, audit *AuditService) *GroupLoanService {
	return &GroupLoanService{DB: db, Log: log, Audit: audit, Now: time.Now}
}

type CreateGroupLoanInput struct {
	GroupName    string
	MemberCount  int
	Principal    decimal.Decimal
	InterestRate decimal.Decimal
	TotalPeriods int
	PeriodType   models.PeriodType
	IssueDate    time.Time
}

func (s *GroupLoanService) Create(ctx context.Context, in CreateGroupLoanInput) (*models.GroupLoan, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.GroupName)
	if name == "" {
		return nil, apperr.Validationf("group name is required")
	}
	if !in.Principal.IsPositive() {
		return nil, apperr.Validationf("principal must be greater than 0")
	}
	if in.InterestRate.IsNegative() {
		return nil, apperr.Validationf("interest rate must not be negative")
	}
	if in.TotalPeriods <= 0 {
		return nil, apperr.Validationf("total periods must be at least 1")
	}
	if !in.PeriodType.Valid() {
		return nil, apperr.Validationf("unknown period type %q", in.PeriodType)
	}
	members := in.MemberCount
	if members < 1 {
		members = 1
	}

	principal := in.Principal.Round(2)
	interest := principal.Mul(in.InterestRate).Div(decimal.NewFromInt(100)).Round(2)
	total := principal.Add(interest)
	perPeriod := total.DivRound(decimal.NewFromInt(int64(in.TotalPeriods)), 2)
	issue := dateOnly(in.IssueDate)
	due := issue.AddDate(0, 0, in.PeriodType.Days()*in.TotalPeriods)

	group := models.GroupLoan{
		GroupName:       name,
		MemberCount:     members,
		Principal:       principal,
		InterestRate:    in.InterestRate,
		InterestAmount:  interest,
		TotalAmount:     total,
		AmountPerPeriod: perPeriod,
		TotalPeriods:    in.TotalPeriods,
		PeriodType:      in.PeriodType,
		PeriodsPaid:     0,
		AmountPaid:      decimal.Zero,
		Balance:         total,
		IssueDate:       issue,
		DueDate:         due,
		Status:          models.LoanActive,
	}
	if err := s.DB.WithContext(ctx).Create(&group).Error; err != nil {
		return nil, apperr.Internal("create group loan", err)
	}
	s.Audit.Record(ctx, sectionFinance, models.ActionCreate, "group_loan", group.ID, map[string]any{
		"group_name":   name,
		"principal":    principal.String(),
		"total_amount": total.String(),
		"member_count": members,
	})
	return &group, nil
}

// RecordPayment applies a payment; the caller declares how many periods the
// lump sum discharges. PeriodsPaid never exceeds TotalPeriods.
func (s *GroupLoanService) RecordPayment(ctx context.Context, groupID uint, amount decimal.Decimal, periodsCovered int, date time.Time, notes string) (*models.GroupLoanPayment, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, apperr.Validationf("payment amount must be greater than 0")
	}
	if periodsCovered < 1 {
		periodsCovered = 1
	}
	amount = amount.Round(2)

	var payment models.GroupLoanPayment
	var group models.GroupLoan
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("is_deleted = ?", false).
			First(&group, groupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("group loan %d not found", groupID)
			}
			return err
		}
		if group.Status == models.LoanPaid {
			return apperr.Conflictf("group loan %q is already paid off", group.GroupName)
		}
		if amount.GreaterThan(group.Balance) {
			return apperr.Conflictf("payment %s exceeds remaining balance %s", amount, group.Balance)
		}

		group.AmountPaid = group.AmountPaid.Add(amount)
		group.Balance = group.TotalAmount.Sub(group.AmountPaid)
		group.PeriodsPaid += periodsCovered
		if group.PeriodsPaid > group.TotalPeriods {
			group.PeriodsPaid = group.TotalPeriods
		}
		if !group.Balance.IsPositive() {
			group.Balance = decimal.Zero
			group.Status = models.LoanPaid
		}
		if err := tx.Model(&group).Updates(map[string]any{
			"amount_paid":  group.AmountPaid,
			"balance":      group.Balance,
			"periods_paid": group.PeriodsPaid,
			"status":       group.Status,
		}).Error; err != nil {
			return err
		}

		payment = models.GroupLoanPayment{
			GroupLoanID:    group.ID,
			PaymentDate:    dateOnly(date),
			Amount:         amount,
			PeriodsCovered: periodsCovered,
			BalanceAfter:   group.Balance,
			Notes:          strings.TrimSpace(notes),
		}
		return tx.Create(&payment).Error
	})
	if err != nil {
		return nil, wrapTx("record group loan payment", err)
	}

	s.Audit.Record(ctx, sectionFinance, models.ActionCreate, "group_loan_payment", payment.ID, map[string]any{
		"group_name":      group.GroupName,
		"amount":          amount.String(),
		"periods_covered": periodsCovered,
		"balance_after":   group.Balance.String(),
	})
	return &payment, nil
}

func (s *GroupLoanService) Delete(ctx context.Context, groupID uint) error {
	if _, err := actorFrom(ctx); err != nil {
		return err
	}
	var group models.GroupLoan
	if err := s.DB.WithContext(ctx).Where("is_deleted = ?", false).First(&group, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("group loan %d not found", groupID)
		}
		return apperr.Internal("load group loan", err)
	}
	if err := s.DB.WithContext(ctx).Model(&group).Update("is_deleted", true).Error; err != nil {
		return apperr.Internal("delete group loan", err)
	}
	s.Audit.Record(ctx, sectionFinance, models.ActionDelete, "group_loan", group.ID, map[string]any{
		"group_name":   group.GroupName,
		"total_amount": group.TotalAmount.String(),
	})
	return nil
}

// List refreshes overdue statuses, then returns all live group loans.
func (s *GroupLoanService) List(ctx context.Context) ([]models.GroupLoan, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	if err := s.RefreshStatuses(ctx); err != nil {
		return nil, err
	}
	var groups []models.GroupLoan
	if err := s.DB.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("created_at DESC, id DESC").
		Find(&groups).Error; err != nil {
		return nil, apperr.Internal("list group loans", err)
	}
	return groups, nil
}

// RefreshStatuses flips active group loans past their due date with a
// balance to overdue. Paid stays paid.
func (s *GroupLoanService) RefreshStatuses(ctx context.Context) error {
	today := dateOnly(s.Now())
	err := s.DB.WithContext(ctx).Model(&models.GroupLoan{}).
		Where("is_deleted = ? AND status = ? AND due_date < ? AND balance > 0",
			false, models.LoanActive, today).
		Update("status", models.LoanOverdue).Error
	if err != nil {
		return apperr.Internal("refresh overdue group loans", err)
	}
	return nil
}

func (s *GroupLoanService) Get(ctx context.Context, groupID uint) (*models.GroupLoan, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	var group models.GroupLoan
	err := s.DB.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("payment_date DESC") }).
		Where("is_deleted = ?", false).
		First(&group, groupID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("group loan %d not found", groupID)
	}
	if err != nil {
		return nil, apperr.Internal("load group loan", err)
	}
	return &group, nil
}
