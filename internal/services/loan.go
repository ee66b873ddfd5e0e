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

const sectionFinance = "finance"

// dueSoonWindow is how far ahead of the due date a loan starts showing as
// due_soon on list reads.
const dueSoonWindow = 7 * 24 * time.Hour

// LoanService owns individual microloans and their clients.
type LoanService struct {
	DB    *gorm.DB
	Log   *logrus.Logger
	Audit *AuditService
	Now   func() time.Time
}

func NewLoanService(db *gorm.DB, log *logrus.Logger, audit *AuditService) *LoanService {
	return &LoanService{DB: db, Log: log, Audit: audit, Now: time.Now}
}

type AddClientInput struct {
	Name    string
	Phone   string
	NIN     string
	Address string
}

func (s *LoanService) AddClient(ctx context.Context, in AddClientInput) (*models.LoanClient, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	phone := strings.TrimSpace(in.Phone)
	if name == "" || phone == "" {
		return nil, apperr.Validationf("client name and phone are required")
	}
	client := models.LoanClient{
		Name:     name,
		Phone:    phone,
		NIN:      strings.TrimSpace(in.NIN),
		Address:  strings.TrimSpace(in.Address),
		IsActive: true,
	}
	if err := s.DB.WithContext(ctx).Create(&client).Error; err != nil {
		return nil, apperr.Internal("create loan client", err)
	}
	s.Audit.Record(ctx, sectionFinance, models.ActionCreate, "client", client.ID,
		map[string]any{"name": name, "phone": phone})
	return &client, nil
}

func (s *LoanService) ListClients(ctx context.Context) ([]models.LoanClient, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	var clients []models.LoanClient
	if err := s.DB.WithContext(ctx).Where("is_active = ?", true).Order("name").Find(&clients).Error; err != nil {
		return nil, apperr.Internal("list clients", err)
	}
	return clients, nil
}

type CreateLoanInput struct {
	ClientID      uint
	Principal     decimal.Decimal
	InterestRate  decimal.Decimal
	DurationWeeks int
	IssueDate     time.Time
}

func (s *LoanService) Create(ctx context.Context, in CreateLoanInput) (*models.Loan, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	if in.ClientID == 0 {
		return nil, apperr.Validationf("client is required")
	}
	if !in.Principal.IsPositive() {
		return nil, apperr.Validationf("principal must be greater than 0")
	}
	if in.InterestRate.IsNegative() {
		return nil, apperr.Validationf("interest rate must not be negative")
	}
	if in.DurationWeeks <= 0 {
		return nil, apperr.Validationf("duration must be at least one week")
	}
	var client models.LoanClient
	if err := s.DB.WithContext(ctx).First(&client, in.ClientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("client %d not found", in.ClientID)
		}
		return nil, apperr.Internal("load client", err)
	}

	principal := in.Principal.Round(2)
	interest := principal.Mul(in.InterestRate).Div(decimal.NewFromInt(100)).Round(2)
	total := principal.Add(interest)
	issue := dateOnly(in.IssueDate)

	loan := models.Loan{
		ClientID:       in.ClientID,
		Principal:      principal,
		InterestRate:   in.InterestRate,
		InterestAmount: interest,
		TotalAmount:    total,
		AmountPaid:     decimal.Zero,
		Balance:        total,
		DurationWeeks:  in.DurationWeeks,
		IssueDate:      issue,
		DueDate:        issue.AddDate(0, 0, in.DurationWeeks*7),
		Status:         models.LoanActive,
	}
	if err := s.DB.WithContext(ctx).Create(&loan).Error; err != nil {
		return nil, apperr.Internal("create loan", err)
	}
	s.Audit.Record(ctx, sectionFinance, models.ActionCreate, "loan", loan.ID, map[string]any{
		"client":       client.Name,
		"principal":    principal.String(),
		"total_amount": total.String(),
	})
	return &loan, nil
}

// RecordPayment applies a payment to a loan under a row lock and snapshots
// the balance after it.
func (s *LoanService) RecordPayment(ctx context.Context, loanID uint, amount decimal.Decimal, date time.Time, notes string) (*models.LoanPayment, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, apperr.Validationf("payment amount must be greater than 0")
	}
	amount = amount.Round(2)

	var payment models.LoanPayment
	var loan models.Loan
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("is_deleted = ?", false).
			First(&loan, loanID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("loan %d not found", loanID)
			}
			return err
		}
		if loan.Status == models.LoanPaid {
			return apperr.Conflictf("loan %d is already paid off", loanID)
		}
		if amount.GreaterThan(loan.Balance) {
			return apperr.Conflictf("payment %s exceeds remaining balance %s", amount, loan.Balance)
		}

		loan.AmountPaid = loan.AmountPaid.Add(amount)
		loan.Balance = loan.TotalAmount.Sub(loan.AmountPaid)
		updates := map[string]any{
			"amount_paid": loan.AmountPaid,
			"balance":     loan.Balance,
		}
		if !loan.Balance.IsPositive() {
			loan.Balance = decimal.Zero
			loan.Status = models.LoanPaid
			updates["balance"] = loan.Balance
			updates["status"] = loan.Status
		}
		if err := tx.Model(&loan).Updates(updates).Error; err != nil {
			return err
		}

		payment = models.LoanPayment{
			LoanID:       loan.ID,
			PaymentDate:  dateOnly(date),
			Amount:       amount,
			BalanceAfter: loan.Balance,
			Notes:        strings.TrimSpace(notes),
		}
		return tx.Create(&payment).Error
	})
	if err != nil {
		return nil, wrapTx("record loan payment", err)
	}

	s.Audit.Record(ctx, sectionFinance, models.ActionCreate, "loan_payment", payment.ID, map[string]any{
		"loan_id":       loan.ID,
		"amount":        amount.String(),
		"balance_after": loan.Balance.String(),
	})
	return &payment, nil
}

func (s *LoanService) Delete(ctx context.Context, loanID uint) error {
	if _, err := actorFrom(ctx); err != nil {
		return err
	}
	var loan models.Loan
	if err := s.DB.WithContext(ctx).Where("is_deleted = ?", false).First(&loan, loanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("loan %d not found", loanID)
		}
		return apperr.Internal("load loan", err)
	}
	now := s.Now()
	if err := s.DB.WithContext(ctx).Model(&loan).Updates(map[string]any{
		"is_deleted": true,
		"deleted_at": &now,
	}).Error; err != nil {
		return apperr.Internal("delete loan", err)
	}
	s.Audit.Record(ctx, sectionFinance, models.ActionDelete, "loan", loan.ID, map[string]any{
		"total_amount": loan.TotalAmount.String(),
	})
	return nil
}

// Reschedule moves issue/due dates and recomputes the duration from the new
// delta. Manager-only; the gate enforces that before the handler gets here.
func (s *LoanService) Reschedule(ctx context.Context, loanID uint, issueDate, dueDate time.Time) (*models.Loan, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.IsManager() {
		return nil, apperr.Permissionf("only managers may edit loan dates")
	}
	issue, due := dateOnly(issueDate), dateOnly(dueDate)
	if !due.After(issue) {
		return nil, apperr.Validationf("due date must be after issue date")
	}
	var loan models.Loan
	if err := s.DB.WithContext(ctx).Where("is_deleted = ?", false).First(&loan, loanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("loan %d not found", loanID)
		}
		return nil, apperr.Internal("load loan", err)
	}
	weeks := int(due.Sub(issue).Hours() / (24 * 7))
	if weeks < 1 {
		weeks = 1
	}
	oldIssue, oldDue := loan.IssueDate, loan.DueDate
	loan.IssueDate, loan.DueDate, loan.DurationWeeks = issue, due, weeks
	if err := s.DB.WithContext(ctx).Model(&loan).Updates(map[string]any{
		"issue_date":     issue,
		"due_date":       due,
		"duration_weeks": weeks,
	}).Error; err != nil {
		return nil, apperr.Internal("reschedule loan", err)
	}
	s.Audit.Record(ctx, sectionFinance, models.ActionUpdate, "loan", loan.ID, map[string]any{
		"old_issue_date": oldIssue.Format("2006-01-02"),
		"old_due_date":   oldDue.Format("2006-01-02"),
		"issue_date":     issue.Format("2006-01-02"),
		"due_date":       due.Format("2006-01-02"),
		"duration_weeks": weeks,
	})
	return &loan, nil
}

// List refreshes loan statuses opportunistically, then returns the book.
// There is no background sweep; an overdue loan shows overdue the moment
// anything reads the list.
func (s *LoanService) List(ctx context.Context) ([]models.Loan, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	if err := s.RefreshStatuses(ctx); err != nil {
		return nil, err
	}
	var loans []models.Loan
	if err := s.DB.WithContext(ctx).
		Where("is_deleted = ?", false).
		Preload("Client").
		Order("issue_date DESC, id DESC").
		Find(&loans).Error; err != nil {
		return nil, apperr.Internal("list loans", err)
	}
	return loans, nil
}

// RefreshStatuses flips active/due_soon loans past their due date to overdue
// and active loans inside the due-soon window to due_soon. Paid and renewed
// loans are never touched.
func (s *LoanService) RefreshStatuses(ctx context.Context) error {
	today := dateOnly(s.Now())
	soon := today.Add(dueSoonWindow)
	err := s.DB.WithContext(ctx).Model(&models.Loan{}).
		Where("is_deleted = ? AND status IN ? AND due_date < ? AND balance > 0",
			false, []models.LoanStatus{models.LoanActive, models.LoanDueSoon}, today).
		Update("status", models.LoanOverdue).Error
	if err != nil {
		return apperr.Internal("refresh overdue loans", err)
	}
	err = s.DB.WithContext(ctx).Model(&models.Loan{}).
		Where("is_deleted = ? AND status = ? AND due_date >= ? AND due_date < ? AND balance > 0",
			false, models.LoanActive, today, soon).
		Update("status", models.LoanDueSoon).Error
	if err != nil {
		return apperr.Internal("refresh due-soon loans", err)
	}
	return nil
}

func (s *LoanService) Get(ctx context.Context, loanID uint) (*models.Loan, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	var loan models.Loan
	err := s.DB.WithContext(ctx).
		Preload("Client").
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_deleted = ?", false).Order("payment_date DESC")
		}).
		Preload("Documents", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_deleted = ?", false)
		}).
		Where("is_deleted = ?", false).
		First(&loan, loanID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("loan %d not found", loanID)
	}
	if err != nil {
		return nil, apperr.Internal("load loan", err)
	}
	return &loan, nil
}

// AttachDocument records a stored document reference against a loan. The
// bytes live with the storage collaborator; only the key is kept here.
func (s *LoanService) AttachDocument(ctx context.Context, loanID uint, filename, storageKey, fileType string) (*models.LoanDocument, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(filename) == "" || strings.TrimSpace(storageKey) == "" {
		return nil, apperr.Validationf("filename and storage key are required")
	}
	var loan models.Loan
	if err := s.DB.WithContext(ctx).Where("is_deleted = ?", false).First(&loan, loanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("loan %d not found", loanID)
		}
		return nil, apperr.Internal("load loan", err)
	}
	doc := models.LoanDocument{
		LoanID:     &loan.ID,
		Filename:   filename,
		StorageKey: storageKey,
		FileType:   fileType,
	}
	if err := s.DB.WithContext(ctx).Create(&doc).Error; err != nil {
		return nil, apperr.Internal("attach document", err)
	}
	s.Audit.Record(ctx, sectionFinance, models.ActionCreate, "loan_document", doc.ID,
		map[string]any{"loan_id": loan.ID, "filename": filename})
	return &doc, nil
}
