package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanClient is a microloan borrower. Kept separate from retail customers;
// the finance section has its own client book.
type LoanClient struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	NIN       string    `gorm:"size:20" json:"nin,omitempty"`
	Phone     string    `gorm:"size:20;not null" json:"phone"`
	Address   string    `gorm:"size:200" json:"address,omitempty"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Loan is an individual microloan. InterestAmount and TotalAmount are fixed
// at issue; Balance decreases as payments land and Status follows it.
type Loan struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	ClientID       uint            `gorm:"not null;index" json:"client_id"`
	Client         *LoanClient     `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Principal      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"principal"`
	InterestRate   decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"interest_rate"`
	InterestAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"interest_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	AmountPaid     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount_paid"`
	Balance        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance"`
	DurationWeeks  int             `gorm:"not null" json:"duration_weeks"`
	IssueDate      time.Time       `gorm:"type:date;not null" json:"issue_date"`
	DueDate        time.Time       `gorm:"type:date;not null" json:"due_date"`
	Status         LoanStatus      `gorm:"size:20;default:active" json:"status"`
	IsDeleted      bool            `gorm:"default:false;index" json:"is_deleted"`
	DeletedAt      *time.Time      `json:"deleted_at,omitempty"`
	Payments       []LoanPayment   `gorm:"foreignKey:LoanID" json:"payments,omitempty"`
	Documents      []LoanDocument  `gorm:"foreignKey:LoanID" json:"documents,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type LoanPayment struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	LoanID       uint            `gorm:"not null;index" json:"loan_id"`
	PaymentDate  time.Time       `gorm:"type:date;not null" json:"payment_date"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	BalanceAfter decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance_after"`
	Notes        string          `gorm:"size:200" json:"notes,omitempty"`
	IsDeleted    bool            `gorm:"default:false" json:"is_deleted"`
	CreatedAt    time.Time       `json:"created_at"`
}

// LoanDocument points at a stored security document (agreement, collateral
// photo). Only the storage reference lives here; bytes are the storage
// collaborator's problem.
type LoanDocument struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	LoanID      *uint     `gorm:"index" json:"loan_id,omitempty"`
	GroupLoanID *uint     `gorm:"index" json:"group_loan_id,omitempty"`
	Filename    string    `gorm:"size:255;not null" json:"filename"`
	StorageKey  string    `gorm:"size:512;not null" json:"-"`
	FileType    string    `gorm:"size:50" json:"file_type,omitempty"`
	IsDeleted   bool      `gorm:"default:false" json:"is_deleted"`
	CreatedAt   time.Time `json:"created_at"`
}

// GroupLoan is a loan issued to a group repaying in fixed periods.
type GroupLoan struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	GroupName       string            `gorm:"size:100;not null" json:"group_name"`
	MemberCount     int               `gorm:"not null" json:"member_count"`
	Principal       decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"principal"`
	InterestRate    decimal.Decimal   `gorm:"type:decimal(5,2);not null" json:"interest_rate"`
	InterestAmount  decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"interest_amount"`
	TotalAmount     decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	AmountPerPeriod decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"amount_per_period"`
	TotalPeriods    int               `gorm:"not null" json:"total_periods"`
	PeriodType      PeriodType        `gorm:"size:20;default:monthly" json:"period_type"`
	PeriodsPaid     int               `gorm:"default:0" json:"periods_paid"`
	AmountPaid      decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"amount_paid"`
	Balance         decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"balance"`
	IssueDate       time.Time         `gorm:"type:date" json:"issue_date"`
	DueDate         time.Time         `gorm:"type:date" json:"due_date"`
	Status          LoanStatus        `gorm:"size:20;default:active" json:"status"`
	IsDeleted       bool              `gorm:"default:false;index" json:"is_deleted"`
	Payments        []GroupLoanPayment `gorm:"foreignKey:GroupLoanID" json:"payments,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// GroupLoanPayment carries PeriodsCovered because a lump sum can discharge
// several periods; the caller declares how many, it is not derived.
type GroupLoanPayment struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	GroupLoanID    uint            `gorm:"not null;index" json:"group_loan_id"`
	PaymentDate    time.Time       `gorm:"type:date;not null" json:"payment_date"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PeriodsCovered int             `gorm:"default:1" json:"periods_covered"`
	BalanceAfter   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance_after"`
	Notes          string          `gorm:"size:200" json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
