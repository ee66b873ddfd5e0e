package models

// Closed variants for fields the database stores as short strings.
// Anything arriving from the outside goes through the Valid() checks
// before it is written.

type BusinessType string

const (
	BusinessBoutique BusinessType = "boutique"
	BusinessHardware BusinessType = "hardware"
)

func (b BusinessType) Valid() bool {
	return b == BusinessBoutique || b == BusinessHardware
}

// ReferencePrefix returns the sale reference prefix for the business.
func (b BusinessType) ReferencePrefix() string {
	if b == BusinessHardware {
		return "DNV-H-"
	}
	return "DNV-B-"
}

type PaymentType string

const (
	PaymentFull PaymentType = "full"
	PaymentPart PaymentType = "part"
)

func (p PaymentType) Valid() bool {
	return p == PaymentFull || p == PaymentPart
}

type LoanStatus string

const (
	LoanActive  LoanStatus = "active"
	LoanDueSoon LoanStatus = "due_soon"
	LoanOverdue LoanStatus = "overdue"
	LoanPaid    LoanStatus = "paid"
	LoanRenewed LoanStatus = "renewed"
)

type PeriodType string

const (
	PeriodWeekly    PeriodType = "weekly"
	PeriodBiWeekly  PeriodType = "bi-weekly"
	PeriodMonthly   PeriodType = "monthly"
	PeriodBiMonthly PeriodType = "bi-monthly"
)

func (p PeriodType) Valid() bool {
	switch p {
	case PeriodWeekly, PeriodBiWeekly, PeriodMonthly, PeriodBiMonthly:
		return true
	}
	return false
}

// Days is the repayment interval used for due-date arithmetic.
func (p PeriodType) Days() int {
	switch p {
	case PeriodWeekly:
		return 7
	case PeriodBiWeekly:
		return 14
	case PeriodBiMonthly:
		return 60
	default:
		return 30
	}
}

type Role string

const (
	RoleManager  Role = "manager"
	RoleBoutique Role = "boutique"
	RoleHardware Role = "hardware"
	RoleFinance  Role = "finance"
)

func (r Role) Valid() bool {
	switch r {
	case RoleManager, RoleBoutique, RoleHardware, RoleFinance:
		return true
	}
	return false
}

type AuditAction string

const (
	ActionCreate AuditAction = "create"
	ActionUpdate AuditAction = "update"
	ActionAdjust AuditAction = "adjust"
	ActionDelete AuditAction = "delete"
	ActionLogin  AuditAction = "login"
)
