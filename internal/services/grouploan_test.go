package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/apperr"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/models"
)

func newGroupLoanService(t *testing.T) *GroupLoanService {
	t.Helper()
	db := setupTestDB(t)
	log := quietLogger()
	return NewGroupLoanService(db, log, NewAuditService(db, log))
}

func TestCreateGroupLoanSplitsPeriods(t *testing.T) {
	svc := newGroupLoanService(t)
	issue := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	group, err := svc.Create(managerCtx(), CreateGroupLoanInput{
		GroupName:    "Kyebando Women",
		MemberCount:  12,
		Principal:    decimal.NewFromInt(1200000),
		InterestRate: decimal.NewFromInt(10),
		TotalPeriods: 4,
		PeriodType:   models.PeriodMonthly,
		IssueDate:    issue,
	})
	if err != nil {
		t.Fatalf("create group loan: %v", err)
	}

	if !group.TotalAmount.Equal(decimal.NewFromInt(1320000)) {
		t.Fatalf("total: got %s want 1320000", group.TotalAmount)
	}
	if !group.AmountPerPeriod.Equal(decimal.NewFromInt(330000)) {
		t.Fatalf("per period: got %s want 330000", group.AmountPerPeriod)
	}
	wantDue := issue.AddDate(0, 0, 30*4)
	if !group.DueDate.Equal(wantDue) {
		t.Fatalf("due date: got %s want %s", group.DueDate, wantDue)
	}
}

func TestGroupLoanPeriodDays(t *testing.T) {
	cases := []struct {
		period models.PeriodType
		days   int
	}{
		{models.PeriodWeekly, 7},
		{models.PeriodBiWeekly, 14},
		{models.PeriodMonthly, 30},
		{models.PeriodBiMonthly, 60},
	}
	for _, c := range cases {
		if got := c.period.Days(); got != c.days {
			t.Errorf("%s: got %d days want %d", c.period, got, c.days)
		}
	}
}

func TestGroupLoanPaymentCoversPeriods(t *testing.T) {
	svc := newGroupLoanService(t)

	group, err := svc.Create(managerCtx(), CreateGroupLoanInput{
		GroupName:    "Boda Stage",
		MemberCount:  5,
		Principal:    decimal.NewFromInt(400000),
		InterestRate: decimal.NewFromInt(0),
		TotalPeriods: 4,
		PeriodType:   models.PeriodWeekly,
		IssueDate:    time.Now(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	p, err := svc.RecordPayment(managerCtx(), group.ID, decimal.NewFromInt(200000), 2, time.Now(), "")
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if p.PeriodsCovered != 2 {
		t.Fatalf("periods covered: got %d", p.PeriodsCovered)
	}

	reloaded, err := svc.Get(managerCtx(), group.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.PeriodsPaid != 2 {
		t.Fatalf("periods paid: got %d want 2", reloaded.PeriodsPaid)
	}
	if !reloaded.Balance.Equal(decimal.NewFromInt(200000)) {
		t.Fatalf("balance: got %s want 200000", reloaded.Balance)
	}

	// paying the rest closes it; declared periods are capped at the total
	if _, err := svc.RecordPayment(managerCtx(), group.ID, decimal.NewFromInt(200000), 5, time.Now(), ""); err != nil {
		t.Fatalf("payment 2: %v", err)
	}
	reloaded, _ = svc.Get(managerCtx(), group.ID)
	if reloaded.Status != models.LoanPaid {
		t.Fatalf("status: got %s want paid", reloaded.Status)
	}
	if reloaded.PeriodsPaid != 4 {
		t.Fatalf("periods paid must cap at total: got %d", reloaded.PeriodsPaid)
	}

	_, err = svc.RecordPayment(managerCtx(), group.ID, decimal.NewFromInt(1), 1, time.Now(), "")
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict on paid group loan, got %v", err)
	}
}

func TestGroupLoanOverdueRefresh(t *testing.T) {
	svc := newGroupLoanService(t)

	group, err := svc.Create(managerCtx(), CreateGroupLoanInput{
		GroupName:    "Market Vendors",
		MemberCount:  8,
		Principal:    decimal.NewFromInt(800000),
		InterestRate: decimal.NewFromInt(10),
		TotalPeriods: 2,
		PeriodType:   models.PeriodWeekly,
		IssueDate:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// due Jan 15; read the book well after that
	svc.Now = fixedNow(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	groups, err := svc.List(managerCtx())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(groups) != 1 || groups[0].ID != group.ID {
		t.Fatalf("unexpected book: %d groups", len(groups))
	}
	if groups[0].Status != models.LoanOverdue {
		t.Fatalf("status: got %s want overdue", groups[0].Status)
	}
}

func TestGroupLoanOverBalanceRejected(t *testing.T) {
	svc := newGroupLoanService(t)

	group, err := svc.Create(managerCtx(), CreateGroupLoanInput{
		GroupName:    "Savings Circle",
		Principal:    decimal.NewFromInt(100000),
		InterestRate: decimal.NewFromInt(0),
		TotalPeriods: 2,
		PeriodType:   models.PeriodMonthly,
		IssueDate:    time.Now(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = svc.RecordPayment(managerCtx(), group.ID, decimal.NewFromInt(100001), 1, time.Now(), "")
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}
