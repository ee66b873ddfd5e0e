package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/apperr"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/models"
)

func newSaleFixture(t *testing.T) (*SaleService, *StockService) {
	t.Helper()
	db := setupTestDB(t)
	log := quietLogger()
	audit := NewAuditService(db, log)
	return NewSaleService(db, log, audit), NewStockService(db, log, audit)
}

func seedStock(t *testing.T, stock *StockService, business models.BusinessType, name string, qty int, min, max int64) *models.StockItem {
	t.Helper()
	item, err := stock.AddItem(managerCtx(), AddStockInput{
		BusinessType:    business,
		ItemName:        name,
		InitialQuantity: qty,
		MinSellingPrice: decimal.NewFromInt(min),
		MaxSellingPrice: decimal.NewFromInt(max),
	})
	if err != nil {
		t.Fatalf("seed stock %s: %v", name, err)
	}
	return item
}

func TestCreateSaleFullPayment(t *testing.T) {
	sales, stock := newSaleFixture(t)
	shirts := seedStock(t, stock, models.BusinessBoutique, "Shirt", 10, 500, 1500)
	shoes := seedStock(t, stock, models.BusinessBoutique, "Shoes", 10, 200, 800)

	sale, err := sales.Create(managerCtx(), CreateSaleInput{
		BusinessType: models.BusinessBoutique,
		SaleDate:     time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		PaymentType:  models.PaymentFull,
		Items: []SaleItemInput{
			{StockID: &shirts.ID, Quantity: 3, UnitPrice: decimal.NewFromInt(1000)},
			{StockID: &shoes.ID, Quantity: 2, UnitPrice: decimal.NewFromInt(500)},
		},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	if !sale.TotalAmount.Equal(decimal.NewFromInt(4000)) {
		t.Fatalf("total: got %s want 4000", sale.TotalAmount)
	}
	if !sale.AmountPaid.Equal(sale.TotalAmount) {
		t.Fatalf("full sale must be paid in full, got %s", sale.AmountPaid)
	}
	if !sale.Balance.IsZero() || !sale.IsCreditCleared {
		t.Fatalf("full sale must clear immediately: balance=%s cleared=%v", sale.Balance, sale.IsCreditCleared)
	}
	if sale.ReferenceNumber != "DNV-B-00001" {
		t.Fatalf("reference: got %s", sale.ReferenceNumber)
	}

	got, err := stock.Get(managerCtx(), models.BusinessBoutique, shirts.ID)
	if err != nil {
		t.Fatalf("reload stock: %v", err)
	}
	if got.Quantity != 7 {
		t.Fatalf("shirts after sale: got %d want 7", got.Quantity)
	}
}

func TestCreateSalePartPaymentAndClear(t *testing.T) {
	sales, stock := newSaleFixture(t)
	item := seedStock(t, stock, models.BusinessHardware, "Iron Sheets", 50, 1000, 120000)

	sale, err := sales.Create(managerCtx(), CreateSaleInput{
		BusinessType:  models.BusinessHardware,
		PaymentType:   models.PaymentPart,
		CustomerName:  "Okello James",
		CustomerPhone: "0772000001",
		AmountPaid:    decimal.NewFromInt(20000),
		Items: []SaleItemInput{
			{StockID: &item.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(100000)},
		},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if !sale.Balance.Equal(decimal.NewFromInt(80000)) {
		t.Fatalf("balance: got %s want 80000", sale.Balance)
	}
	if sale.IsCreditCleared {
		t.Fatalf("part sale with balance must not be cleared")
	}
	if sale.CustomerID == nil {
		t.Fatalf("part sale must create its customer")
	}

	payment, err := sales.RecordPayment(managerCtx(), models.BusinessHardware, sale.ID,
		decimal.NewFromInt(80000), time.Now())
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if !payment.RemainingBalance.IsZero() {
		t.Fatalf("remaining: got %s want 0", payment.RemainingBalance)
	}

	reloaded, err := sales.Get(managerCtx(), models.BusinessHardware, sale.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reloaded.IsCreditCleared || !reloaded.Balance.IsZero() {
		t.Fatalf("sale should be cleared: balance=%s", reloaded.Balance)
	}

	// further payments land on a cleared sale
	_, err = sales.RecordPayment(managerCtx(), models.BusinessHardware, sale.ID,
		decimal.NewFromInt(1), time.Now())
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict on cleared sale, got %v", err)
	}
}

func TestRecordPaymentOverBalanceRejected(t *testing.T) {
	sales, stock := newSaleFixture(t)
	item := seedStock(t, stock, models.BusinessBoutique, "Gown", 5, 1000, 50000)

	sale, err := sales.Create(managerCtx(), CreateSaleInput{
		BusinessType:  models.BusinessBoutique,
		PaymentType:   models.PaymentPart,
		CustomerName:  "Amina",
		CustomerPhone: "0751000002",
		AmountPaid:    decimal.NewFromInt(10000),
		Items: []SaleItemInput{
			{StockID: &item.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(40000)},
		},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	_, err = sales.RecordPayment(managerCtx(), models.BusinessBoutique, sale.ID,
		decimal.NewFromInt(30001), time.Now())
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict on over-balance payment, got %v", err)
	}

	_, err = sales.RecordPayment(managerCtx(), models.BusinessBoutique, sale.ID,
		decimal.Zero, time.Now())
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation on zero payment, got %v", err)
	}
}

func TestRecordPaymentOnFullSaleRejected(t *testing.T) {
	sales, stock := newSaleFixture(t)
	item := seedStock(t, stock, models.BusinessBoutique, "Belt", 5, 100, 5000)

	sale, err := sales.Create(managerCtx(), CreateSaleInput{
		BusinessType: models.BusinessBoutique,
		PaymentType:  models.PaymentFull,
		Items: []SaleItemInput{
			{StockID: &item.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(3000)},
		},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	_, err = sales.RecordPayment(managerCtx(), models.BusinessBoutique, sale.ID,
		decimal.NewFromInt(100), time.Now())
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict on full-payment sale, got %v", err)
	}
}

func TestCreateSaleInsufficientStock(t *testing.T) {
	sales, stock := newSaleFixture(t)
	item := seedStock(t, stock, models.BusinessHardware, "Paint", 2, 100, 30000)

	_, err := sales.Create(managerCtx(), CreateSaleInput{
		BusinessType: models.BusinessHardware,
		PaymentType:  models.PaymentFull,
		Items: []SaleItemInput{
			{StockID: &item.ID, Quantity: 3, UnitPrice: decimal.NewFromInt(25000)},
		},
	})
	if apperr.KindOf(err) != apperr.KindInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	// the whole transaction rolled back: no sale rows, stock untouched
	var count int64
	sales.DB.Model(&models.Sale{}).Count(&count)
	if count != 0 {
		t.Fatalf("sale row persisted after rollback")
	}
	got, _ := stock.Get(managerCtx(), models.BusinessHardware, item.ID)
	if got.Quantity != 2 {
		t.Fatalf("stock decremented despite rollback: %d", got.Quantity)
	}
}

func TestCreateSalePriceRangePolicy(t *testing.T) {
	sales, stock := newSaleFixture(t)
	item := seedStock(t, stock, models.BusinessBoutique, "Kitenge", 10, 10000, 20000)

	// a worker cannot sell outside the configured range
	_, err := sales.Create(workerCtx(models.RoleBoutique, ""), CreateSaleInput{
		BusinessType: models.BusinessBoutique,
		PaymentType:  models.PaymentFull,
		Items: []SaleItemInput{
			{StockID: &item.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(5000)},
		},
	})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation for out-of-range price, got %v", err)
	}

	// a manager can
	if _, err := sales.Create(managerCtx(), CreateSaleInput{
		BusinessType: models.BusinessBoutique,
		PaymentType:  models.PaymentFull,
		Items: []SaleItemInput{
			{StockID: &item.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(5000)},
		},
	}); err != nil {
		t.Fatalf("manager override: %v", err)
	}
}

func TestCreateSaleAdHocItemSkipsInventory(t *testing.T) {
	sales, _ := newSaleFixture(t)

	sale, err := sales.Create(managerCtx(), CreateSaleInput{
		BusinessType: models.BusinessBoutique,
		PaymentType:  models.PaymentFull,
		Items: []SaleItemInput{
			{ItemName: "Gift Wrapping", Quantity: 1, UnitPrice: decimal.NewFromInt(2000)},
		},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if len(sale.Items) != 1 || !sale.Items[0].IsOtherItem {
		t.Fatalf("ad-hoc item not flagged")
	}
}

func TestDeleteSaleRestoresStockOnce(t *testing.T) {
	sales, stock := newSaleFixture(t)
	item := seedStock(t, stock, models.BusinessHardware, "Timber", 10, 100, 9000)

	sale, err := sales.Create(managerCtx(), CreateSaleInput{
		BusinessType: models.BusinessHardware,
		PaymentType:  models.PaymentFull,
		Items: []SaleItemInput{
			{StockID: &item.ID, Quantity: 4, UnitPrice: decimal.NewFromInt(8000)},
		},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	if err := sales.Delete(managerCtx(), models.BusinessHardware, sale.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ := stock.Get(managerCtx(), models.BusinessHardware, item.ID)
	if got.Quantity != 10 {
		t.Fatalf("stock after restore: got %d want 10", got.Quantity)
	}

	// deleting twice must not restore twice
	err = sales.Delete(managerCtx(), models.BusinessHardware, sale.ID)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict on double delete, got %v", err)
	}
	got, _ = stock.Get(managerCtx(), models.BusinessHardware, item.ID)
	if got.Quantity != 10 {
		t.Fatalf("stock restored twice: got %d", got.Quantity)
	}
}

func TestFindOrCreateCustomerMatchesByPhone(t *testing.T) {
	sales, stock := newSaleFixture(t)
	item := seedStock(t, stock, models.BusinessBoutique, "Bag", 10, 100, 90000)

	mk := func() *models.Sale {
		sale, err := sales.Create(managerCtx(), CreateSaleInput{
			BusinessType:  models.BusinessBoutique,
			PaymentType:   models.PaymentPart,
			CustomerName:  "Nansubuga",
			CustomerPhone: "0700111222",
			AmountPaid:    decimal.NewFromInt(1000),
			Items: []SaleItemInput{
				{StockID: &item.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(50000)},
			},
		})
		if err != nil {
			t.Fatalf("create sale: %v", err)
		}
		return sale
	}
	first, second := mk(), mk()
	if *first.CustomerID != *second.CustomerID {
		t.Fatalf("same phone must map to the same customer: %d vs %d", *first.CustomerID, *second.CustomerID)
	}
	var count int64
	sales.DB.Model(&models.Customer{}).Count(&count)
	if count != 1 {
		t.Fatalf("duplicate customers created: %d", count)
	}
}

func TestCreateSaleUnknownCustomerRejected(t *testing.T) {
	sales, stock := newSaleFixture(t)
	item := seedStock(t, stock, models.BusinessBoutique, "Blazer", 10, 100, 90000)

	missing := uint(9999)
	_, err := sales.Create(managerCtx(), CreateSaleInput{
		BusinessType: models.BusinessBoutique,
		PaymentType:  models.PaymentPart,
		CustomerID:   &missing,
		AmountPaid:   decimal.NewFromInt(1000),
		Items: []SaleItemInput{
			{StockID: &item.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(50000)},
		},
	})
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found for unknown customer, got %v", err)
	}

	// the whole transaction rolled back: no sale rows, stock untouched
	var count int64
	sales.DB.Model(&models.Sale{}).Count(&count)
	if count != 0 {
		t.Fatalf("sale row persisted despite unknown customer")
	}
	got, _ := stock.Get(managerCtx(), models.BusinessBoutique, item.ID)
	if got.Quantity != 10 {
		t.Fatalf("stock decremented despite rollback: %d", got.Quantity)
	}
}

func TestCreateSaleExistingCustomerAccepted(t *testing.T) {
	sales, stock := newSaleFixture(t)
	item := seedStock(t, stock, models.BusinessHardware, "Wheelbarrow", 5, 100, 200000)

	customer := models.Customer{Name: "Ssenyonga", Phone: "0701234567", BusinessType: models.BusinessHardware}
	if err := sales.DB.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	sale, err := sales.Create(managerCtx(), CreateSaleInput{
		BusinessType: models.BusinessHardware,
		PaymentType:  models.PaymentPart,
		CustomerID:   &customer.ID,
		AmountPaid:   decimal.NewFromInt(50000),
		Items: []SaleItemInput{
			{StockID: &item.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(150000)},
		},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if sale.CustomerID == nil || *sale.CustomerID != customer.ID {
		t.Fatalf("customer not attached: %v", sale.CustomerID)
	}
}

func TestPendingCredits(t *testing.T) {
	sales, stock := newSaleFixture(t)
	item := seedStock(t, stock, models.BusinessBoutique, "Coat", 10, 100, 90000)

	if _, err := sales.Create(managerCtx(), CreateSaleInput{
		BusinessType: models.BusinessBoutique,
		PaymentType:  models.PaymentFull,
		Items:        []SaleItemInput{{StockID: &item.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(30000)}},
	}); err != nil {
		t.Fatalf("full sale: %v", err)
	}
	if _, err := sales.Create(managerCtx(), CreateSaleInput{
		BusinessType:  models.BusinessBoutique,
		PaymentType:   models.PaymentPart,
		CustomerName:  "Peter",
		CustomerPhone: "0788999000",
		AmountPaid:    decimal.NewFromInt(5000),
		Items:         []SaleItemInput{{StockID: &item.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(30000)}},
	}); err != nil {
		t.Fatalf("part sale: %v", err)
	}

	credits, err := sales.PendingCredits(managerCtx(), models.BusinessBoutique)
	if err != nil {
		t.Fatalf("pending credits: %v", err)
	}
	if len(credits) != 1 {
		t.Fatalf("got %d pending credits, want 1", len(credits))
	}
	if !credits[0].Balance.Equal(decimal.NewFromInt(25000)) {
		t.Fatalf("credit balance: got %s want 25000", credits[0].Balance)
	}
}
