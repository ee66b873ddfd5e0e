package handlers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/gate"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/httpx"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/models"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/services"
)

type SaleHandler struct {
	Svc  *services.SaleService
	Gate *gate.Gate
}

func NewSaleHandler(svc *services.SaleService, g *gate.Gate) *SaleHandler {
	return &SaleHandler{Svc: svc, Gate: g}
}

type saleItemRequest struct {
	StockID   *uint           `json:"stock_id"`
	ItemName  string          `json:"item_name"`
	Quantity  int             `json:"quantity" validate:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type createSaleRequest struct {
	Branch        string            `json:"branch"`
	SaleDate      string            `json:"sale_date"`
	PaymentType   string            `json:"payment_type" validate:"required"`
	CustomerID    *uint             `json:"customer_id"`
	CustomerName  string            `json:"customer_name"`
	CustomerPhone string            `json:"customer_phone"`
	AmountPaid    decimal.Decimal   `json:"amount_paid"`
	Items         []saleItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (h *SaleHandler) Create(business models.BusinessType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorOr403(w, r)
		if !ok {
			return
		}
		if err := h.Gate.Authorize(actor, gate.ActionCreate, gate.ForBusiness(business)); err != nil {
			httpx.Error(w, err)
			return
		}
		var req createSaleRequest
		if err := decodeJSON(r, &req); err != nil {
			httpx.Error(w, err)
			return
		}
		saleDate, err := services.ParseDate(req.SaleDate, h.Svc.Now)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		in := services.CreateSaleInput{
			BusinessType:  business,
			Branch:        req.Branch,
			SaleDate:      saleDate,
			PaymentType:   models.PaymentType(req.PaymentType),
			CustomerID:    req.CustomerID,
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			AmountPaid:    req.AmountPaid,
		}
		for _, it := range req.Items {
			in.Items = append(in.Items, services.SaleItemInput{
				StockID:   it.StockID,
				ItemName:  it.ItemName,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
			})
		}
		sale, err := h.Svc.Create(r.Context(), in)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, sale)
	}
}

func (h *SaleHandler) List(business models.BusinessType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorOr403(w, r)
		if !ok {
			return
		}
		if err := h.Gate.Authorize(actor, gate.ActionView, gate.ForBusiness(business)); err != nil {
			httpx.Error(w, err)
			return
		}
		in := services.ListSalesInput{BusinessType: business}
		q := r.URL.Query()
		if raw := q.Get("start_date"); raw != "" {
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				httpx.JSONError(w, http.StatusBadRequest, "invalid start_date, want YYYY-MM-DD", nil)
				return
			}
			in.StartDate = &t
		}
		if raw := q.Get("end_date"); raw != "" {
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				httpx.JSONError(w, http.StatusBadRequest, "invalid end_date, want YYYY-MM-DD", nil)
				return
			}
			in.EndDate = &t
		}
		sales, err := h.Svc.List(r.Context(), in)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"sales": sales, "total": len(sales)})
	}
}

func (h *SaleHandler) Get(business models.BusinessType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorOr403(w, r)
		if !ok {
			return
		}
		if err := h.Gate.Authorize(actor, gate.ActionView, gate.ForBusiness(business)); err != nil {
			httpx.Error(w, err)
			return
		}
		id, err := idParam(r)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		sale, err := h.Svc.Get(r.Context(), business, id)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, sale)
	}
}

func (h *SaleHandler) Delete(business models.BusinessType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorOr403(w, r)
		if !ok {
			return
		}
		if err := h.Gate.Authorize(actor, gate.ActionDelete, gate.ForBusiness(business)); err != nil {
			httpx.Error(w, err)
			return
		}
		id, err := idParam(r)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		if err := h.Svc.Delete(r.Context(), business, id); err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func (h *SaleHandler) PendingCredits(business models.BusinessType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorOr403(w, r)
		if !ok {
			return
		}
		if err := h.Gate.Authorize(actor, gate.ActionView, gate.ForBusiness(business)); err != nil {
			httpx.Error(w, err)
			return
		}
		sales, err := h.Svc.PendingCredits(r.Context(), business)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"credits": sales, "total": len(sales)})
	}
}

type creditPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"payment_date"`
}

func (h *SaleHandler) PayCredit(business models.BusinessType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorOr403(w, r)
		if !ok {
			return
		}
		if err := h.Gate.Authorize(actor, gate.ActionPay, gate.ForBusiness(business)); err != nil {
			httpx.Error(w, err)
			return
		}
		id, err := idParam(r)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		var req creditPaymentRequest
		if err := decodeJSON(r, &req); err != nil {
			httpx.Error(w, err)
			return
		}
		date, err := services.ParseDate(req.PaymentDate, h.Svc.Now)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		payment, err := h.Svc.RecordPayment(r.Context(), business, id, req.Amount, date)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, payment)
	}
}
