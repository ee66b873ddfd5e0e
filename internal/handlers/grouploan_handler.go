package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/gate"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/httpx"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/models"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/services"
)

type GroupLoanHandler struct {
	Svc  *services.GroupLoanService
	Gate *gate.Gate
}

func NewGroupLoanHandler(svc *services.GroupLoanService, g *gate.Gate) *GroupLoanHandler {
	return &GroupLoanHandler{Svc: svc, Gate: g}
}

func (h *GroupLoanHandler) authorize(w http.ResponseWriter, r *http.Request, action gate.Action) bool {
	actor, ok := actorOr403(w, r)
	if !ok {
		return false
	}
	if err := h.Gate.Authorize(actor, action, gate.SectionFinance); err != nil {
		httpx.Error(w, err)
		return false
	}
	return true
}

type createGroupLoanRequest struct {
	GroupName    string          `json:"group_name" validate:"required"`
	MemberCount  int             `json:"member_count"`
	Principal    decimal.Decimal `json:"principal"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	TotalPeriods int             `json:"total_periods" validate:"required,min=1"`
	PeriodType   string          `json:"period_type" validate:"required"`
	IssueDate    string          `json:"issue_date"`
}

func (h *GroupLoanHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, gate.ActionCreate) {
		return
	}
	var req createGroupLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	issue, err := services.ParseDate(req.IssueDate, h.Svc.Now)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	group, err := h.Svc.Create(r.Context(), services.CreateGroupLoanInput{
		GroupName:    req.GroupName,
		MemberCount:  req.MemberCount,
		Principal:    req.Principal,
		InterestRate: req.InterestRate,
		TotalPeriods: req.TotalPeriods,
		PeriodType:   models.PeriodType(req.PeriodType),
		IssueDate:    issue,
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, group)
}

func (h *GroupLoanHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, gate.ActionView) {
		return
	}
	groups, err := h.Svc.List(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"group_loans": groups, "total": len(groups)})
}

func (h *GroupLoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, gate.ActionView) {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	group, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, group)
}

type groupPaymentRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	PeriodsCovered int             `json:"periods_covered"`
	PaymentDate    string          `json:"payment_date"`
	Notes          string          `json:"notes"`
}

func (h *GroupLoanHandler) Pay(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, gate.ActionPay) {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var req groupPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	date, err := services.ParseDate(req.PaymentDate, h.Svc.Now)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	payment, err := h.Svc.RecordPayment(r.Context(), id, req.Amount, req.PeriodsCovered, date, req.Notes)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *GroupLoanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, gate.ActionDelete) {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
