package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/apperr"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/gate"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/httpx"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/services"
)

// LoanHandler is the HTTP surface for individual microloans and their
// clients. All finance endpoints sit under the finance gate section.
type LoanHandler struct {
	Svc  *services.LoanService
	Gate *gate.Gate
	// UploadDir is where attached loan documents land on disk.
	UploadDir string
}

func NewLoanHandler(svc *services.LoanService, g *gate.Gate, uploadDir string) *LoanHandler {
	return &LoanHandler{Svc: svc, Gate: g, UploadDir: uploadDir}
}

func (h *LoanHandler) authorize(w http.ResponseWriter, r *http.Request, action gate.Action) bool {
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

type addClientRequest struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	NIN     string `json:"nin"`
	Address string `json:"address"`
}

func (h *LoanHandler) AddClient(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, gate.ActionCreate) {
		return
	}
	var req addClientRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	client, err := h.Svc.AddClient(r.Context(), services.AddClientInput{
		Name:    req.Name,
		Phone:   req.Phone,
		NIN:     req.NIN,
		Address: req.Address,
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, client)
}

func (h *LoanHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, gate.ActionView) {
		return
	}
	clients, err := h.Svc.ListClients(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"clients": clients, "total": len(clients)})
}

type createLoanRequest struct {
	ClientID      uint            `json:"client_id" validate:"required"`
	Principal     decimal.Decimal `json:"principal"`
	InterestRate  decimal.Decimal `json:"interest_rate"`
	DurationWeeks int             `json:"duration_weeks" validate:"required,min=1"`
	IssueDate     string          `json:"issue_date"`
}

func (h *LoanHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, gate.ActionCreate) {
		return
	}
	var req createLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	issue, err := services.ParseDate(req.IssueDate, h.Svc.Now)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	loan, err := h.Svc.Create(r.Context(), services.CreateLoanInput{
		ClientID:      req.ClientID,
		Principal:     req.Principal,
		InterestRate:  req.InterestRate,
		DurationWeeks: req.DurationWeeks,
		IssueDate:     issue,
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, loan)
}

func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, gate.ActionView) {
		return
	}
	loans, err := h.Svc.List(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"loans": loans, "total": len(loans)})
}

func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, gate.ActionView) {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	loan, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, loan)
}

type loanPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"payment_date"`
	Notes       string          `json:"notes"`
}

func (h *LoanHandler) Pay(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, gate.ActionPay) {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var req loanPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	date, err := services.ParseDate(req.PaymentDate, h.Svc.Now)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	payment, err := h.Svc.RecordPayment(r.Context(), id, req.Amount, date, req.Notes)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *LoanHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

type rescheduleRequest struct {
	IssueDate string `json:"issue_date" validate:"required"`
	DueDate   string `json:"due_date" validate:"required"`
}

func (h *LoanHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, gate.ActionReschedule) {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var req rescheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	issue, err := services.ParseDate(req.IssueDate, h.Svc.Now)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	due, err := services.ParseDate(req.DueDate, h.Svc.Now)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	loan, err := h.Svc.Reschedule(r.Context(), id, issue, due)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, loan)
}

const maxDocumentSize = 10 << 20

// UploadDocument accepts a multipart file and stores it under UploadDir with
// a uuid-prefixed name so client filenames never collide.
func (h *LoanHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, gate.ActionCreate) {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if err := r.ParseMultipartForm(maxDocumentSize); err != nil {
		httpx.Error(w, apperr.Validationf("invalid multipart form: %s", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Error(w, apperr.Validationf("file field is required"))
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf", ".png", ".jpg", ".jpeg", ".doc", ".docx":
	default:
		httpx.Error(w, apperr.Validationf("file type %q is not allowed", ext))
		return
	}

	storageKey := fmt.Sprintf("%s_%s", uuid.NewString(), filename)
	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		httpx.Error(w, apperr.Internal("create upload dir", err))
		return
	}
	dst, err := os.Create(filepath.Join(h.UploadDir, storageKey))
	if err != nil {
		httpx.Error(w, apperr.Internal("store document", err))
		return
	}
	defer dst.Close()
	if _, err := io.Copy(dst, io.LimitReader(file, maxDocumentSize)); err != nil {
		httpx.Error(w, apperr.Internal("store document", err))
		return
	}

	doc, err := h.Svc.AttachDocument(r.Context(), id, filename, storageKey, strings.TrimPrefix(ext, "."))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}
