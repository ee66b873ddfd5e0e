package handlers

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/gate"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/httpx"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/models"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/services"
)

type StockHandler struct {
	Svc  *services.StockService
	Gate *gate.Gate
}

func NewStockHandler(svc *services.StockService, g *gate.Gate) *StockHandler {
	return &StockHandler{Svc: svc, Gate: g}
}

type addStockRequest struct {
	ItemName        string          `json:"item_name" validate:"required"`
	CategoryID      *uint           `json:"category_id"`
	Branch          string          `json:"branch"`
	InitialQuantity int             `json:"initial_quantity" validate:"min=0"`
	Unit            string          `json:"unit"`
	CostPrice       decimal.Decimal `json:"cost_price"`
	MinSellingPrice decimal.Decimal `json:"min_selling_price"`
	MaxSellingPrice decimal.Decimal `json:"max_selling_price"`
	Threshold       *int            `json:"low_stock_threshold"`
	ImageURL        string          `json:"image_url"`
}

func (h *StockHandler) Add(business models.BusinessType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorOr403(w, r)
		if !ok {
			return
		}
		if err := h.Gate.Authorize(actor, gate.ActionCreate, gate.ForBusiness(business)); err != nil {
			httpx.Error(w, err)
			return
		}
		var req addStockRequest
		if err := decodeJSON(r, &req); err != nil {
			httpx.Error(w, err)
			return
		}
		item, err := h.Svc.AddItem(r.Context(), services.AddStockInput{
			BusinessType:    business,
			ItemName:        req.ItemName,
			CategoryID:      req.CategoryID,
			Branch:          req.Branch,
			InitialQuantity: req.InitialQuantity,
			Unit:            req.Unit,
			CostPrice:       req.CostPrice,
			MinSellingPrice: req.MinSellingPrice,
			MaxSellingPrice: req.MaxSellingPrice,
			Threshold:       req.Threshold,
			ImageURL:        req.ImageURL,
		})
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, item)
	}
}

func (h *StockHandler) List(business models.BusinessType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorOr403(w, r)
		if !ok {
			return
		}
		if err := h.Gate.Authorize(actor, gate.ActionView, gate.ForBusiness(business)); err != nil {
			httpx.Error(w, err)
			return
		}
		in := services.ListStockInput{BusinessType: business}
		q := r.URL.Query()
		in.IncludeInactive = q.Get("show_inactive") == "true"
		in.LowStockOnly = q.Get("low_stock") == "true"
		if raw := q.Get("category_id"); raw != "" {
			if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
				cid := uint(id)
				in.CategoryID = &cid
			}
		}
		items, err := h.Svc.List(r.Context(), in)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
	}
}

type updateStockRequest struct {
	ItemName        *string          `json:"item_name"`
	CategoryID      *uint            `json:"category_id"`
	Unit            *string          `json:"unit"`
	CostPrice       *decimal.Decimal `json:"cost_price"`
	MinSellingPrice *decimal.Decimal `json:"min_selling_price"`
	MaxSellingPrice *decimal.Decimal `json:"max_selling_price"`
	Threshold       *int             `json:"low_stock_threshold"`
	ImageURL        *string          `json:"image_url"`
	IsActive        *bool            `json:"is_active"`
}

func (h *StockHandler) Update(business models.BusinessType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorOr403(w, r)
		if !ok {
			return
		}
		if err := h.Gate.Authorize(actor, gate.ActionUpdate, gate.ForBusiness(business)); err != nil {
			httpx.Error(w, err)
			return
		}
		id, err := idParam(r)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		var req updateStockRequest
		if err := decodeJSON(r, &req); err != nil {
			httpx.Error(w, err)
			return
		}
		item, err := h.Svc.UpdateItem(r.Context(), business, id, services.UpdateStockInput{
			ItemName:        req.ItemName,
			CategoryID:      req.CategoryID,
			Unit:            req.Unit,
			CostPrice:       req.CostPrice,
			MinSellingPrice: req.MinSellingPrice,
			MaxSellingPrice: req.MaxSellingPrice,
			Threshold:       req.Threshold,
			ImageURL:        req.ImageURL,
			IsActive:        req.IsActive,
		})
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, item)
	}
}

type adjustStockRequest struct {
	Adjustment int `json:"adjustment" validate:"required"`
}

func (h *StockHandler) Adjust(business models.BusinessType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorOr403(w, r)
		if !ok {
			return
		}
		if err := h.Gate.Authorize(actor, gate.ActionUpdate, gate.ForBusiness(business)); err != nil {
			httpx.Error(w, err)
			return
		}
		id, err := idParam(r)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		var req adjustStockRequest
		if err := decodeJSON(r, &req); err != nil {
			httpx.Error(w, err)
			return
		}
		item, err := h.Svc.Adjust(r.Context(), business, id, req.Adjustment)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, item)
	}
}

func (h *StockHandler) Deactivate(business models.BusinessType) http.HandlerFunc {
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
		if err := h.Svc.Deactivate(r.Context(), business, id); err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
	}
}

func (h *StockHandler) HardDelete(business models.BusinessType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorOr403(w, r)
		if !ok {
			return
		}
		if err := h.Gate.Authorize(actor, gate.ActionHardDelete, gate.ForBusiness(business)); err != nil {
			httpx.Error(w, err)
			return
		}
		id, err := idParam(r)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		if err := h.Svc.HardDelete(r.Context(), business, id); err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
