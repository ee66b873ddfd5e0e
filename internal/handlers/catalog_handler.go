package handlers

import (
	"net/http"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/gate"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/httpx"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/models"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/services"
)

type CatalogHandler struct {
	Svc  *services.CatalogService
	Gate *gate.Gate
}

func NewCatalogHandler(svc *services.CatalogService, g *gate.Gate) *CatalogHandler {
	return &CatalogHandler{Svc: svc, Gate: g}
}

type addCategoryRequest struct {
	Name string `json:"name" validate:"required"`
}

func (h *CatalogHandler) AddCategory(business models.BusinessType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorOr403(w, r)
		if !ok {
			return
		}
		if err := h.Gate.Authorize(actor, gate.ActionCreate, gate.ForBusiness(business)); err != nil {
			httpx.Error(w, err)
			return
		}
		var req addCategoryRequest
		if err := decodeJSON(r, &req); err != nil {
			httpx.Error(w, err)
			return
		}
		cat, err := h.Svc.AddCategory(r.Context(), business, req.Name)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, cat)
	}
}

func (h *CatalogHandler) ListCategories(business models.BusinessType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorOr403(w, r)
		if !ok {
			return
		}
		if err := h.Gate.Authorize(actor, gate.ActionView, gate.ForBusiness(business)); err != nil {
			httpx.Error(w, err)
			return
		}
		cats, err := h.Svc.ListCategories(r.Context(), business)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"categories": cats, "total": len(cats)})
	}
}

type addCustomerRequest struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address"`
	NIN     string `json:"nin"`
}

func (h *CatalogHandler) AddCustomer(business models.BusinessType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorOr403(w, r)
		if !ok {
			return
		}
		if err := h.Gate.Authorize(actor, gate.ActionCreate, gate.ForBusiness(business)); err != nil {
			httpx.Error(w, err)
			return
		}
		var req addCustomerRequest
		if err := decodeJSON(r, &req); err != nil {
			httpx.Error(w, err)
			return
		}
		c, err := h.Svc.AddCustomer(r.Context(), services.AddCustomerInput{
			Name:         req.Name,
			Phone:        req.Phone,
			Address:      req.Address,
			NIN:          req.NIN,
			BusinessType: business,
		})
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, c)
	}
}

func (h *CatalogHandler) ListCustomers(business models.BusinessType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorOr403(w, r)
		if !ok {
			return
		}
		if err := h.Gate.Authorize(actor, gate.ActionView, gate.ForBusiness(business)); err != nil {
			httpx.Error(w, err)
			return
		}
		customers, err := h.Svc.ListCustomers(r.Context(), business)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"customers": customers, "total": len(customers)})
	}
}
