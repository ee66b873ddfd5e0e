package handlers

import (
	"net/http"
	"strconv"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/gate"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/httpx"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/services"
)

// AdminHandler serves the manager-only views: the audit trail and the
// cross-section dashboard.
type AdminHandler struct {
	Audit     *services.AuditService
	Dashboard *services.DashboardService
	Gate      *gate.Gate
}

func NewAdminHandler(audit *services.AuditService, dash *services.DashboardService, g *gate.Gate) *AdminHandler {
	return &AdminHandler{Audit: audit, Dashboard: dash, Gate: g}
}

func (h *AdminHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr403(w, r)
	if !ok {
		return
	}
	if err := h.Gate.Authorize(actor, gate.ActionView, gate.SectionAudit); err != nil {
		httpx.Error(w, err)
		return
	}
	q := r.URL.Query()
	in := services.ListAuditInput{
		Section: q.Get("section"),
		Entity:  q.Get("entity"),
	}
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			in.Limit = n
		}
	}
	rows, err := h.Audit.List(r.Context(), in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": rows, "total": len(rows)})
}

func (h *AdminHandler) Summary(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr403(w, r)
	if !ok {
		return
	}
	if err := h.Gate.Authorize(actor, gate.ActionView, gate.SectionDashboard); err != nil {
		httpx.Error(w, err)
		return
	}
	summary, err := h.Dashboard.Summary(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
