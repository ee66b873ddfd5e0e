// Package server wires the HTTP routes over the handlers and applies the
// shared middleware chain.
package server

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/auth"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/gate"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/handlers"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/httpx"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/models"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/services"
)

// Options carries the wiring knobs New needs beyond the DB handle.
type Options struct {
	Log       *logrus.Logger
	UploadDir string
}

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = logrus.New()
	}
	uploadDir := opts.UploadDir
	if uploadDir == "" {
		uploadDir = "uploads"
	}

	g := gate.Default()
	audit := services.NewAuditService(db, log)
	stockSvc := services.NewStockService(db, log, audit)
	saleSvc := services.NewSaleService(db, log, audit)
	catalogSvc := services.NewCatalogService(db, log, audit)
	loanSvc := services.NewLoanService(db, log, audit)
	groupSvc := services.NewGroupLoanService(db, log, audit)
	dashSvc := services.NewDashboardService(db)

	authHandler := handlers.NewAuthHandler(db, log, audit)
	stockHandler := handlers.NewStockHandler(stockSvc, g)
	saleHandler := handlers.NewSaleHandler(saleSvc, g)
	catalogHandler := handlers.NewCatalogHandler(catalogSvc, g)
	loanHandler := handlers.NewLoanHandler(loanSvc, g, uploadDir)
	groupHandler := handlers.NewGroupLoanHandler(groupSvc, g)
	adminHandler := handlers.NewAdminHandler(audit, dashSvc, g)

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSONError(w, http.StatusServiceUnavailable, "degraded", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.Handle("/login", post(authHandler.Login))

	// The boutique and hardware sections share the handler set; the business
	// type is baked into each route.
	for _, business := range []models.BusinessType{models.BusinessBoutique, models.BusinessHardware} {
		prefix := "/" + string(business)

		mux.Handle(prefix+"/stock", protected(methodSwitch(map[string]http.HandlerFunc{
			http.MethodGet:  stockHandler.List(business),
			http.MethodPost: stockHandler.Add(business),
		})))
		mux.Handle(prefix+"/stock/update", protected(post(stockHandler.Update(business))))
		mux.Handle(prefix+"/stock/adjust", protected(post(stockHandler.Adjust(business))))
		mux.Handle(prefix+"/stock/deactivate", protected(post(stockHandler.Deactivate(business))))
		mux.Handle(prefix+"/stock/delete", protected(post(stockHandler.HardDelete(business))))

		mux.Handle(prefix+"/categories", protected(methodSwitch(map[string]http.HandlerFunc{
			http.MethodGet:  catalogHandler.ListCategories(business),
			http.MethodPost: catalogHandler.AddCategory(business),
		})))
		mux.Handle(prefix+"/customers", protected(methodSwitch(map[string]http.HandlerFunc{
			http.MethodGet:  catalogHandler.ListCustomers(business),
			http.MethodPost: catalogHandler.AddCustomer(business),
		})))

		mux.Handle(prefix+"/sales", protected(methodSwitch(map[string]http.HandlerFunc{
			http.MethodGet:  saleHandler.List(business),
			http.MethodPost: saleHandler.Create(business),
		})))
		mux.Handle(prefix+"/sales/get", protected(get(saleHandler.Get(business))))
		mux.Handle(prefix+"/sales/delete", protected(post(saleHandler.Delete(business))))

		mux.Handle(prefix+"/credits", protected(get(saleHandler.PendingCredits(business))))
		mux.Handle(prefix+"/credits/pay", protected(post(saleHandler.PayCredit(business))))
	}

	// Finance section: individual loans, their clients, and group loans.
	mux.Handle("/finance/clients", protected(methodSwitch(map[string]http.HandlerFunc{
		http.MethodGet:  loanHandler.ListClients,
		http.MethodPost: loanHandler.AddClient,
	})))
	mux.Handle("/finance/loans", protected(methodSwitch(map[string]http.HandlerFunc{
		http.MethodGet:  loanHandler.List,
		http.MethodPost: loanHandler.Create,
	})))
	mux.Handle("/finance/loans/get", protected(get(loanHandler.Get)))
	mux.Handle("/finance/loans/pay", protected(post(loanHandler.Pay)))
	mux.Handle("/finance/loans/delete", protected(post(loanHandler.Delete)))
	mux.Handle("/finance/loans/reschedule", protected(post(loanHandler.Reschedule)))
	mux.Handle("/finance/loans/documents", protected(post(loanHandler.UploadDocument)))

	mux.Handle("/finance/group-loans", protected(methodSwitch(map[string]http.HandlerFunc{
		http.MethodGet:  groupHandler.List,
		http.MethodPost: groupHandler.Create,
	})))
	mux.Handle("/finance/group-loans/get", protected(get(groupHandler.Get)))
	mux.Handle("/finance/group-loans/pay", protected(post(groupHandler.Pay)))
	mux.Handle("/finance/group-loans/delete", protected(post(groupHandler.Delete)))

	mux.Handle("/audit", protected(get(adminHandler.AuditTrail)))
	mux.Handle("/dashboard", protected(get(adminHandler.Summary)))

	return withRequestID(withLogging(log, withRecover(log, auth.Middleware(mux))))
}

// protected gates a route behind a resolved actor.
func protected(next http.Handler) http.Handler {
	return auth.RequireAuth(next)
}

func methodSwitch(routes map[string]http.HandlerFunc) http.Handler {
	allow := ""
	for m := range routes {
		if allow != "" {
			allow += ","
		}
		allow += m
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := routes[r.Method]; ok {
			h(w, r)
			return
		}
		httpx.MethodNotAllowed(w, allow)
	})
}

func post(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			httpx.MethodNotAllowed(w, http.MethodPost)
			return
		}
		h(w, r)
	})
}

func get(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			httpx.MethodNotAllowed(w, http.MethodGet)
			return
		}
		h(w, r)
	})
}
