package http

import (
	"net/http"

	"github.com/fairlead/lead-exchange/internal/app"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps collects everything the HTTP surface needs.
type RouterDeps struct {
	Purchases   Purchaser
	Batches     BatchPurchaser
	Quotes      Quoter
	Browser     InventoryBrowser
	Slots       SlotEnsurer
	Generator   InventoryGenerator
	Sales       SalesLister
	Leads       LeadGetter
	Prices      app.PricingLookup
	Logger      zerolog.Logger
	CORSOrigins []string
}

// NewRouter wires the service's routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger(deps.Logger))
	r.Use(Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", HealthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/inventory", HandleListInventory(deps.Browser))
	r.Get("/inventory/counts", HandleInventoryCounts(deps.Browser))
	r.Post("/quotes", HandleQuote(deps.Quotes))
	r.Post("/purchases", HandlePurchase(deps.Purchases, deps.Leads, deps.Prices))
	r.Post("/purchases/batch", HandlePurchaseBatch(deps.Batches, deps.Prices))

	r.Post("/admin/inventory/slots", HandleEnsureSlot(deps.Slots))
	r.Post("/admin/inventory/generate", HandleGenerateInventory(deps.Generator))
	r.Get("/admin/sales/export.csv", HandleExportSales(deps.Sales))

	r.NotFound(NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})

	return r
}
