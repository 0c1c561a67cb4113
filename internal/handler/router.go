package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/agrosurplus/internal/middleware"
	"github.com/mmeshcher/agrosurplus/internal/model"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Get("/health/db", h.HealthDB)

	r.Route("/api", func(r chi.Router) {
		r.Get("/events", h.Events)

		parties := map[string]model.PartyKind{
			"/farmers": model.PartyFarmer,
			"/buyers":  model.PartyBuyer,
			"/ngos":    model.PartyNGO,
			"/sellers": model.PartySeller,
		}
		for path, kind := range parties {
			r.Post(path, h.CreateParty(kind))
			r.Get(path, h.ListParties(kind))
		}

		r.Route("/crops", func(r chi.Router) {
			r.Post("/", h.CreateCrop)
			r.Get("/", h.ListCrops)
			r.Get("/available", h.ListAvailableCrops)
			r.Get("/{id}", h.GetCrop)
			r.Put("/{id}/status", h.UpdateCropStatus)
			r.Put("/{id}/price", h.UpdateCropPrice)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.CreateOrder)
			r.Get("/buyer/{buyerID}", h.ListOrdersByBuyer)
			r.Get("/{id}", h.GetOrder)
			r.Put("/{id}/status", h.UpdateOrderStatus)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", h.CreateTransaction)
			r.Get("/", h.ListTransactions)
			r.Get("/type/{type}", h.ListTransactionsByType)
			r.Get("/farmer/{farmerID}", h.ListTransactionsByFarmer)
			r.Get("/{id}", h.GetTransaction)
			r.Put("/{id}/delivery-status", h.UpdateDeliveryStatus)
		})

		r.Route("/logistics", func(r chi.Router) {
			r.Post("/", h.CreateLogistics)
			r.Get("/", h.ListLogistics)
			r.Get("/transaction/{transactionID}", h.GetLogisticsByTransaction)
			r.Get("/status/{status}", h.ListLogisticsByStatus)
			r.Get("/seller/{sellerID}", h.ListLogisticsBySeller)
			r.Get("/{id}", h.GetLogistics)
			r.Put("/{id}/status", h.UpdateLogisticsStatus)
			r.Put("/{id}/delivery-date", h.UpdateDeliveryDate)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
