package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/agrosurplus/internal/service"
)

type deliveryStatusRequest struct {
	DeliveryStatus string `json:"delivery_status"`
}

// CreateTransaction оформляет передачу урожая покупателю или НКО.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in service.TransactionInput
	if !h.decode(w, r, &in) {
		return
	}

	tx, err := h.service.CreateTransaction(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// GetTransaction возвращает транзакцию с именами участников.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	tx, err := h.service.GetTransaction(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// ListTransactions возвращает транзакции постранично.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}

	txs, err := h.service.ListTransactions(r.Context(), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, txs, page)
}

// ListTransactionsByType возвращает транзакции типа commercial или charity.
func (h *Handler) ListTransactionsByType(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}

	txs, err := h.service.ListTransactionsByType(r.Context(), chi.URLParam(r, "type"), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, txs, page)
}

// ListTransactionsByFarmer возвращает транзакции фермера.
func (h *Handler) ListTransactionsByFarmer(w http.ResponseWriter, r *http.Request) {
	farmerID, ok := h.pathID(w, r, "farmerID")
	if !ok {
		return
	}
	page, ok := h.page(w, r)
	if !ok {
		return
	}

	txs, err := h.service.ListTransactionsByFarmer(r.Context(), farmerID, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, txs, page)
}

// UpdateDeliveryStatus устанавливает статус доставки транзакции.
func (h *Handler) UpdateDeliveryStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req deliveryStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	tx, err := h.service.UpdateDeliveryStatus(r.Context(), id, req.DeliveryStatus)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}
