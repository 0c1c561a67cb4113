package handler

import (
	"net/http"

	"github.com/mmeshcher/agrosurplus/internal/service"
)

// CreateOrder резервирует часть партии под заказ покупателя.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var in service.OrderInput
	if !h.decode(w, r, &in) {
		return
	}

	res, err := h.service.CreateOrder(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// GetOrder возвращает заказ по идентификатору.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// ListOrdersByBuyer возвращает заказы покупателя.
func (h *Handler) ListOrdersByBuyer(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := h.pathID(w, r, "buyerID")
	if !ok {
		return
	}
	page, ok := h.page(w, r)
	if !ok {
		return
	}

	orders, err := h.service.ListOrdersByBuyer(r.Context(), buyerID, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, orders, page)
}

// UpdateOrderStatus перезаписывает статус заказа.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req statusRequest
	if !h.decode(w, r, &req) {
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), id, req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
