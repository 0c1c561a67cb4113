package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/agrosurplus/internal/service"
)

type deliveryDateRequest struct {
	DeliveryDate string `json:"delivery_date"`
}

// CreateLogistics создаёт запись о доставке по транзакции.
func (h *Handler) CreateLogistics(w http.ResponseWriter, r *http.Request) {
	var in service.LogisticsInput
	if !h.decode(w, r, &in) {
		return
	}

	l, err := h.service.CreateLogistics(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

// GetLogistics возвращает запись логистики.
func (h *Handler) GetLogistics(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	l, err := h.service.GetLogistics(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// GetLogisticsByTransaction возвращает запись логистики по транзакции.
func (h *Handler) GetLogisticsByTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID, ok := h.pathID(w, r, "transactionID")
	if !ok {
		return
	}

	l, err := h.service.GetLogisticsByTransaction(r.Context(), transactionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// ListLogistics возвращает записи логистики постранично.
func (h *Handler) ListLogistics(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}

	list, err := h.service.ListLogistics(r.Context(), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, list, page)
}

// ListLogisticsByStatus возвращает доставки в указанном статусе.
func (h *Handler) ListLogisticsByStatus(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}

	list, err := h.service.ListLogisticsByStatus(r.Context(), chi.URLParam(r, "status"), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, list, page)
}

// ListLogisticsBySeller возвращает доставки перевозчика.
func (h *Handler) ListLogisticsBySeller(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.pathID(w, r, "sellerID")
	if !ok {
		return
	}
	page, ok := h.page(w, r)
	if !ok {
		return
	}

	list, err := h.service.ListLogisticsBySeller(r.Context(), sellerID, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, list, page)
}

// UpdateLogisticsStatus обновляет статус доставки. Результат синхронизации
// транзакции возвращается в поле sync и не влияет на код ответа.
func (h *Handler) UpdateLogisticsStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req statusRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.service.UpdateLogisticsStatus(r.Context(), id, req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// UpdateDeliveryDate устанавливает плановую дату доставки.
func (h *Handler) UpdateDeliveryDate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req deliveryDateRequest
	if !h.decode(w, r, &req) {
		return
	}

	l, err := h.service.UpdateDeliveryDate(r.Context(), id, req.DeliveryDate)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}
