package handler

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/agrosurplus/internal/model"
	"github.com/mmeshcher/agrosurplus/internal/service"
)

type statusRequest struct {
	Status string `json:"status"`
}

type priceRequest struct {
	PricePerUnit *decimal.Decimal `json:"price_per_unit"`
}

// CreateCrop выставляет новую партию урожая.
func (h *Handler) CreateCrop(w http.ResponseWriter, r *http.Request) {
	var in service.CropInput
	if !h.decode(w, r, &in) {
		return
	}

	crop, err := h.service.CreateCrop(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, crop)
}

// GetCrop возвращает партию по идентификатору.
func (h *Handler) GetCrop(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	crop, err := h.service.GetCrop(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, crop)
}

// ListCrops возвращает все партии.
func (h *Handler) ListCrops(w http.ResponseWriter, r *http.Request) {
	h.listCrops(w, r, false)
}

// ListAvailableCrops возвращает партии, доступные для заказа.
func (h *Handler) ListAvailableCrops(w http.ResponseWriter, r *http.Request) {
	h.listCrops(w, r, true)
}

func (h *Handler) listCrops(w http.ResponseWriter, r *http.Request, onlyAvailable bool) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}

	crops, err := h.service.ListCrops(r.Context(), onlyAvailable, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, crops, page)
}

// UpdateCropStatus перезаписывает статус партии.
func (h *Handler) UpdateCropStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req statusRequest
	if !h.decode(w, r, &req) {
		return
	}

	crop, err := h.service.SetCropStatus(r.Context(), id, req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, crop)
}

// UpdateCropPrice устанавливает цену за единицу.
func (h *Handler) UpdateCropPrice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req priceRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.PricePerUnit == nil {
		h.writeError(w, r, fmt.Errorf("%w: price_per_unit is required", model.ErrMissingField))
		return
	}

	crop, err := h.service.SetCropPrice(r.Context(), id, *req.PricePerUnit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, crop)
}
