// Package handler содержит HTTP-обработчики API сервиса перераспределения урожая.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/agrosurplus/internal/eventbus"
	"github.com/mmeshcher/agrosurplus/internal/model"
	"github.com/mmeshcher/agrosurplus/internal/service"
	"github.com/mmeshcher/agrosurplus/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Ping(ctx context.Context) error

	CreateParty(ctx context.Context, kind model.PartyKind, in service.PartyInput) (*model.Party, error)
	ListParties(ctx context.Context, kind model.PartyKind, page model.Page) ([]model.Party, error)

	CreateCrop(ctx context.Context, in service.CropInput) (*model.Crop, error)
	GetCrop(ctx context.Context, id int64) (*model.Crop, error)
	ListCrops(ctx context.Context, onlyAvailable bool, page model.Page) ([]model.Crop, error)
	SetCropStatus(ctx context.Context, id int64, raw string) (*model.Crop, error)
	SetCropPrice(ctx context.Context, id int64, price decimal.Decimal) (*model.Crop, error)

	CreateOrder(ctx context.Context, in service.OrderInput) (*model.OrderCreated, error)
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	ListOrdersByBuyer(ctx context.Context, buyerID int64, page model.Page) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, raw string) (*model.Order, error)

	CreateTransaction(ctx context.Context, in service.TransactionInput) (*model.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (*model.TransactionView, error)
	ListTransactions(ctx context.Context, page model.Page) ([]model.TransactionView, error)
	ListTransactionsByType(ctx context.Context, raw string, page model.Page) ([]model.TransactionView, error)
	ListTransactionsByFarmer(ctx context.Context, farmerID int64, page model.Page) ([]model.TransactionView, error)
	UpdateDeliveryStatus(ctx context.Context, id int64, raw string) (*model.Transaction, error)

	CreateLogistics(ctx context.Context, in service.LogisticsInput) (*model.Logistics, error)
	GetLogistics(ctx context.Context, id int64) (*model.LogisticsView, error)
	GetLogisticsByTransaction(ctx context.Context, transactionID int64) (*model.LogisticsView, error)
	ListLogistics(ctx context.Context, page model.Page) ([]model.LogisticsView, error)
	ListLogisticsByStatus(ctx context.Context, raw string, page model.Page) ([]model.LogisticsView, error)
	ListLogisticsBySeller(ctx context.Context, sellerID int64, page model.Page) ([]model.LogisticsView, error)
	UpdateLogisticsStatus(ctx context.Context, id int64, raw string) (*model.LogisticsStatusUpdate, error)
	UpdateDeliveryDate(ctx context.Context, id int64, raw string) (*model.Logistics, error)
}

// Subscriber — источник событий для потока /api/events.
type Subscriber interface {
	Subscribe(h eventbus.Handler) (func(), error)
}

// Handler реализует HTTP-обработчики API.
type Handler struct {
	service      Service
	events       Subscriber
	logger       *zap.Logger
	pingInterval time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, events Subscriber, logger *zap.Logger, pingInterval time.Duration) *Handler {
	if pingInterval <= 0 {
		pingInterval = 15 * time.Second
	}

	return &Handler{
		service:      s,
		events:       events,
		logger:       logger,
		pingInterval: pingInterval,
		done:         make(chan struct{}),
	}
}

// CloseStreams завершает открытые потоки событий при остановке сервера.
func (h *Handler) CloseStreams() {
	h.closeOnce.Do(func() { close(h.done) })
}

type errorResponse struct {
	Status  string          `json:"status"`
	Kind    model.ErrorKind `json:"kind"`
	Message string          `json:"message"`
}

type listResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination model.Page `json:"pagination"`
}

var kindStatus = map[model.ErrorKind]int{
	model.KindNotFound:         http.StatusNotFound,
	model.KindDuplicate:        http.StatusConflict,
	model.KindMissingField:     http.StatusBadRequest,
	model.KindInvalidQuantity:  http.StatusBadRequest,
	model.KindInvalidValue:     http.StatusBadRequest,
	model.KindInvalidFormat:    http.StatusBadRequest,
	model.KindInvalidStatus:    http.StatusBadRequest,
	model.KindInvalidType:      http.StatusBadRequest,
	model.KindInvalidRecipient: http.StatusBadRequest,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError отображает доменную ошибку в HTTP-ответ. Детали внутренних ошибок наружу не попадают.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := model.KindOf(err)

	status, ok := kindStatus[kind]
	if !ok {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Status:  "error",
			Kind:    model.KindInternal,
			Message: http.StatusText(http.StatusInternalServerError),
		})
		return
	}

	writeJSON(w, status, errorResponse{Status: "error", Kind: kind, Message: err.Error()})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if model.KindOf(err) == model.KindInternal {
			err = fmt.Errorf("%w: request body must be valid JSON", model.ErrInvalidFormat)
		}
		h.writeError(w, r, err)
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := validation.ParseID(chi.URLParam(r, name))
	if err != nil {
		h.writeError(w, r, err)
		return 0, false
	}
	return id, true
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) (model.Page, bool) {
	q := r.URL.Query()
	page, err := validation.ParsePage(q.Get("page"), q.Get("limit"))
	if err != nil {
		h.writeError(w, r, err)
		return model.Page{}, false
	}
	return page, true
}

func writeList[T any](w http.ResponseWriter, items []T, page model.Page) {
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, listResponse[T]{Data: items, Pagination: page})
}

// HealthDB проверяет доступность хранилища.
func (h *Handler) HealthDB(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.service.Ping(ctx); err != nil {
		h.logger.Warn("database ping failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateParty возвращает обработчик регистрации участника указанного вида.
func (h *Handler) CreateParty(kind model.PartyKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.PartyInput
		if !h.decode(w, r, &in) {
			return
		}

		p, err := h.service.CreateParty(r.Context(), kind, in)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

// ListParties возвращает обработчик списка участников указанного вида.
func (h *Handler) ListParties(kind model.PartyKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, ok := h.page(w, r)
		if !ok {
			return
		}

		parties, err := h.service.ListParties(r.Context(), kind, page)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeList(w, parties, page)
	}
}
