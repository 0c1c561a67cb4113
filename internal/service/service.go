// Package service реализует жизненный цикл партии урожая: от заказа до доставки.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mmeshcher/agrosurplus/internal/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Repository описывает контракт хранилища записей, используемый сервисом.
type Repository interface {
	Ping(ctx context.Context) error
	Close() error

	CreateParty(ctx context.Context, p model.Party) (*model.Party, error)
	ListParties(ctx context.Context, kind model.PartyKind, limit, offset int) ([]model.Party, error)

	CreateCrop(ctx context.Context, c model.Crop) (*model.Crop, error)
	GetCrop(ctx context.Context, id int64) (*model.Crop, error)
	ListCrops(ctx context.Context, f model.CropFilter) ([]model.Crop, error)
	DecrementCrop(ctx context.Context, id int64, delta decimal.Decimal) (*model.Crop, error)
	SetCropStatus(ctx context.Context, id int64, status model.CropStatus) (*model.Crop, error)
	SetCropPrice(ctx context.Context, id int64, price decimal.Decimal) (*model.Crop, error)
	ExpireCrops(ctx context.Context, asOf time.Time) ([]int64, error)

	CreateOrder(ctx context.Context, o model.Order, asOf time.Time) (*model.Order, *model.Crop, error)
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	ListOrdersByBuyer(ctx context.Context, buyerID int64, limit, offset int) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error)

	CreateTransaction(ctx context.Context, t model.Transaction) (*model.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (*model.TransactionView, error)
	ListTransactions(ctx context.Context, f model.TransactionFilter) ([]model.TransactionView, error)
	UpdateTransactionDeliveryStatus(ctx context.Context, id int64, status model.DeliveryStatus) (*model.Transaction, error)

	CreateLogistics(ctx context.Context, l model.Logistics) (*model.Logistics, error)
	GetLogistics(ctx context.Context, id int64) (*model.LogisticsView, error)
	GetLogisticsByTransaction(ctx context.Context, transactionID int64) (*model.LogisticsView, error)
	ListLogistics(ctx context.Context, f model.LogisticsFilter) ([]model.LogisticsView, error)
	UpdateLogisticsStatus(ctx context.Context, id int64, status model.DeliveryStatus) (*model.Logistics, error)
	UpdateLogisticsDeliveryDate(ctx context.Context, id int64, date model.Date) (*model.Logistics, error)
}

// Publisher принимает доменные события. Реализуется eventbus.Bus.
type Publisher interface {
	Publish(eventType string, payload any)
}

// Service содержит бизнес-логику жизненного цикла заказа.
type Service struct {
	repo   Repository
	bus    Publisher
	sync   *DeliverySynchronizer
	logger *zap.Logger
	now    func() time.Time
}

// NewService создаёт сервис с указанным хранилищем и шиной событий.
func NewService(repo Repository, bus Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		repo:   repo,
		bus:    bus,
		sync:   NewDeliverySynchronizer(repo, bus, logger),
		logger: logger,
		now:    time.Now,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Ping проверяет доступность хранилища.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *Service) publish(eventType string, payload any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventType, payload)
}

// PartyInput — данные для регистрации участника.
type PartyInput struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Email    string `json:"email"`
}

// CreateParty регистрирует фермера, покупателя, НКО или перевозчика.
func (s *Service) CreateParty(ctx context.Context, kind model.PartyKind, in PartyInput) (*model.Party, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", model.ErrMissingField)
	}

	return s.repo.CreateParty(ctx, model.Party{
		Kind:     kind,
		Name:     in.Name,
		Phone:    in.Phone,
		Location: in.Location,
		Email:    in.Email,
	})
}

// ListParties возвращает участников указанного вида.
func (s *Service) ListParties(ctx context.Context, kind model.PartyKind, page model.Page) ([]model.Party, error) {
	return s.repo.ListParties(ctx, kind, page.Limit, page.Offset)
}
