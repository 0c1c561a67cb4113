package service

import (
	"context"
	"fmt"

	"github.com/mmeshcher/agrosurplus/internal/model"
	"github.com/mmeshcher/agrosurplus/internal/validation"
	"go.uber.org/zap"
)

// LogisticsInput — данные новой записи о доставке.
type LogisticsInput struct {
	TransactionID  int64       `json:"transaction_id"`
	PickupLocation string      `json:"pickup_location"`
	DropLocation   string      `json:"drop_location"`
	DeliveryDate   *model.Date `json:"delivery_date"`
	Status         string      `json:"status"`
}

// CreateLogistics создаёт запись о доставке. Статус, если передан, должен быть каноническим.
func (s *Service) CreateLogistics(ctx context.Context, in LogisticsInput) (*model.Logistics, error) {
	if in.TransactionID == 0 || in.PickupLocation == "" || in.DropLocation == "" {
		return nil, fmt.Errorf("%w: transaction_id, pickup_location and drop_location are required", model.ErrMissingField)
	}

	status := model.DeliveryPending
	if in.Status != "" {
		parsed, ok := model.ParseDeliveryStatus(in.Status)
		if !ok {
			return nil, fmt.Errorf("%w: status must be one of pending, in-transit, delivered", model.ErrInvalidStatus)
		}
		status = parsed
	}

	created, err := s.repo.CreateLogistics(ctx, model.Logistics{
		TransactionID:  in.TransactionID,
		PickupLocation: in.PickupLocation,
		DropLocation:   in.DropLocation,
		DeliveryDate:   in.DeliveryDate,
		Status:         status,
	})
	if err != nil {
		return nil, err
	}

	s.publish(model.EventLogisticsCreated, created)
	return created, nil
}

// GetLogistics возвращает запись логистики с данными транзакции.
func (s *Service) GetLogistics(ctx context.Context, id int64) (*model.LogisticsView, error) {
	return s.repo.GetLogistics(ctx, id)
}

// GetLogisticsByTransaction возвращает запись логистики по транзакции.
func (s *Service) GetLogisticsByTransaction(ctx context.Context, transactionID int64) (*model.LogisticsView, error) {
	return s.repo.GetLogisticsByTransaction(ctx, transactionID)
}

// ListLogistics возвращает все записи логистики постранично.
func (s *Service) ListLogistics(ctx context.Context, page model.Page) ([]model.LogisticsView, error) {
	return s.repo.ListLogistics(ctx, model.LogisticsFilter{Limit: page.Limit, Offset: page.Offset})
}

// ListLogisticsByStatus принимает канонические и устаревшие названия статусов.
// Нераспознанный статус в фильтре — ошибка, а не fallback.
func (s *Service) ListLogisticsByStatus(ctx context.Context, raw string, page model.Page) ([]model.LogisticsView, error) {
	status, ok := model.NormalizeDeliveryStatus(raw)
	if !ok {
		return nil, fmt.Errorf("%w: unknown delivery status %q", model.ErrInvalidStatus, raw)
	}
	return s.repo.ListLogistics(ctx, model.LogisticsFilter{Status: status, Limit: page.Limit, Offset: page.Offset})
}

// ListLogisticsBySeller возвращает доставки перевозчика.
func (s *Service) ListLogisticsBySeller(ctx context.Context, sellerID int64, page model.Page) ([]model.LogisticsView, error) {
	return s.repo.ListLogistics(ctx, model.LogisticsFilter{SellerID: sellerID, Limit: page.Limit, Offset: page.Offset})
}

// UpdateLogisticsStatus нормализует внешний статус и сохраняет его. При переходе
// в delivered статус транзакции синхронизируется; неудача синхронизации
// отражается только в результате.
func (s *Service) UpdateLogisticsStatus(ctx context.Context, id int64, raw string) (*model.LogisticsStatusUpdate, error) {
	status, ok := model.NormalizeDeliveryStatus(raw)
	if !ok {
		s.logger.Info("unrecognized delivery status, using fallback",
			zap.Int64("logistics_id", id),
			zap.String("raw", raw),
			zap.String("status", string(status)),
		)
	}

	l, err := s.repo.UpdateLogisticsStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.publish(model.EventLogisticsStatus, model.LogisticsStatusChanged{LogisticsID: l.ID, Status: l.Status})

	res := &model.LogisticsStatusUpdate{Logistics: l}
	if l.Status == model.DeliveryDelivered {
		res.Sync = s.sync.Sync(ctx, l.TransactionID)
	}
	return res, nil
}

// UpdateDeliveryDate устанавливает плановую дату доставки в формате YYYY-MM-DD.
func (s *Service) UpdateDeliveryDate(ctx context.Context, id int64, raw string) (*model.Logistics, error) {
	date, err := validation.ParseISODate(raw)
	if err != nil {
		return nil, err
	}

	l, err := s.repo.UpdateLogisticsDeliveryDate(ctx, id, date)
	if err != nil {
		return nil, err
	}

	s.publish(model.EventLogisticsDeliveryDate, model.LogisticsDateChanged{LogisticsID: l.ID, DeliveryDate: date})
	return l, nil
}
