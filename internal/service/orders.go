package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmeshcher/agrosurplus/internal/model"
	"github.com/shopspring/decimal"
)

// OrderInput — заявка покупателя на часть партии.
type OrderInput struct {
	CropID   int64           `json:"crop_id"`
	BuyerID  int64           `json:"buyer_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// CreateOrder проверяет количество, сохраняет заказ в статусе pending и списывает остаток партии.
// Сохранение и списание выполняются хранилищем атомарно.
func (s *Service) CreateOrder(ctx context.Context, in OrderInput) (*model.OrderCreated, error) {
	if in.CropID == 0 || in.BuyerID == 0 {
		return nil, fmt.Errorf("%w: crop_id and buyer_id are required", model.ErrMissingField)
	}
	if !in.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: quantity must be positive", model.ErrInvalidQuantity)
	}

	order, crop, err := s.repo.CreateOrder(ctx, model.Order{
		CropID:   in.CropID,
		BuyerID:  in.BuyerID,
		Quantity: in.Quantity,
		Status:   model.OrderPending,
	}, s.now())
	if err != nil {
		return nil, err
	}

	res := &model.OrderCreated{
		Order:             *order,
		RemainingQuantity: crop.Quantity,
		CropStatus:        crop.Status,
	}
	s.publish(model.EventOrderCreated, res)
	return res, nil
}

// GetOrder возвращает заказ или ErrNotFound.
func (s *Service) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// ListOrdersByBuyer возвращает заказы покупателя.
func (s *Service) ListOrdersByBuyer(ctx context.Context, buyerID int64, page model.Page) ([]model.Order, error) {
	return s.repo.ListOrdersByBuyer(ctx, buyerID, page.Limit, page.Offset)
}

// UpdateOrderStatus перезаписывает статус заказа без проверки переходов.
func (s *Service) UpdateOrderStatus(ctx context.Context, id int64, raw string) (*model.Order, error) {
	status := strings.TrimSpace(raw)
	if status == "" {
		return nil, fmt.Errorf("%w: status is required", model.ErrMissingField)
	}

	order, err := s.repo.UpdateOrderStatus(ctx, id, model.OrderStatus(strings.ToLower(status)))
	if err != nil {
		return nil, err
	}

	s.publish(model.EventOrderStatus, model.OrderStatusChanged{OrderID: order.ID, Status: order.Status})
	return order, nil
}
