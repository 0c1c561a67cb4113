package service

import (
	"context"
	"fmt"

	"github.com/mmeshcher/agrosurplus/internal/model"
	"github.com/shopspring/decimal"
)

// TransactionInput — подтверждённая передача урожая.
type TransactionInput struct {
	CropID   int64            `json:"crop_id"`
	FarmerID int64            `json:"farmer_id"`
	SellerID int64            `json:"seller_id"`
	BuyerID  *int64           `json:"buyer_id"`
	NGOID    *int64           `json:"ngo_id"`
	OrderID  *int64           `json:"order_id"`
	Type     string           `json:"transaction_type"`
	Price    *decimal.Decimal `json:"price"`
}

func present(id *int64) bool {
	return id != nil && *id != 0
}

// CreateTransaction создаёт коммерческую или благотворительную транзакцию ровно с одним получателем.
// Цена по умолчанию 0, статус доставки pending.
func (s *Service) CreateTransaction(ctx context.Context, in TransactionInput) (*model.Transaction, error) {
	hasBuyer, hasNGO := present(in.BuyerID), present(in.NGOID)
	switch {
	case !hasBuyer && !hasNGO:
		return nil, fmt.Errorf("%w: either buyer_id or ngo_id is required", model.ErrInvalidRecipient)
	case hasBuyer && hasNGO:
		return nil, fmt.Errorf("%w: cannot have both buyer_id and ngo_id", model.ErrInvalidRecipient)
	}

	if in.CropID == 0 || in.FarmerID == 0 || in.SellerID == 0 || in.Type == "" {
		return nil, fmt.Errorf("%w: crop_id, farmer_id, seller_id and transaction_type are required", model.ErrMissingField)
	}

	txType, ok := model.ParseTransactionType(in.Type)
	if !ok {
		return nil, fmt.Errorf("%w: transaction_type must be 'commercial' or 'charity'", model.ErrInvalidType)
	}

	price := decimal.Zero
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, fmt.Errorf("%w: price must not be negative", model.ErrInvalidValue)
		}
		price = *in.Price
	}

	t := model.Transaction{
		CropID:         in.CropID,
		FarmerID:       in.FarmerID,
		SellerID:       in.SellerID,
		Type:           txType,
		Price:          price,
		Date:           model.NewDate(s.now()),
		DeliveryStatus: model.DeliveryPending,
	}
	if hasBuyer {
		t.BuyerID = in.BuyerID
	} else {
		t.NGOID = in.NGOID
	}
	if present(in.OrderID) {
		t.OrderID = in.OrderID
	}

	created, err := s.repo.CreateTransaction(ctx, t)
	if err != nil {
		return nil, err
	}

	s.publish(model.EventTransactionCreated, created)
	return created, nil
}

// GetTransaction возвращает транзакцию с именами участников.
func (s *Service) GetTransaction(ctx context.Context, id int64) (*model.TransactionView, error) {
	return s.repo.GetTransaction(ctx, id)
}

// ListTransactions возвращает все транзакции постранично.
func (s *Service) ListTransactions(ctx context.Context, page model.Page) ([]model.TransactionView, error) {
	return s.repo.ListTransactions(ctx, model.TransactionFilter{Limit: page.Limit, Offset: page.Offset})
}

// ListTransactionsByType возвращает транзакции указанного типа.
func (s *Service) ListTransactionsByType(ctx context.Context, raw string, page model.Page) ([]model.TransactionView, error) {
	txType, ok := model.ParseTransactionType(raw)
	if !ok {
		return nil, fmt.Errorf("%w: transaction type %q", model.ErrInvalidType, raw)
	}
	return s.repo.ListTransactions(ctx, model.TransactionFilter{Type: txType, Limit: page.Limit, Offset: page.Offset})
}

// ListTransactionsByFarmer возвращает транзакции фермера.
func (s *Service) ListTransactionsByFarmer(ctx context.Context, farmerID int64, page model.Page) ([]model.TransactionView, error) {
	return s.repo.ListTransactions(ctx, model.TransactionFilter{FarmerID: farmerID, Limit: page.Limit, Offset: page.Offset})
}

// UpdateDeliveryStatus устанавливает статус доставки транзакции. Принимаются только канонические значения.
func (s *Service) UpdateDeliveryStatus(ctx context.Context, id int64, raw string) (*model.Transaction, error) {
	status, ok := model.ParseDeliveryStatus(raw)
	if !ok {
		return nil, fmt.Errorf("%w: delivery_status must be one of pending, in-transit, delivered", model.ErrInvalidStatus)
	}

	t, err := s.repo.UpdateTransactionDeliveryStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.publish(model.EventTransactionDeliveryStatus, model.DeliveryStatusChanged{TransactionID: t.ID, Status: t.DeliveryStatus})
	return t, nil
}
