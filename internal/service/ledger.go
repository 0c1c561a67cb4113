package service

import (
	"context"
	"fmt"

	"github.com/mmeshcher/agrosurplus/internal/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CropInput — данные новой партии урожая.
type CropInput struct {
	FarmerID     int64            `json:"farmer_id"`
	Name         string           `json:"crop_name"`
	Quantity     *decimal.Decimal `json:"quantity"`
	Unit         string           `json:"unit"`
	HarvestDate  *model.Date      `json:"harvest_date"`
	ExpiryDate   *model.Date      `json:"expiry_date"`
	PricePerUnit *decimal.Decimal `json:"price_per_unit"`
	Status       string           `json:"status"`
}

// CreateCrop выставляет новую партию.
func (s *Service) CreateCrop(ctx context.Context, in CropInput) (*model.Crop, error) {
	if in.FarmerID == 0 || in.Name == "" || in.Quantity == nil {
		return nil, fmt.Errorf("%w: farmer_id, crop_name and quantity are required", model.ErrMissingField)
	}
	if in.Quantity.IsNegative() {
		return nil, fmt.Errorf("%w: quantity must not be negative", model.ErrInvalidQuantity)
	}

	crop := model.Crop{
		FarmerID:    in.FarmerID,
		Name:        in.Name,
		Quantity:    *in.Quantity,
		Unit:        in.Unit,
		HarvestDate: in.HarvestDate,
		ExpiryDate:  in.ExpiryDate,
		Status:      model.CropAvailable,
	}
	if in.PricePerUnit != nil {
		if in.PricePerUnit.IsNegative() {
			return nil, fmt.Errorf("%w: price_per_unit must not be negative", model.ErrInvalidValue)
		}
		crop.PricePerUnit = decimal.NewNullDecimal(*in.PricePerUnit)
	}
	if in.Status != "" {
		crop.Status = s.normalizeCropStatus(in.Status)
	}
	if crop.Status == model.CropAvailable && !crop.Quantity.IsPositive() {
		crop.Status = model.CropMatched
	}

	created, err := s.repo.CreateCrop(ctx, crop)
	if err != nil {
		return nil, err
	}

	s.publish(model.EventCropCreated, created)
	return created, nil
}

// GetCrop возвращает партию или ErrNotFound.
func (s *Service) GetCrop(ctx context.Context, id int64) (*model.Crop, error) {
	return s.repo.GetCrop(ctx, id)
}

// ListCrops возвращает все партии либо только доступные для заказа.
func (s *Service) ListCrops(ctx context.Context, onlyAvailable bool, page model.Page) ([]model.Crop, error) {
	return s.repo.ListCrops(ctx, model.CropFilter{
		OnlyAvailable: onlyAvailable,
		AsOf:          s.now(),
		Limit:         page.Limit,
		Offset:        page.Offset,
	})
}

// DecrementAndReclassify атомарно списывает delta; остаток не может стать отрицательным.
func (s *Service) DecrementAndReclassify(ctx context.Context, id int64, delta decimal.Decimal) (*model.Crop, error) {
	crop, err := s.repo.DecrementCrop(ctx, id, delta)
	if err != nil {
		return nil, err
	}

	s.publish(model.EventCropStatus, model.CropStatusChanged{CropID: crop.ID, Status: crop.Status})
	return crop, nil
}

// SetCropStatus перезаписывает статус партии. Нераспознанные значения
// становятся UnknownCropStatusFallback.
func (s *Service) SetCropStatus(ctx context.Context, id int64, raw string) (*model.Crop, error) {
	crop, err := s.repo.SetCropStatus(ctx, id, s.normalizeCropStatus(raw))
	if err != nil {
		return nil, err
	}

	s.publish(model.EventCropStatus, model.CropStatusChanged{CropID: crop.ID, Status: crop.Status})
	return crop, nil
}

func (s *Service) normalizeCropStatus(raw string) model.CropStatus {
	status, ok := model.NormalizeCropStatus(raw)
	if !ok {
		s.logger.Debug("unrecognized crop status, using fallback",
			zap.String("raw", raw), zap.String("status", string(status)))
	}
	return status
}

// SetCropPrice устанавливает цену за единицу; отрицательная цена отклоняется.
func (s *Service) SetCropPrice(ctx context.Context, id int64, price decimal.Decimal) (*model.Crop, error) {
	if price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", model.ErrInvalidValue)
	}

	crop, err := s.repo.SetCropPrice(ctx, id, price)
	if err != nil {
		return nil, err
	}

	s.publish(model.EventCropPrice, model.CropPriceChanged{CropID: crop.ID, Price: price})
	return crop, nil
}

// ExpireCrops помечает просроченные партии и публикует crop.expired по каждой.
func (s *Service) ExpireCrops(ctx context.Context) ([]int64, error) {
	ids, err := s.repo.ExpireCrops(ctx, s.now())
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		s.publish(model.EventCropExpired, model.CropStatusChanged{CropID: id, Status: model.CropExpired})
	}
	return ids, nil
}
