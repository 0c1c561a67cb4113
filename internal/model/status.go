package model

import "strings"

// CropStatus описывает доступность партии урожая.
type CropStatus string

const (
	CropAvailable CropStatus = "available"
	CropMatched   CropStatus = "matched"
	CropExpired   CropStatus = "expired"
)

// UnknownCropStatusFallback — статус, в который превращается любое нераспознанное значение.
const UnknownCropStatusFallback = CropAvailable

// NormalizeCropStatus переводит произвольную строку в статус урожая без учёта регистра.
// Второе значение сообщает, было ли значение распознано; иначе применяется UnknownCropStatusFallback.
func NormalizeCropStatus(raw string) (CropStatus, bool) {
	switch CropStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case CropAvailable:
		return CropAvailable, true
	case CropMatched:
		return CropMatched, true
	case CropExpired:
		return CropExpired, true
	}
	return UnknownCropStatusFallback, false
}

// OrderStatus описывает статус заказа покупателя.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderFulfilled OrderStatus = "fulfilled"
	OrderCancelled OrderStatus = "cancelled"
)

// TransactionType различает коммерческую продажу и благотворительную передачу.
type TransactionType string

const (
	TransactionCommercial TransactionType = "commercial"
	TransactionCharity    TransactionType = "charity"
)

// ParseTransactionType проверяет тип транзакции без учёта регистра.
func ParseTransactionType(raw string) (TransactionType, bool) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(raw))) {
	case TransactionCommercial:
		return TransactionCommercial, true
	case TransactionCharity:
		return TransactionCharity, true
	}
	return "", false
}

// DeliveryStatus — канонический статус доставки, общий для логистики и транзакций.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryInTransit DeliveryStatus = "in-transit"
	DeliveryDelivered DeliveryStatus = "delivered"
)

// UnknownDeliveryStatusFallback — статус для нераспознанных значений из внешних систем.
const UnknownDeliveryStatusFallback = DeliveryPending

var deliverySynonyms = map[string]DeliveryStatus{
	"pending":     DeliveryPending,
	"assigned":    DeliveryPending,
	"in-transit":  DeliveryInTransit,
	"in transit":  DeliveryInTransit,
	"in-progress": DeliveryInTransit,
	"in progress": DeliveryInTransit,
	"delivered":   DeliveryDelivered,
	"completed":   DeliveryDelivered,
}

// NormalizeDeliveryStatus отображает любую строку, включая устаревшие синонимы,
// в канонический статус. Второе значение сообщает, было ли значение распознано;
// нераспознанные значения отображаются в UnknownDeliveryStatusFallback.
func NormalizeDeliveryStatus(raw string) (DeliveryStatus, bool) {
	if s, ok := deliverySynonyms[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s, true
	}
	return UnknownDeliveryStatusFallback, false
}

// ParseDeliveryStatus принимает только канонические значения (без учёта регистра).
func ParseDeliveryStatus(raw string) (DeliveryStatus, bool) {
	switch DeliveryStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case DeliveryPending:
		return DeliveryPending, true
	case DeliveryInTransit:
		return DeliveryInTransit, true
	case DeliveryDelivered:
		return DeliveryDelivered, true
	}
	return "", false
}
