package model

import "github.com/shopspring/decimal"

// Имена доменных событий, публикуемых в шину.
const (
	EventCropCreated               = "crop.created"
	EventCropStatus                = "crop.status"
	EventCropPrice                 = "crop.price"
	EventCropExpired               = "crop.expired"
	EventOrderCreated              = "order.created"
	EventOrderStatus               = "order.status"
	EventTransactionCreated        = "transaction.created"
	EventTransactionDeliveryStatus = "transaction.delivery_status"
	EventLogisticsCreated          = "logistics.created"
	EventLogisticsStatus           = "logistics.status"
	EventLogisticsDeliveryDate     = "logistics.delivery_date"
)

// CropStatusChanged — полезная нагрузка crop.status и crop.expired.
type CropStatusChanged struct {
	CropID int64      `json:"crop_id"`
	Status CropStatus `json:"status"`
}

// CropPriceChanged — полезная нагрузка crop.price.
type CropPriceChanged struct {
	CropID int64           `json:"crop_id"`
	Price  decimal.Decimal `json:"price_per_unit"`
}

// OrderCreated — полезная нагрузка order.created.
type OrderCreated struct {
	Order             Order           `json:"order"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	CropStatus        CropStatus      `json:"crop_status"`
}

// OrderStatusChanged — полезная нагрузка order.status.
type OrderStatusChanged struct {
	OrderID int64       `json:"order_id"`
	Status  OrderStatus `json:"status"`
}

// DeliveryStatusChanged — полезная нагрузка transaction.delivery_status.
type DeliveryStatusChanged struct {
	TransactionID int64          `json:"transaction_id"`
	Status        DeliveryStatus `json:"status"`
}

// LogisticsStatusChanged — полезная нагрузка logistics.status.
type LogisticsStatusChanged struct {
	LogisticsID int64          `json:"logistics_id"`
	Status      DeliveryStatus `json:"status"`
}

// LogisticsDateChanged — полезная нагрузка logistics.delivery_date.
type LogisticsDateChanged struct {
	LogisticsID  int64 `json:"logistics_id"`
	DeliveryDate Date  `json:"delivery_date"`
}

// SyncOutcome — результат вторичной синхронизации статуса доставки в транзакцию.
// Ошибка синхронизации не делает основное обновление неуспешным.
type SyncOutcome struct {
	TransactionID int64  `json:"transaction_id"`
	Synced        bool   `json:"synced"`
	Error         string `json:"error,omitempty"`
	Err           error  `json:"-"`
}

// LogisticsStatusUpdate — результат обновления статуса логистики.
// Sync заполнен, только если новый статус равен delivered.
type LogisticsStatusUpdate struct {
	Logistics *Logistics   `json:"logistics"`
	Sync      *SyncOutcome `json:"sync,omitempty"`
}
