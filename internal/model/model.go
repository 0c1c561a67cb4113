// Package model содержит доменные сущности сервиса перераспределения излишков урожая.
package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout — единственный принятый формат дат (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// Date — календарная дата без времени, сериализуется как YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate отбрасывает время суток и часовой пояс.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate разбирает дату строго в формате YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidFormat, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON сериализует дату как строку YYYY-MM-DD.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON принимает строку YYYY-MM-DD.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: date must be a string", ErrInvalidFormat)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// PartyKind различает участников обмена.
type PartyKind string

const (
	PartyFarmer PartyKind = "farmer"
	PartyBuyer  PartyKind = "buyer"
	PartyNGO    PartyKind = "ngo"
	PartySeller PartyKind = "seller"
)

// Party — фермер, покупатель, НКО или перевозчик.
type Party struct {
	ID        int64     `json:"id"`
	Kind      PartyKind `json:"kind"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Location  string    `json:"location,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Crop — выставленная фермером партия излишков урожая.
type Crop struct {
	ID           int64               `json:"crop_id"`
	FarmerID     int64               `json:"farmer_id"`
	Name         string              `json:"crop_name"`
	Quantity     decimal.Decimal     `json:"quantity"`
	Unit         string              `json:"unit,omitempty"`
	HarvestDate  *Date               `json:"harvest_date,omitempty"`
	ExpiryDate   *Date               `json:"expiry_date,omitempty"`
	PricePerUnit decimal.NullDecimal `json:"price_per_unit"`
	Status       CropStatus          `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
}

// ExpiredAt сообщает, истёк ли срок годности партии к указанному моменту.
func (c *Crop) ExpiredAt(now time.Time) bool {
	if c.Status == CropExpired {
		return true
	}
	return c.ExpiryDate != nil && c.ExpiryDate.Before(NewDate(now).Time)
}

// Available возвращает количество, которое ещё можно заказать.
func (c *Crop) Available(now time.Time) decimal.Decimal {
	if c.ExpiredAt(now) || !c.Quantity.IsPositive() {
		return decimal.Zero
	}
	return c.Quantity
}

// Withdraw списывает delta и пересчитывает статус: Matched при нулевом остатке, иначе Available.
func (c *Crop) Withdraw(delta decimal.Decimal) error {
	if !delta.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive, got %s", ErrInvalidQuantity, delta)
	}

	rest := c.Quantity.Sub(delta)
	if rest.IsNegative() {
		return fmt.Errorf("%w: requested %s, only %s left", ErrInvalidQuantity, delta, c.Quantity)
	}

	c.Quantity = rest
	if rest.IsPositive() {
		c.Status = CropAvailable
	} else {
		c.Status = CropMatched
	}
	return nil
}

// Reserve проверяет доступное количество на момент now и списывает qty под заказ.
func (c *Crop) Reserve(qty decimal.Decimal, now time.Time) error {
	if !qty.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive, got %s", ErrInvalidQuantity, qty)
	}
	if available := c.Available(now); qty.GreaterThan(available) {
		return fmt.Errorf("%w: requested %s, available %s", ErrInvalidQuantity, qty, available)
	}
	return c.Withdraw(qty)
}

// CropFilter задаёт выборку партий. При OnlyAvailable возвращаются только партии,
// которые можно заказать на момент AsOf.
type CropFilter struct {
	OnlyAvailable bool
	AsOf          time.Time
	Limit         int
	Offset        int
}

// Order описывает заявку покупателя на часть партии.
type Order struct {
	ID        int64           `json:"order_id"`
	CropID    int64           `json:"crop_id"`
	BuyerID   int64           `json:"buyer_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Status    OrderStatus     `json:"status"`
	OrderDate time.Time       `json:"order_date"`
}

// ConfirmBy проверяет, что транзакция t может исполнить заказ: заказ ещё
// ожидает исполнения, относится к той же партии и, если получатель — покупатель,
// оформлен им же.
func (o *Order) ConfirmBy(t Transaction) error {
	if o.Status != OrderPending {
		return fmt.Errorf("%w: order %d is %s, only pending orders can be fulfilled", ErrInvalidStatus, o.ID, o.Status)
	}
	if o.CropID != t.CropID {
		return fmt.Errorf("%w: order %d is for crop %d, not %d", ErrInvalidValue, o.ID, o.CropID, t.CropID)
	}
	if t.BuyerID != nil && *t.BuyerID != o.BuyerID {
		return fmt.Errorf("%w: order %d belongs to buyer %d", ErrInvalidValue, o.ID, o.BuyerID)
	}
	return nil
}

// Transaction — подтверждённая передача урожая ровно одному получателю.
type Transaction struct {
	ID             int64           `json:"transaction_id"`
	CropID         int64           `json:"crop_id"`
	FarmerID       int64           `json:"farmer_id"`
	BuyerID        *int64          `json:"buyer_id"`
	NGOID          *int64          `json:"ngo_id"`
	SellerID       int64           `json:"seller_id"`
	OrderID        *int64          `json:"order_id,omitempty"`
	Type           TransactionType `json:"transaction_type"`
	Price          decimal.Decimal `json:"price"`
	Date           Date            `json:"date"`
	DeliveryStatus DeliveryStatus  `json:"delivery_status"`
}

// TransactionView — транзакция с именами связанных участников.
type TransactionView struct {
	Transaction
	FarmerName *string `json:"farmer_name"`
	BuyerName  *string `json:"buyer_name"`
	NGOName    *string `json:"ngo_name"`
	SellerName *string `json:"seller_name"`
	CropName   *string `json:"crop_name"`
}

// TransactionFilter задаёт выборку транзакций; нулевые поля не фильтруют.
type TransactionFilter struct {
	Type     TransactionType
	FarmerID int64
	Limit    int
	Offset   int
}

// Logistics — запись о физической доставке по транзакции.
type Logistics struct {
	ID             int64          `json:"logistics_id"`
	TransactionID  int64          `json:"transaction_id"`
	PickupLocation string         `json:"pickup_location"`
	DropLocation   string         `json:"drop_location"`
	DeliveryDate   *Date          `json:"delivery_date"`
	Status         DeliveryStatus `json:"status"`
}

// LogisticsView — запись логистики с данными транзакции и именами участников.
type LogisticsView struct {
	Logistics
	TransactionType           TransactionType `json:"transaction_type"`
	TransactionDeliveryStatus DeliveryStatus  `json:"transaction_delivery_status"`
	FarmerName                *string         `json:"farmer_name"`
	BuyerName                 *string         `json:"buyer_name"`
	NGOName                   *string         `json:"ngo_name"`
	SellerName                *string         `json:"seller_name"`
	CropName                  *string         `json:"crop_name"`
}

// LogisticsFilter задаёт выборку записей логистики; нулевые поля не фильтруют.
type LogisticsFilter struct {
	Status   DeliveryStatus
	SellerID int64
	Limit    int
	Offset   int
}

// Page описывает параметры постраничной выдачи.
type Page struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
