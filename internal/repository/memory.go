package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mmeshcher/agrosurplus/internal/model"
	"github.com/shopspring/decimal"
)

// MemoryRepository — хранилище в памяти процесса. Используется, когда DATABASE_URI не задан, и в тестах.
// Все изменения выполняются под одной блокировкой, поэтому списание остатка атомарно.
type MemoryRepository struct {
	mu sync.RWMutex

	parties      map[model.PartyKind]map[int64]model.Party
	crops        map[int64]model.Crop
	orders       map[int64]model.Order
	transactions map[int64]model.Transaction
	logistics    map[int64]model.Logistics

	seq map[string]int64
	now func() time.Time
}

// NewMemoryRepository создаёт пустое хранилище в памяти.
func NewMemoryRepository() *MemoryRepository {
	parties := make(map[model.PartyKind]map[int64]model.Party, len(partyTables))
	for kind := range partyTables {
		parties[kind] = make(map[int64]model.Party)
	}

	return &MemoryRepository{
		parties:      parties,
		crops:        make(map[int64]model.Crop),
		orders:       make(map[int64]model.Order),
		transactions: make(map[int64]model.Transaction),
		logistics:    make(map[int64]model.Logistics),
		seq:          make(map[string]int64),
		now:          time.Now,
	}
}

func (m *MemoryRepository) nextID(table string) int64 {
	m.seq[table]++
	return m.seq[table]
}

func (m *MemoryRepository) partyExists(kind model.PartyKind, id int64) bool {
	_, ok := m.parties[kind][id]
	return ok
}

func (m *MemoryRepository) partyName(kind model.PartyKind, id *int64) *string {
	if id == nil {
		return nil
	}
	p, ok := m.parties[kind][*id]
	if !ok {
		return nil
	}
	name := p.Name
	return &name
}

func (m *MemoryRepository) requireParty(kind model.PartyKind, id int64) error {
	if !m.partyExists(kind, id) {
		return fmt.Errorf("%w: %s %d", model.ErrNotFound, kind, id)
	}
	return nil
}

// paginate возвращает срез [offset, offset+limit); limit <= 0 означает без ограничения.
func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// Ping всегда успешен.
func (m *MemoryRepository) Ping(context.Context) error {
	return nil
}

// Close ничего не делает.
func (m *MemoryRepository) Close() error {
	return nil
}

// CreateParty сохраняет участника.
func (m *MemoryRepository) CreateParty(_ context.Context, p model.Party) (*model.Party, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.parties[p.Kind]; !ok {
		return nil, fmt.Errorf("%w: party kind %q", model.ErrInvalidType, p.Kind)
	}

	p.ID = m.nextID(string(p.Kind))
	p.CreatedAt = m.now()
	m.parties[p.Kind][p.ID] = p
	return &p, nil
}

// ListParties возвращает участников указанного вида в порядке регистрации.
func (m *MemoryRepository) ListParties(_ context.Context, kind model.PartyKind, limit, offset int) ([]model.Party, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byID, ok := m.parties[kind]
	if !ok {
		return nil, fmt.Errorf("%w: party kind %q", model.ErrInvalidType, kind)
	}

	res := make([]model.Party, 0, len(byID))
	for _, p := range byID {
		res = append(res, p)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })

	return paginate(res, limit, offset), nil
}

// CreateCrop сохраняет партию урожая.
func (m *MemoryRepository) CreateCrop(_ context.Context, c model.Crop) (*model.Crop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireParty(model.PartyFarmer, c.FarmerID); err != nil {
		return nil, fmt.Errorf("create crop: %w", err)
	}
	if c.Quantity.IsNegative() {
		return nil, fmt.Errorf("create crop: %w: quantity must not be negative", model.ErrInvalidValue)
	}

	c.ID = m.nextID("crops")
	c.CreatedAt = m.now()
	m.crops[c.ID] = c
	return &c, nil
}

func (m *MemoryRepository) getCrop(id int64) (model.Crop, error) {
	c, ok := m.crops[id]
	if !ok {
		return model.Crop{}, fmt.Errorf("%w: crop %d", model.ErrNotFound, id)
	}
	return c, nil
}

// GetCrop возвращает партию по идентификатору.
func (m *MemoryRepository) GetCrop(_ context.Context, id int64) (*model.Crop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, err := m.getCrop(id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCrops возвращает партии, новые первыми.
func (m *MemoryRepository) ListCrops(_ context.Context, f model.CropFilter) ([]model.Crop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := make([]model.Crop, 0, len(m.crops))
	for _, c := range m.crops {
		if f.OnlyAvailable && (c.Status != model.CropAvailable || !c.Available(f.AsOf).IsPositive()) {
			continue
		}
		res = append(res, c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID > res[j].ID })

	return paginate(res, f.Limit, f.Offset), nil
}

// DecrementCrop атомарно списывает delta и пересчитывает статус.
func (m *MemoryRepository) DecrementCrop(_ context.Context, id int64, delta decimal.Decimal) (*model.Crop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.getCrop(id)
	if err != nil {
		return nil, err
	}
	if err := c.Withdraw(delta); err != nil {
		return nil, fmt.Errorf("decrement crop %d: %w", id, err)
	}

	m.crops[id] = c
	return &c, nil
}

// SetCropStatus перезаписывает статус партии.
func (m *MemoryRepository) SetCropStatus(_ context.Context, id int64, status model.CropStatus) (*model.Crop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.getCrop(id)
	if err != nil {
		return nil, err
	}

	c.Status = status
	m.crops[id] = c
	return &c, nil
}

// SetCropPrice устанавливает цену за единицу.
func (m *MemoryRepository) SetCropPrice(_ context.Context, id int64, price decimal.Decimal) (*model.Crop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.getCrop(id)
	if err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", model.ErrInvalidValue)
	}

	c.PricePerUnit = decimal.NewNullDecimal(price)
	m.crops[id] = c
	return &c, nil
}

// ExpireCrops переводит в Expired доступные партии, срок годности которых истёк до asOf.
func (m *MemoryRepository) ExpireCrops(_ context.Context, asOf time.Time) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	today := model.NewDate(asOf)
	var ids []int64
	for id, c := range m.crops {
		if c.Status != model.CropAvailable || c.ExpiryDate == nil || !c.ExpiryDate.Before(today.Time) {
			continue
		}
		c.Status = model.CropExpired
		m.crops[id] = c
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids, nil
}

// CreateOrder резервирует количество и сохраняет заказ под одной блокировкой.
func (m *MemoryRepository) CreateOrder(_ context.Context, o model.Order, asOf time.Time) (*model.Order, *model.Crop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.getCrop(o.CropID)
	if err != nil {
		return nil, nil, fmt.Errorf("create order: %w", err)
	}
	if err := m.requireParty(model.PartyBuyer, o.BuyerID); err != nil {
		return nil, nil, fmt.Errorf("create order: %w", err)
	}
	if err := c.Reserve(o.Quantity, asOf); err != nil {
		return nil, nil, fmt.Errorf("create order for crop %d: %w", o.CropID, err)
	}

	o.ID = m.nextID("orders")
	o.Status = model.OrderPending
	o.OrderDate = m.now()

	m.orders[o.ID] = o
	m.crops[c.ID] = c
	return &o, &c, nil
}

// GetOrder возвращает заказ по идентификатору.
func (m *MemoryRepository) GetOrder(_ context.Context, id int64) (*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %d", model.ErrNotFound, id)
	}
	return &o, nil
}

// ListOrdersByBuyer возвращает заказы покупателя, новые первыми.
func (m *MemoryRepository) ListOrdersByBuyer(_ context.Context, buyerID int64, limit, offset int) ([]model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var res []model.Order
	for _, o := range m.orders {
		if o.BuyerID == buyerID {
			res = append(res, o)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID > res[j].ID })

	return paginate(res, limit, offset), nil
}

// UpdateOrderStatus перезаписывает статус заказа.
func (m *MemoryRepository) UpdateOrderStatus(_ context.Context, id int64, status model.OrderStatus) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %d", model.ErrNotFound, id)
	}

	o.Status = status
	m.orders[id] = o
	return &o, nil
}

// CreateTransaction сохраняет транзакцию и, если указан заказ, помечает его исполненным.
func (m *MemoryRepository) CreateTransaction(_ context.Context, t model.Transaction) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.getCrop(t.CropID); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	refs := []struct {
		kind model.PartyKind
		id   *int64
	}{
		{model.PartyFarmer, &t.FarmerID},
		{model.PartySeller, &t.SellerID},
		{model.PartyBuyer, t.BuyerID},
		{model.PartyNGO, t.NGOID},
	}
	for _, ref := range refs {
		if ref.id == nil {
			continue
		}
		if err := m.requireParty(ref.kind, *ref.id); err != nil {
			return nil, fmt.Errorf("create transaction: %w", err)
		}
	}
	if (t.BuyerID == nil) == (t.NGOID == nil) {
		return nil, fmt.Errorf("create transaction: %w", model.ErrInvalidRecipient)
	}

	if t.OrderID != nil {
		o, ok := m.orders[*t.OrderID]
		if !ok {
			return nil, fmt.Errorf("create transaction: %w: order %d", model.ErrNotFound, *t.OrderID)
		}
		if err := o.ConfirmBy(t); err != nil {
			return nil, fmt.Errorf("create transaction: %w", err)
		}
		for _, other := range m.transactions {
			if other.OrderID != nil && *other.OrderID == o.ID {
				return nil, fmt.Errorf("create transaction: %w: order %d already has a transaction", model.ErrDuplicate, o.ID)
			}
		}
		o.Status = model.OrderFulfilled
		m.orders[o.ID] = o
	}

	t.ID = m.nextID("transactions")
	m.transactions[t.ID] = t
	return &t, nil
}

func (m *MemoryRepository) transactionView(t model.Transaction) model.TransactionView {
	v := model.TransactionView{Transaction: t}
	v.FarmerName = m.partyName(model.PartyFarmer, &t.FarmerID)
	v.BuyerName = m.partyName(model.PartyBuyer, t.BuyerID)
	v.NGOName = m.partyName(model.PartyNGO, t.NGOID)
	v.SellerName = m.partyName(model.PartySeller, &t.SellerID)
	if c, ok := m.crops[t.CropID]; ok {
		name := c.Name
		v.CropName = &name
	}
	return v
}

// GetTransaction возвращает транзакцию с именами участников.
func (m *MemoryRepository) GetTransaction(_ context.Context, id int64) (*model.TransactionView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.transactions[id]
	if !ok {
		return nil, fmt.Errorf("%w: transaction %d", model.ErrNotFound, id)
	}
	v := m.transactionView(t)
	return &v, nil
}

// ListTransactions возвращает транзакции по фильтру, новые первыми.
func (m *MemoryRepository) ListTransactions(_ context.Context, f model.TransactionFilter) ([]model.TransactionView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var res []model.TransactionView
	for _, t := range m.transactions {
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.FarmerID != 0 && t.FarmerID != f.FarmerID {
			continue
		}
		res = append(res, m.transactionView(t))
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].Date.Equal(res[j].Date.Time) {
			return res[i].Date.After(res[j].Date.Time)
		}
		return res[i].ID > res[j].ID
	})

	return paginate(res, f.Limit, f.Offset), nil
}

// UpdateTransactionDeliveryStatus обновляет статус доставки транзакции.
func (m *MemoryRepository) UpdateTransactionDeliveryStatus(_ context.Context, id int64, status model.DeliveryStatus) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.transactions[id]
	if !ok {
		return nil, fmt.Errorf("%w: transaction %d", model.ErrNotFound, id)
	}

	t.DeliveryStatus = status
	m.transactions[id] = t
	return &t, nil
}

// CreateLogistics сохраняет запись о доставке; на транзакцию допускается одна запись.
func (m *MemoryRepository) CreateLogistics(_ context.Context, l model.Logistics) (*model.Logistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transactions[l.TransactionID]; !ok {
		return nil, fmt.Errorf("%w: transaction %d", model.ErrNotFound, l.TransactionID)
	}
	for _, existing := range m.logistics {
		if existing.TransactionID == l.TransactionID {
			return nil, fmt.Errorf("%w: logistics for transaction %d already exists", model.ErrDuplicate, l.TransactionID)
		}
	}

	l.ID = m.nextID("logistics")
	m.logistics[l.ID] = l
	return &l, nil
}

func (m *MemoryRepository) logisticsView(l model.Logistics) model.LogisticsView {
	v := model.LogisticsView{Logistics: l}
	if t, ok := m.transactions[l.TransactionID]; ok {
		tv := m.transactionView(t)
		v.TransactionType = t.Type
		v.TransactionDeliveryStatus = t.DeliveryStatus
		v.FarmerName = tv.FarmerName
		v.BuyerName = tv.BuyerName
		v.NGOName = tv.NGOName
		v.SellerName = tv.SellerName
		v.CropName = tv.CropName
	}
	return v
}

// GetLogistics возвращает запись логистики с данными транзакции.
func (m *MemoryRepository) GetLogistics(_ context.Context, id int64) (*model.LogisticsView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.logistics[id]
	if !ok {
		return nil, fmt.Errorf("%w: logistics %d", model.ErrNotFound, id)
	}
	v := m.logisticsView(l)
	return &v, nil
}

// GetLogisticsByTransaction возвращает запись логистики по транзакции.
func (m *MemoryRepository) GetLogisticsByTransaction(_ context.Context, transactionID int64) (*model.LogisticsView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, l := range m.logistics {
		if l.TransactionID == transactionID {
			v := m.logisticsView(l)
			return &v, nil
		}
	}
	return nil, fmt.Errorf("%w: logistics for transaction %d", model.ErrNotFound, transactionID)
}

// ListLogistics возвращает записи логистики по фильтру, новые первыми.
func (m *MemoryRepository) ListLogistics(_ context.Context, f model.LogisticsFilter) ([]model.LogisticsView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var res []model.LogisticsView
	for _, l := range m.logistics {
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		if f.SellerID != 0 && m.transactions[l.TransactionID].SellerID != f.SellerID {
			continue
		}
		res = append(res, m.logisticsView(l))
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID > res[j].ID })

	return paginate(res, f.Limit, f.Offset), nil
}

// UpdateLogisticsStatus перезаписывает статус доставки.
func (m *MemoryRepository) UpdateLogisticsStatus(_ context.Context, id int64, status model.DeliveryStatus) (*model.Logistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.logistics[id]
	if !ok {
		return nil, fmt.Errorf("%w: logistics %d", model.ErrNotFound, id)
	}

	l.Status = status
	m.logistics[id] = l
	return &l, nil
}

// UpdateLogisticsDeliveryDate устанавливает плановую дату доставки.
func (m *MemoryRepository) UpdateLogisticsDeliveryDate(_ context.Context, id int64, date model.Date) (*model.Logistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.logistics[id]
	if !ok {
		return nil, fmt.Errorf("%w: logistics %d", model.ErrNotFound, id)
	}

	l.DeliveryDate = &date
	m.logistics[id] = l
	return &l, nil
}
