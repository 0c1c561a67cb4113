package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mmeshcher/agrosurplus/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryFixture struct {
	repo   *MemoryRepository
	farmer *model.Party
	buyer  *model.Party
	ngo    *model.Party
	seller *model.Party
}

func newMemoryFixture(t *testing.T) memoryFixture {
	t.Helper()

	repo := NewMemoryRepository()
	ctx := context.Background()

	create := func(kind model.PartyKind, name string) *model.Party {
		p, err := repo.CreateParty(ctx, model.Party{Kind: kind, Name: name})
		require.NoError(t, err)
		return p
	}

	return memoryFixture{
		repo:   repo,
		farmer: create(model.PartyFarmer, "Ravi"),
		buyer:  create(model.PartyBuyer, "FreshMart"),
		ngo:    create(model.PartyNGO, "FoodBank"),
		seller: create(model.PartySeller, "QuickHaul"),
	}
}

func (f memoryFixture) crop(t *testing.T, qty int64) *model.Crop {
	t.Helper()

	c, err := f.repo.CreateCrop(context.Background(), model.Crop{
		FarmerID: f.farmer.ID,
		Name:     "tomato",
		Quantity: decimal.NewFromInt(qty),
		Unit:     "kg",
		Status:   model.CropAvailable,
	})
	require.NoError(t, err)
	return c
}

func TestMemoryCreateCrop_UnknownFarmer(t *testing.T) {
	repo := NewMemoryRepository()

	_, err := repo.CreateCrop(context.Background(), model.Crop{FarmerID: 42, Name: "rice", Quantity: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMemoryCreateOrder_Sequence(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	now := time.Now()
	c := f.crop(t, 100)

	o, crop, err := f.repo.CreateOrder(ctx, model.Order{CropID: c.ID, BuyerID: f.buyer.ID, Quantity: decimal.NewFromInt(30)}, now)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, o.Status)
	assert.True(t, crop.Quantity.Equal(decimal.NewFromInt(70)))
	assert.Equal(t, model.CropAvailable, crop.Status)

	_, crop, err = f.repo.CreateOrder(ctx, model.Order{CropID: c.ID, BuyerID: f.buyer.ID, Quantity: decimal.NewFromInt(70)}, now)
	require.NoError(t, err)
	assert.True(t, crop.Quantity.IsZero())
	assert.Equal(t, model.CropMatched, crop.Status)

	_, _, err = f.repo.CreateOrder(ctx, model.Order{CropID: c.ID, BuyerID: f.buyer.ID, Quantity: decimal.NewFromInt(1)}, now)
	assert.ErrorIs(t, err, model.ErrInvalidQuantity)

	orders, err := f.repo.ListOrdersByBuyer(ctx, f.buyer.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestMemoryCreateOrder_OverOrderLeavesStock(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	c := f.crop(t, 10)

	_, _, err := f.repo.CreateOrder(ctx, model.Order{CropID: c.ID, BuyerID: f.buyer.ID, Quantity: decimal.NewFromInt(11)}, time.Now())
	require.ErrorIs(t, err, model.ErrInvalidQuantity)

	got, err := f.repo.GetCrop(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(decimal.NewFromInt(10)))

	orders, err := f.repo.ListOrdersByBuyer(ctx, f.buyer.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestMemoryCreateOrder_Concurrent(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	c := f.crop(t, 100)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.repo.CreateOrder(ctx, model.Order{CropID: c.ID, BuyerID: f.buyer.ID, Quantity: decimal.NewFromInt(15)}, time.Now())
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	got, err := f.repo.GetCrop(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, succeeded)
	assert.True(t, got.Quantity.Equal(decimal.NewFromInt(10)))
	assert.False(t, got.Quantity.IsNegative())
}

func TestMemoryCreateTransaction_FulfilsOrder(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	c := f.crop(t, 50)

	o, _, err := f.repo.CreateOrder(ctx, model.Order{CropID: c.ID, BuyerID: f.buyer.ID, Quantity: decimal.NewFromInt(5)}, time.Now())
	require.NoError(t, err)

	tx, err := f.repo.CreateTransaction(ctx, model.Transaction{
		CropID:         c.ID,
		FarmerID:       f.farmer.ID,
		BuyerID:        &f.buyer.ID,
		SellerID:       f.seller.ID,
		OrderID:        &o.ID,
		Type:           model.TransactionCommercial,
		Price:          decimal.NewFromInt(120),
		Date:           model.NewDate(time.Now()),
		DeliveryStatus: model.DeliveryPending,
	})
	require.NoError(t, err)

	got, err := f.repo.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderFulfilled, got.Status)

	view, err := f.repo.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	require.NotNil(t, view.BuyerName)
	assert.Equal(t, "FreshMart", *view.BuyerName)
	assert.Nil(t, view.NGOName)
	require.NotNil(t, view.CropName)
	assert.Equal(t, "tomato", *view.CropName)
}

func TestMemoryCreateTransaction_OrderMustBePending(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	onions := f.crop(t, 50)
	carrots := f.crop(t, 50)

	order := func() *model.Order {
		o, _, err := f.repo.CreateOrder(ctx, model.Order{CropID: onions.ID, BuyerID: f.buyer.ID, Quantity: decimal.NewFromInt(5)}, time.Now())
		require.NoError(t, err)
		return o
	}
	sale := func(cropID, orderID int64, buyerID *int64) model.Transaction {
		return model.Transaction{
			CropID:         cropID,
			FarmerID:       f.farmer.ID,
			BuyerID:        buyerID,
			SellerID:       f.seller.ID,
			OrderID:        &orderID,
			Type:           model.TransactionCommercial,
			Date:           model.NewDate(time.Now()),
			DeliveryStatus: model.DeliveryPending,
		}
	}

	t.Run("cancelled order", func(t *testing.T) {
		o := order()
		_, err := f.repo.UpdateOrderStatus(ctx, o.ID, model.OrderCancelled)
		require.NoError(t, err)

		_, err = f.repo.CreateTransaction(ctx, sale(onions.ID, o.ID, &f.buyer.ID))
		assert.ErrorIs(t, err, model.ErrInvalidStatus)

		got, err := f.repo.GetOrder(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderCancelled, got.Status)
	})

	t.Run("order for another crop", func(t *testing.T) {
		o := order()

		_, err := f.repo.CreateTransaction(ctx, sale(carrots.ID, o.ID, &f.buyer.ID))
		assert.ErrorIs(t, err, model.ErrInvalidValue)

		got, err := f.repo.GetOrder(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderPending, got.Status)
	})

	t.Run("order of another buyer", func(t *testing.T) {
		o := order()
		other, err := f.repo.CreateParty(ctx, model.Party{Kind: model.PartyBuyer, Name: "CornerShop"})
		require.NoError(t, err)

		_, err = f.repo.CreateTransaction(ctx, sale(onions.ID, o.ID, &other.ID))
		assert.ErrorIs(t, err, model.ErrInvalidValue)
	})

	t.Run("second transaction for the same order", func(t *testing.T) {
		o := order()

		_, err := f.repo.CreateTransaction(ctx, sale(onions.ID, o.ID, &f.buyer.ID))
		require.NoError(t, err)

		_, err = f.repo.CreateTransaction(ctx, sale(onions.ID, o.ID, &f.buyer.ID))
		assert.ErrorIs(t, err, model.ErrInvalidStatus)

		_, err = f.repo.UpdateOrderStatus(ctx, o.ID, model.OrderPending)
		require.NoError(t, err)

		_, err = f.repo.CreateTransaction(ctx, sale(onions.ID, o.ID, &f.buyer.ID))
		assert.ErrorIs(t, err, model.ErrDuplicate)
	})
}

func TestMemoryCreateTransaction_MissingRefs(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	c := f.crop(t, 5)
	missing := int64(999)

	tests := []struct {
		name string
		tx   model.Transaction
	}{
		{
			name: "unknown crop",
			tx:   model.Transaction{CropID: 999, FarmerID: f.farmer.ID, SellerID: f.seller.ID, NGOID: &f.ngo.ID},
		},
		{
			name: "unknown ngo",
			tx:   model.Transaction{CropID: c.ID, FarmerID: f.farmer.ID, SellerID: f.seller.ID, NGOID: &missing},
		},
		{
			name: "unknown order",
			tx:   model.Transaction{CropID: c.ID, FarmerID: f.farmer.ID, SellerID: f.seller.ID, NGOID: &f.ngo.ID, OrderID: &missing},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.repo.CreateTransaction(ctx, tt.tx)
			assert.ErrorIs(t, err, model.ErrNotFound)
		})
	}
}

func TestMemoryLogistics(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	c := f.crop(t, 5)

	tx, err := f.repo.CreateTransaction(ctx, model.Transaction{
		CropID:         c.ID,
		FarmerID:       f.farmer.ID,
		NGOID:          &f.ngo.ID,
		SellerID:       f.seller.ID,
		Type:           model.TransactionCharity,
		Date:           model.NewDate(time.Now()),
		DeliveryStatus: model.DeliveryPending,
	})
	require.NoError(t, err)

	l, err := f.repo.CreateLogistics(ctx, model.Logistics{
		TransactionID:  tx.ID,
		PickupLocation: "Farm gate",
		DropLocation:   "Shelter",
		Status:         model.DeliveryPending,
	})
	require.NoError(t, err)

	_, err = f.repo.CreateLogistics(ctx, model.Logistics{TransactionID: tx.ID, PickupLocation: "a", DropLocation: "b"})
	assert.ErrorIs(t, err, model.ErrDuplicate)

	_, err = f.repo.CreateLogistics(ctx, model.Logistics{TransactionID: 999, PickupLocation: "a", DropLocation: "b"})
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.repo.UpdateLogisticsStatus(ctx, l.ID, model.DeliveryInTransit)
	require.NoError(t, err)

	bySeller, err := f.repo.ListLogistics(ctx, model.LogisticsFilter{SellerID: f.seller.ID})
	require.NoError(t, err)
	require.Len(t, bySeller, 1)
	assert.Equal(t, model.DeliveryInTransit, bySeller[0].Status)
	assert.Equal(t, model.TransactionCharity, bySeller[0].TransactionType)

	pending, err := f.repo.ListLogistics(ctx, model.LogisticsFilter{Status: model.DeliveryPending})
	require.NoError(t, err)
	assert.Empty(t, pending)

	date, err := model.ParseDate("2025-06-01")
	require.NoError(t, err)
	updated, err := f.repo.UpdateLogisticsDeliveryDate(ctx, l.ID, date)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", updated.DeliveryDate.String())

	view, err := f.repo.GetLogisticsByTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, l.ID, view.ID)
}

func TestMemoryExpireCrops(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	now := time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)
	yesterday := model.NewDate(now.AddDate(0, 0, -1))
	today := model.NewDate(now)

	stale, err := f.repo.CreateCrop(ctx, model.Crop{FarmerID: f.farmer.ID, Name: "milk", Quantity: decimal.NewFromInt(3), ExpiryDate: &yesterday, Status: model.CropAvailable})
	require.NoError(t, err)
	fresh, err := f.repo.CreateCrop(ctx, model.Crop{FarmerID: f.farmer.ID, Name: "bread", Quantity: decimal.NewFromInt(3), ExpiryDate: &today, Status: model.CropAvailable})
	require.NoError(t, err)

	available, err := f.repo.ListCrops(ctx, model.CropFilter{OnlyAvailable: true, AsOf: now})
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, fresh.ID, available[0].ID)

	ids, err := f.repo.ExpireCrops(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, []int64{stale.ID}, ids)

	got, err := f.repo.GetCrop(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CropExpired, got.Status)

	ids, err = f.repo.ExpireCrops(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{1, 2}, paginate(items, 2, 0))
	assert.Equal(t, []int{5}, paginate(items, 2, 4))
	assert.Equal(t, []int{3, 4, 5}, paginate(items, 0, 2))
	assert.Nil(t, paginate(items, 2, 5))
	assert.Equal(t, []int{1, 2}, paginate(items, 2, -400))
}

func TestMemoryListParties_HugeOffset(t *testing.T) {
	f := newMemoryFixture(t)

	parties, err := f.repo.ListParties(context.Background(), model.PartyFarmer, 200, -400)
	require.NoError(t, err)
	assert.Len(t, parties, 1)
}
