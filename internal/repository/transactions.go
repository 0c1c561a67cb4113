package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mmeshcher/agrosurplus/internal/model"
)

const transactionColumns = `transaction_id, crop_id, farmer_id, buyer_id, ngo_id, seller_id, order_id,
	transaction_type, price, date, delivery_status`

const transactionViewQuery = `SELECT t.transaction_id, t.crop_id, t.farmer_id, t.buyer_id, t.ngo_id,
		t.seller_id, t.order_id, t.transaction_type, t.price, t.date, t.delivery_status,
		f.name, b.name, n.name, s.name, c.crop_name
	FROM transactions t
	LEFT JOIN farmers f ON f.id = t.farmer_id
	LEFT JOIN buyers b ON b.id = t.buyer_id
	LEFT JOIN ngos n ON n.id = t.ngo_id
	LEFT JOIN sellers s ON s.id = t.seller_id
	LEFT JOIN crops c ON c.crop_id = t.crop_id`

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	var (
		t        model.Transaction
		txType   string
		date     time.Time
		delivery string
	)
	err := row.Scan(&t.ID, &t.CropID, &t.FarmerID, &t.BuyerID, &t.NGOID, &t.SellerID, &t.OrderID,
		&txType, &t.Price, &date, &delivery)
	if err != nil {
		return nil, err
	}

	t.Type = model.TransactionType(txType)
	t.Date = model.NewDate(date)
	t.DeliveryStatus = model.DeliveryStatus(delivery)
	return &t, nil
}

func scanTransactionView(row pgx.Row) (*model.TransactionView, error) {
	var (
		v        model.TransactionView
		txType   string
		date     time.Time
		delivery string
	)
	err := row.Scan(&v.ID, &v.CropID, &v.FarmerID, &v.BuyerID, &v.NGOID, &v.SellerID, &v.OrderID,
		&txType, &v.Price, &date, &delivery,
		&v.FarmerName, &v.BuyerName, &v.NGOName, &v.SellerName, &v.CropName)
	if err != nil {
		return nil, err
	}

	v.Type = model.TransactionType(txType)
	v.Date = model.NewDate(date)
	v.DeliveryStatus = model.DeliveryStatus(delivery)
	return &v, nil
}

// CreateTransaction сохраняет транзакцию. Если указан заказ, он блокируется
// и помечается исполненным в той же транзакции БД.
func (r *PostgresRepository) CreateTransaction(ctx context.Context, t model.Transaction) (*model.Transaction, error) {
	var created *model.Transaction

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM crops WHERE crop_id = $1)`, t.CropID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check crop: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: crop %d", model.ErrNotFound, t.CropID)
		}

		if t.OrderID != nil {
			o := model.Order{ID: *t.OrderID}
			var status string
			err := tx.QueryRow(ctx,
				`SELECT crop_id, buyer_id, status FROM orders WHERE order_id = $1 FOR UPDATE`, o.ID,
			).Scan(&o.CropID, &o.BuyerID, &status)
			if err != nil {
				return err
			}
			o.Status = model.OrderStatus(status)

			if err := o.ConfirmBy(t); err != nil {
				return err
			}

			_, err = tx.Exec(ctx,
				`UPDATE orders SET status = $2 WHERE order_id = $1`,
				o.ID, string(model.OrderFulfilled),
			)
			if err != nil {
				return fmt.Errorf("fulfil order: %w", err)
			}
		}

		row := tx.QueryRow(ctx,
			`INSERT INTO transactions
			 (crop_id, farmer_id, buyer_id, ngo_id, seller_id, order_id, transaction_type, price, date, delivery_status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 RETURNING `+transactionColumns,
			t.CropID, t.FarmerID, t.BuyerID, t.NGOID, t.SellerID, t.OrderID,
			string(t.Type), t.Price, t.Date.Time, string(t.DeliveryStatus),
		)
		created, err = scanTransaction(row)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, mapError("create transaction", err)
	}

	return created, nil
}

// GetTransaction возвращает транзакцию с именами участников.
func (r *PostgresRepository) GetTransaction(ctx context.Context, id int64) (*model.TransactionView, error) {
	row := r.pool.QueryRow(ctx, transactionViewQuery+` WHERE t.transaction_id = $1`, id)

	v, err := scanTransactionView(row)
	if err != nil {
		return nil, mapError(fmt.Sprintf("get transaction %d", id), err)
	}
	return v, nil
}

// ListTransactions возвращает транзакции по фильтру, новые первыми.
func (r *PostgresRepository) ListTransactions(ctx context.Context, f model.TransactionFilter) ([]model.TransactionView, error) {
	query := transactionViewQuery + `
	WHERE ($3::text = '' OR t.transaction_type = $3)
	  AND ($4::bigint = 0 OR t.farmer_id = $4)
	ORDER BY t.date DESC, t.transaction_id DESC
	LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limitArg(f.Limit), offsetArg(f.Offset), string(f.Type), f.FarmerID)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	var res []model.TransactionView
	for rows.Next() {
		v, err := scanTransactionView(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		res = append(res, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// UpdateTransactionDeliveryStatus обновляет статус доставки транзакции.
func (r *PostgresRepository) UpdateTransactionDeliveryStatus(ctx context.Context, id int64, status model.DeliveryStatus) (*model.Transaction, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE transactions SET delivery_status = $2 WHERE transaction_id = $1 RETURNING `+transactionColumns,
		id, string(status),
	)

	t, err := scanTransaction(row)
	if err != nil {
		return nil, mapError(fmt.Sprintf("update transaction %d delivery status", id), err)
	}
	return t, nil
}
