package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mmeshcher/agrosurplus/internal/model"
)

const orderColumns = `order_id, crop_id, buyer_id, quantity, status, order_date`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o      model.Order
		status string
	)
	if err := row.Scan(&o.ID, &o.CropID, &o.BuyerID, &o.Quantity, &status, &o.OrderDate); err != nil {
		return nil, err
	}
	o.Status = model.OrderStatus(status)
	return &o, nil
}

// CreateOrder в одной транзакции блокирует строку партии, резервирует количество,
// сохраняет заказ и обновляет остаток. Возвращает заказ и партию после списания.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o model.Order, asOf time.Time) (*model.Order, *model.Crop, error) {
	var (
		created *model.Order
		crop    *model.Crop
	)

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		// Блокируем строку партии, чтобы параллельные заказы не превысили остаток.
		c, err := lockCrop(ctx, tx, o.CropID)
		if err != nil {
			return err
		}
		if err := c.Reserve(o.Quantity, asOf); err != nil {
			return err
		}

		row := tx.QueryRow(ctx,
			`INSERT INTO orders (crop_id, buyer_id, quantity, status)
			 VALUES ($1, $2, $3, $4)
			 RETURNING `+orderColumns,
			o.CropID, o.BuyerID, o.Quantity, string(model.OrderPending),
		)
		ord, err := scanOrder(row)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		if err := storeCropStock(ctx, tx, c); err != nil {
			return err
		}

		created, crop = ord, c
		return nil
	})
	if err != nil {
		return nil, nil, mapError(fmt.Sprintf("create order for crop %d", o.CropID), err)
	}

	return created, crop, nil
}

// GetOrder возвращает заказ по идентификатору.
func (r *PostgresRepository) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, id)

	o, err := scanOrder(row)
	if err != nil {
		return nil, mapError(fmt.Sprintf("get order %d", id), err)
	}
	return o, nil
}

// ListOrdersByBuyer возвращает заказы покупателя, новые первыми.
func (r *PostgresRepository) ListOrdersByBuyer(ctx context.Context, buyerID int64, limit, offset int) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+`
		 FROM orders
		 WHERE buyer_id = $1
		 ORDER BY order_id DESC
		 LIMIT $2 OFFSET $3`,
		buyerID, limitArg(limit), offsetArg(offset),
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

// UpdateOrderStatus перезаписывает статус заказа.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE orders SET status = $2 WHERE order_id = $1 RETURNING `+orderColumns,
		id, string(status),
	)

	o, err := scanOrder(row)
	if err != nil {
		return nil, mapError(fmt.Sprintf("update order %d", id), err)
	}
	return o, nil
}
