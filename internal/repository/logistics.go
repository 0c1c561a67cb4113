package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mmeshcher/agrosurplus/internal/model"
)

const logisticsColumns = `logistics_id, transaction_id, pickup_location, drop_location, delivery_date, status`

const logisticsViewQuery = `SELECT l.logistics_id, l.transaction_id, l.pickup_location, l.drop_location,
		l.delivery_date, l.status, t.transaction_type, t.delivery_status,
		f.name, b.name, n.name, s.name, c.crop_name
	FROM logistics l
	JOIN transactions t ON t.transaction_id = l.transaction_id
	LEFT JOIN farmers f ON f.id = t.farmer_id
	LEFT JOIN buyers b ON b.id = t.buyer_id
	LEFT JOIN ngos n ON n.id = t.ngo_id
	LEFT JOIN sellers s ON s.id = t.seller_id
	LEFT JOIN crops c ON c.crop_id = t.crop_id`

func scanLogistics(row pgx.Row) (*model.Logistics, error) {
	var (
		l      model.Logistics
		date   *time.Time
		status string
	)
	if err := row.Scan(&l.ID, &l.TransactionID, &l.PickupLocation, &l.DropLocation, &date, &status); err != nil {
		return nil, err
	}

	l.DeliveryDate = dateFromNull(date)
	l.Status = model.DeliveryStatus(status)
	return &l, nil
}

func scanLogisticsView(row pgx.Row) (*model.LogisticsView, error) {
	var (
		v        model.LogisticsView
		date     *time.Time
		status   string
		txType   string
		txStatus string
	)
	err := row.Scan(&v.ID, &v.TransactionID, &v.PickupLocation, &v.DropLocation, &date, &status,
		&txType, &txStatus,
		&v.FarmerName, &v.BuyerName, &v.NGOName, &v.SellerName, &v.CropName)
	if err != nil {
		return nil, err
	}

	v.DeliveryDate = dateFromNull(date)
	v.Status = model.DeliveryStatus(status)
	v.TransactionType = model.TransactionType(txType)
	v.TransactionDeliveryStatus = model.DeliveryStatus(txStatus)
	return &v, nil
}

// CreateLogistics сохраняет запись о доставке. Вторая запись для той же транзакции
// отклоняется ограничением уникальности.
func (r *PostgresRepository) CreateLogistics(ctx context.Context, l model.Logistics) (*model.Logistics, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO logistics (transaction_id, pickup_location, drop_location, delivery_date, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+logisticsColumns,
		l.TransactionID, l.PickupLocation, l.DropLocation, dateArg(l.DeliveryDate), string(l.Status),
	)

	created, err := scanLogistics(row)
	if err != nil {
		return nil, mapError(fmt.Sprintf("create logistics for transaction %d", l.TransactionID), err)
	}
	return created, nil
}

// GetLogistics возвращает запись логистики с данными транзакции.
func (r *PostgresRepository) GetLogistics(ctx context.Context, id int64) (*model.LogisticsView, error) {
	row := r.pool.QueryRow(ctx, logisticsViewQuery+` WHERE l.logistics_id = $1`, id)

	v, err := scanLogisticsView(row)
	if err != nil {
		return nil, mapError(fmt.Sprintf("get logistics %d", id), err)
	}
	return v, nil
}

// GetLogisticsByTransaction возвращает запись логистики по транзакции.
func (r *PostgresRepository) GetLogisticsByTransaction(ctx context.Context, transactionID int64) (*model.LogisticsView, error) {
	row := r.pool.QueryRow(ctx, logisticsViewQuery+` WHERE l.transaction_id = $1`, transactionID)

	v, err := scanLogisticsView(row)
	if err != nil {
		return nil, mapError(fmt.Sprintf("get logistics for transaction %d", transactionID), err)
	}
	return v, nil
}

// ListLogistics возвращает записи логистики по фильтру, новые первыми.
func (r *PostgresRepository) ListLogistics(ctx context.Context, f model.LogisticsFilter) ([]model.LogisticsView, error) {
	query := logisticsViewQuery + `
	WHERE ($3::text = '' OR l.status = $3)
	  AND ($4::bigint = 0 OR t.seller_id = $4)
	ORDER BY l.logistics_id DESC
	LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limitArg(f.Limit), offsetArg(f.Offset), string(f.Status), f.SellerID)
	if err != nil {
		return nil, fmt.Errorf("select logistics: %w", err)
	}
	defer rows.Close()

	var res []model.LogisticsView
	for rows.Next() {
		v, err := scanLogisticsView(rows)
		if err != nil {
			return nil, fmt.Errorf("scan logistics: %w", err)
		}
		res = append(res, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// UpdateLogisticsStatus перезаписывает статус доставки.
func (r *PostgresRepository) UpdateLogisticsStatus(ctx context.Context, id int64, status model.DeliveryStatus) (*model.Logistics, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE logistics SET status = $2 WHERE logistics_id = $1 RETURNING `+logisticsColumns,
		id, string(status),
	)

	l, err := scanLogistics(row)
	if err != nil {
		return nil, mapError(fmt.Sprintf("update logistics %d status", id), err)
	}
	return l, nil
}

// UpdateLogisticsDeliveryDate устанавливает плановую дату доставки.
func (r *PostgresRepository) UpdateLogisticsDeliveryDate(ctx context.Context, id int64, date model.Date) (*model.Logistics, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE logistics SET delivery_date = $2 WHERE logistics_id = $1 RETURNING `+logisticsColumns,
		id, date.Time,
	)

	l, err := scanLogistics(row)
	if err != nil {
		return nil, mapError(fmt.Sprintf("update logistics %d delivery date", id), err)
	}
	return l, nil
}
