package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mmeshcher/agrosurplus/internal/model"
	"github.com/shopspring/decimal"
)

const cropColumns = `crop_id, farmer_id, crop_name, quantity, unit, harvest_date, expiry_date,
	price_per_unit, status, created_at`

func scanCrop(row pgx.Row) (*model.Crop, error) {
	var (
		c       model.Crop
		harvest *time.Time
		expiry  *time.Time
		status  string
	)
	err := row.Scan(&c.ID, &c.FarmerID, &c.Name, &c.Quantity, &c.Unit, &harvest, &expiry,
		&c.PricePerUnit, &status, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	c.HarvestDate = dateFromNull(harvest)
	c.ExpiryDate = dateFromNull(expiry)
	c.Status = model.CropStatus(status)
	return &c, nil
}

// CreateCrop сохраняет новую партию урожая.
func (r *PostgresRepository) CreateCrop(ctx context.Context, c model.Crop) (*model.Crop, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO crops (farmer_id, crop_name, quantity, unit, harvest_date, expiry_date, price_per_unit, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+cropColumns,
		c.FarmerID, c.Name, c.Quantity, c.Unit, dateArg(c.HarvestDate), dateArg(c.ExpiryDate),
		c.PricePerUnit, string(c.Status),
	)

	created, err := scanCrop(row)
	if err != nil {
		return nil, mapError("create crop", err)
	}
	return created, nil
}

// GetCrop возвращает партию по идентификатору.
func (r *PostgresRepository) GetCrop(ctx context.Context, id int64) (*model.Crop, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+cropColumns+` FROM crops WHERE crop_id = $1`, id)

	c, err := scanCrop(row)
	if err != nil {
		return nil, mapError(fmt.Sprintf("get crop %d", id), err)
	}
	return c, nil
}

// ListCrops возвращает партии, новые первыми.
func (r *PostgresRepository) ListCrops(ctx context.Context, f model.CropFilter) ([]model.Crop, error) {
	query := `SELECT ` + cropColumns + ` FROM crops`
	args := []any{limitArg(f.Limit), offsetArg(f.Offset)}
	if f.OnlyAvailable {
		query += ` WHERE status = $3 AND quantity > 0 AND (expiry_date IS NULL OR expiry_date >= $4)`
		args = append(args, string(model.CropAvailable), model.NewDate(f.AsOf).Time)
	}
	query += ` ORDER BY crop_id DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select crops: %w", err)
	}
	defer rows.Close()

	var crops []model.Crop
	for rows.Next() {
		c, err := scanCrop(rows)
		if err != nil {
			return nil, fmt.Errorf("scan crop: %w", err)
		}
		crops = append(crops, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return crops, nil
}

// lockCrop читает партию с блокировкой строки до конца транзакции.
func lockCrop(ctx context.Context, tx pgx.Tx, id int64) (*model.Crop, error) {
	row := tx.QueryRow(ctx, `SELECT `+cropColumns+` FROM crops WHERE crop_id = $1 FOR UPDATE`, id)
	return scanCrop(row)
}

func storeCropStock(ctx context.Context, tx pgx.Tx, c *model.Crop) error {
	_, err := tx.Exec(ctx,
		`UPDATE crops SET quantity = $2, status = $3 WHERE crop_id = $1`,
		c.ID, c.Quantity, string(c.Status),
	)
	if err != nil {
		return fmt.Errorf("update crop stock: %w", err)
	}
	return nil
}

// DecrementCrop атомарно списывает delta под блокировкой строки и пересчитывает статус.
func (r *PostgresRepository) DecrementCrop(ctx context.Context, id int64, delta decimal.Decimal) (*model.Crop, error) {
	var updated *model.Crop

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		c, err := lockCrop(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := c.Withdraw(delta); err != nil {
			return err
		}
		if err := storeCropStock(ctx, tx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, mapError(fmt.Sprintf("decrement crop %d", id), err)
	}

	return updated, nil
}

// SetCropStatus перезаписывает статус партии.
func (r *PostgresRepository) SetCropStatus(ctx context.Context, id int64, status model.CropStatus) (*model.Crop, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE crops SET status = $2 WHERE crop_id = $1 RETURNING `+cropColumns,
		id, string(status),
	)

	c, err := scanCrop(row)
	if err != nil {
		return nil, mapError(fmt.Sprintf("set crop %d status", id), err)
	}
	return c, nil
}

// SetCropPrice устанавливает цену за единицу.
func (r *PostgresRepository) SetCropPrice(ctx context.Context, id int64, price decimal.Decimal) (*model.Crop, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE crops SET price_per_unit = $2 WHERE crop_id = $1 RETURNING `+cropColumns,
		id, price,
	)

	c, err := scanCrop(row)
	if err != nil {
		return nil, mapError(fmt.Sprintf("set crop %d price", id), err)
	}
	return c, nil
}

// ExpireCrops переводит в Expired доступные партии, срок годности которых истёк до asOf.
func (r *PostgresRepository) ExpireCrops(ctx context.Context, asOf time.Time) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`UPDATE crops SET status = $1
		 WHERE status = $2 AND expiry_date IS NOT NULL AND expiry_date < $3
		 RETURNING crop_id`,
		string(model.CropExpired), string(model.CropAvailable), model.NewDate(asOf).Time,
	)
	if err != nil {
		return nil, fmt.Errorf("expire crops: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan crop id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return ids, nil
}
