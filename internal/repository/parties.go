package repository

import (
	"context"
	"fmt"

	"github.com/mmeshcher/agrosurplus/internal/model"
)

var partyTables = map[model.PartyKind]string{
	model.PartyFarmer: "farmers",
	model.PartyBuyer:  "buyers",
	model.PartyNGO:    "ngos",
	model.PartySeller: "sellers",
}

func partyTable(kind model.PartyKind) (string, error) {
	table, ok := partyTables[kind]
	if !ok {
		return "", fmt.Errorf("%w: party kind %q", model.ErrInvalidType, kind)
	}
	return table, nil
}

// CreateParty сохраняет участника в таблицу его вида.
func (r *PostgresRepository) CreateParty(ctx context.Context, p model.Party) (*model.Party, error) {
	table, err := partyTable(p.Kind)
	if err != nil {
		return nil, err
	}

	created := p
	err = r.pool.QueryRow(ctx,
		`INSERT INTO `+table+` (name, phone, location, email) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		p.Name, p.Phone, p.Location, p.Email,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, mapError("create "+string(p.Kind), err)
	}

	return &created, nil
}

// ListParties возвращает участников указанного вида в порядке регистрации.
func (r *PostgresRepository) ListParties(ctx context.Context, kind model.PartyKind, limit, offset int) ([]model.Party, error) {
	table, err := partyTable(kind)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, phone, location, email, created_at FROM `+table+` ORDER BY id LIMIT $1 OFFSET $2`,
		limitArg(limit), offsetArg(offset),
	)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	defer rows.Close()

	var res []model.Party
	for rows.Next() {
		p := model.Party{Kind: kind}
		if err := rows.Scan(&p.ID, &p.Name, &p.Phone, &p.Location, &p.Email, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		res = append(res, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
