package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/busvote/internal/core/domain"
	"github.com/vncsmyrnk/busvote/internal/core/ports"
)

type busRepository struct {
	db *sql.DB
}

func NewBusRepository(db *sql.DB) ports.BusRepository {
	return &busRepository{db: db}
}

func (r *busRepository) List(ctx context.Context) ([]*domain.Bus, error) {
	query := `
		SELECT id, bus_number, name, capacity, route, status
		FROM buses
		ORDER BY bus_number
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list buses: %w", err)
	}
	defer rows.Close()

	var buses []*domain.Bus
	for rows.Next() {
		var bus domain.Bus
		if err := rows.Scan(&bus.ID, &bus.Number, &bus.Name, &bus.Capacity, &bus.Route, &bus.Status); err != nil {
			return nil, fmt.Errorf("failed to scan bus: %w", err)
		}
		buses = append(buses, &bus)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating buses: %w", err)
	}
	return buses, nil
}

func (r *busRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Bus, error) {
	query := `SELECT id, bus_number, name, capacity, route, status FROM buses WHERE id = $1`
	var bus domain.Bus
	err := r.db.QueryRowContext(ctx, query, id).Scan(&bus.ID, &bus.Number, &bus.Name, &bus.Capacity, &bus.Route, &bus.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get bus: %w", err)
	}
	return &bus, nil
}
