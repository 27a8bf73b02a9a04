package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	intdb "skitro/internal/db"
	"skitro/internal/domain"
	"skitro/internal/domain/models"
)

// DriverRepository reads the driver directory.
type DriverRepository struct {
	DB intdb.Querier
}

func (r DriverRepository) GetByID(ctx context.Context, id int64) (models.Driver, error) {
	if id <= 0 {
		return models.Driver{}, domain.ValidationError{Field: "driverId", Msg: "invalid id"}
	}
	var d models.Driver
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, vehicle_reg_number, vehicle_type, vehicle_capacity
		FROM drivers
		WHERE id = ? LIMIT 1`, id).Scan(
		&d.ID,
		&d.UserID,
		&d.VehicleRegNumber,
		&d.VehicleType,
		&d.VehicleCapacity,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Driver{}, domain.NotFoundError{Resource: "driver", Err: err}
		}
		return models.Driver{}, fmt.Errorf("get driver: %w", err)
	}
	return d, nil
}
