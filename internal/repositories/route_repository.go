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

// RouteTemplateRepository reads route templates and their stops.
type RouteTemplateRepository struct {
	DB intdb.Querier
}

// GetWithStops returns the template and its stops ordered by seq.
func (r RouteTemplateRepository) GetWithStops(ctx context.Context, id int64) (models.RouteTemplate, error) {
	if id <= 0 {
		return models.RouteTemplate{}, domain.ValidationError{Field: "routeTemplateId", Msg: "invalid id"}
	}
	var rt models.RouteTemplate
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, from_name, to_name, base_fare, price_per_km
		FROM route_templates
		WHERE id = ? LIMIT 1`, id).Scan(&rt.ID, &rt.FromName, &rt.ToName, &rt.BaseFare, &rt.PricePerKm)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RouteTemplate{}, domain.NotFoundError{Resource: "route template", Err: err}
		}
		return models.RouteTemplate{}, fmt.Errorf("get route template: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, route_template_id, name, lat, lng, seq
		FROM route_stops
		WHERE route_template_id = ?
		ORDER BY seq ASC, id ASC`, id)
	if err != nil {
		return rt, fmt.Errorf("list route stops: %w", err)
	}
	defer rows.Close()

	rt.Stops = []models.Stop{}
	for rows.Next() {
		var s models.Stop
		if err := rows.Scan(&s.ID, &s.RouteTemplateID, &s.Name, &s.Lat, &s.Lng, &s.Seq); err != nil {
			return rt, err
		}
		rt.Stops = append(rt.Stops, s)
	}
	return rt, rows.Err()
}
