package repository

import (
	"fmt"
	"strings"
)

// earthRadiusKm is the mean Earth radius used by the haversine distance.
const earthRadiusKm = 6371.0

// buildSearchQuery assembles the vehicle search SQL and its arguments.
// Kept as a pure function so filter combinations can be tested without a
// database.
func buildSearchQuery(params SearchParams) (string, []interface{}) {
	whereClauses := []string{"TRUE"}
	args := []interface{}{}
	argIdx := 1

	next := func(value interface{}) string {
		args = append(args, value)
		placeholder := fmt.Sprintf("$%d", argIdx)
		argIdx++
		return placeholder
	}

	if params.Query != "" {
		pattern := "%" + params.Query + "%"
		p := next(pattern)
		whereClauses = append(whereClauses, fmt.Sprintf("(v.title ILIKE %s OR v.description ILIKE %s)", p, p))
	}

	if params.Type != "" {
		whereClauses = append(whereClauses, "v.type = "+next(params.Type))
	}

	if params.MinPrice != nil {
		whereClauses = append(whereClauses, "v.price >= "+next(*params.MinPrice))
	}

	if params.MaxPrice != nil {
		whereClauses = append(whereClauses, "v.price <= "+next(*params.MaxPrice))
	}

	if params.StartDate != nil && params.EndDate != nil {
		start := next(*params.StartDate)
		end := next(*params.EndDate)
		whereClauses = append(whereClauses, fmt.Sprintf(`NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.vehicle_id = v.id
			AND b.status = 'confirmed'
			AND b.start_date < %s::date
			AND b.end_date > %s::date
		)`, end, start))
	}

	if params.Latitude != nil && params.Longitude != nil && params.RadiusKm != nil {
		lat := next(*params.Latitude)
		lng := next(*params.Longitude)
		radius := next(*params.RadiusKm)
		whereClauses = append(whereClauses, fmt.Sprintf(`(
			v.latitude IS NOT NULL AND v.longitude IS NOT NULL
			AND %f * acos(least(1.0,
				cos(radians(%s)) * cos(radians(v.latitude)) * cos(radians(v.longitude) - radians(%s))
				+ sin(radians(%s)) * sin(radians(v.latitude))
			)) <= %s
		)`, earthRadiusKm, lat, lng, lat, radius))
	}

	limitPlaceholder := next(params.Limit)
	offsetPlaceholder := next((params.Page - 1) * params.Limit)

	query := fmt.Sprintf(`
		SELECT v.id, v.owner_id, v.title, v.type, v.price, v.rating, v.reviews,
			v.description, v.latitude, v.longitude, v.created_at, v.updated_at
		FROM vehicles v
		WHERE %s
		ORDER BY v.rating DESC, v.id
		LIMIT %s OFFSET %s
	`, strings.Join(whereClauses, " AND "), limitPlaceholder, offsetPlaceholder)

	return query, args
}
