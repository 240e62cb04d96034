package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aquagas/utility-readings-service/internal/db"
)

// Repository handles database operations
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetReadingState returns the confirmation flag for a reading, or nil when
// no reading matches the uuid.
func (r *Repository) GetReadingState(ctx context.Context, measureUUID string) (*db.ReadingState, error) {
	query := `
		SELECT confirmed
		FROM readings
		WHERE uuid = $1
	`

	var state db.ReadingState
	err := r.pool.QueryRow(ctx, query, measureUUID).Scan(&state.Confirmed)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query reading state: %w", err)
	}

	return &state, nil
}

// ConfirmReading sets confirmed and confirmed_value on an unconfirmed
// reading. The update is conditional on confirmed being false, so two
// concurrent confirmations of the same uuid cannot both succeed: the loser
// affects zero rows and the stored value is never overwritten. Returns
// whether a row was updated.
func (r *Repository) ConfirmReading(ctx context.Context, measureUUID string, confirmedValue float64) (bool, error) {
	query := `
		UPDATE readings
		SET confirmed = TRUE, confirmed_value = $2
		WHERE uuid = $1 AND confirmed = FALSE
	`

	tag, err := r.pool.Exec(ctx, query, measureUUID, confirmedValue)
	if err != nil {
		return false, fmt.Errorf("failed to confirm reading: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ListReadings returns all readings for a customer, optionally filtered by
// measure type. measureType must already be normalized to the stored
// uppercase form; pass "" for no filter. Rows come back in the store's
// natural order.
func (r *Repository) ListReadings(ctx context.Context, customerCode string, measureType string) ([]db.CustomerReading, error) {
	query := `
		SELECT r.uuid, r.measure_type, r.measure_datetime, r.confirmed
		FROM readings r
		JOIN customers c ON c.id = r.customer_id
		WHERE c.customer_code = $1
	`
	args := []interface{}{customerCode}

	if measureType != "" {
		query += ` AND r.measure_type = $2`
		args = append(args, measureType)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	var readings []db.CustomerReading
	for rows.Next() {
		var reading db.CustomerReading
		if err := rows.Scan(&reading.UUID, &reading.MeasureType, &reading.MeasureDatetime, &reading.Confirmed); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		readings = append(readings, reading)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return readings, nil
}

// CreateCustomer inserts a customer and returns it with the generated id.
// Used by the out-of-band ingestion path and by operational seeding; the
// HTTP surface never creates customers.
func (r *Repository) CreateCustomer(ctx context.Context, name, address, customerCode string) (*db.Customer, error) {
	query := `
		INSERT INTO customers (name, address, customer_code)
		VALUES ($1, $2, $3)
		RETURNING id, name, address, customer_code, created_at
	`

	var customer db.Customer
	err := r.pool.QueryRow(ctx, query, name, address, customerCode).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Address,
		&customer.CustomerCode,
		&customer.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	return &customer, nil
}

// CreateReading inserts an unconfirmed reading for a customer identified by
// customer_code. Used by the out-of-band ingestion path.
func (r *Repository) CreateReading(ctx context.Context, measureUUID, customerCode, measureType string, value *float64, measureDatetime time.Time) (*db.Reading, error) {
	query := `
		INSERT INTO readings (uuid, customer_id, measure_type, value, measure_datetime)
		SELECT $1, c.id, $2, $3, $4
		FROM customers c
		WHERE c.customer_code = $5
		RETURNING id, uuid, customer_id, measure_type, value, measure_datetime, confirmed, confirmed_value, created_at
	`

	var reading db.Reading
	err := r.pool.QueryRow(ctx, query, measureUUID, measureType, value, measureDatetime, customerCode).Scan(
		&reading.ID,
		&reading.UUID,
		&reading.CustomerID,
		&reading.MeasureType,
		&reading.Value,
		&reading.MeasureDatetime,
		&reading.Confirmed,
		&reading.ConfirmedValue,
		&reading.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("failed to create reading: customer %q not found", customerCode)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create reading: %w", err)
	}

	return &reading, nil
}
