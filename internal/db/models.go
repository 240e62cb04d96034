package db

import (
	"time"
)

// Customer represents a customer in the database. customer_code is the
// external identifier clients use; the numeric id never leaves the store.
type Customer struct {
	ID           int64
	Name         string
	Address      string
	CustomerCode string
	CreatedAt    time.Time
}

// Reading represents a meter reading in the database. Value is the value
// recognized at ingestion time; ConfirmedValue is set exactly once, when a
// human confirms the reading.
type Reading struct {
	ID              int64
	UUID            string
	CustomerID      int64
	MeasureType     string
	Value           *float64
	MeasureDatetime time.Time
	Confirmed       bool
	ConfirmedValue  *float64
	CreatedAt       time.Time
}

// ReadingState is the projection of a reading used by the confirmation
// check: only the flag, never the full row.
type ReadingState struct {
	Confirmed bool
}

// CustomerReading is one row of a customer-scoped listing.
type CustomerReading struct {
	UUID            string
	MeasureType     string
	MeasureDatetime time.Time
	Confirmed       bool
}
