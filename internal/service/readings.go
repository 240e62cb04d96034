package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aquagas/utility-readings-service/internal/config"
	"github.com/aquagas/utility-readings-service/internal/db"
	"github.com/aquagas/utility-readings-service/internal/mq"
	"github.com/aquagas/utility-readings-service/internal/validator"
)

// ReadingStore is the persistence surface the business rules need.
// *repository.Repository implements it; tests substitute a fake.
type ReadingStore interface {
	GetReadingState(ctx context.Context, measureUUID string) (*db.ReadingState, error)
	ConfirmReading(ctx context.Context, measureUUID string, confirmedValue float64) (bool, error)
	ListReadings(ctx context.Context, customerCode string, measureType string) ([]db.CustomerReading, error)
}

// EventPublisher publishes confirmation events. *mq.Publisher implements
// it; mq.NopPublisher is wired when no broker is configured.
type EventPublisher interface {
	PublishConfirmedEvent(ctx context.Context, event mq.ConfirmedEvent, routingKey string) error
}

// Measure is one reading in a listing response.
type Measure struct {
	MeasureUUID     string    `json:"measure_uuid"`
	MeasureDatetime time.Time `json:"measure_datetime"`
	MeasureType     string    `json:"measure_type"`
	HasConfirmed    bool      `json:"has_confirmed"`
	ImageURL        string    `json:"image_url"`
}

// MeasureList is the listing response for one customer.
type MeasureList struct {
	CustomerCode string    `json:"customer_code"`
	Measures     []Measure `json:"measures"`
}

// ReadingsService applies the business rules on top of the store
type ReadingsService struct {
	store     ReadingStore
	publisher EventPublisher
	validator *validator.Validator
	cfg       *config.Config
	logger    *zap.Logger
}

// NewReadingsService creates a new readings service
func NewReadingsService(
	store ReadingStore,
	publisher EventPublisher,
	validator *validator.Validator,
	cfg *config.Config,
	logger *zap.Logger,
) *ReadingsService {
	return &ReadingsService{
		store:     store,
		publisher: publisher,
		validator: validator,
		cfg:       cfg,
		logger:    logger,
	}
}

// ConfirmReading settles a reading with a human-verified value. The
// transition is one-way: a reading confirms exactly once, and a repeat
// attempt fails with ErrAlreadyConfirmed no matter how close together the
// attempts land.
func (s *ReadingsService) ConfirmReading(ctx context.Context, measureUUID string, confirmedValue float64) error {
	state, err := s.store.GetReadingState(ctx, measureUUID)
	if err != nil {
		return fmt.Errorf("failed to look up reading: %w", err)
	}
	if state == nil {
		return ErrNotFound
	}
	if state.Confirmed {
		return ErrAlreadyConfirmed
	}

	confirmed, err := s.store.ConfirmReading(ctx, measureUUID, confirmedValue)
	if err != nil {
		return fmt.Errorf("failed to confirm reading: %w", err)
	}
	if !confirmed {
		// Another request confirmed this uuid between the state read and
		// the conditional update. The update touched nothing.
		return ErrAlreadyConfirmed
	}

	event := mq.ConfirmedEvent{
		MeasureUUID:    measureUUID,
		ConfirmedValue: confirmedValue,
		ConfirmedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.publisher.PublishConfirmedEvent(ctx, event, s.cfg.RabbitMQ.ConfirmedRoutingKey); err != nil {
		// The confirmation is already durable; a lost event must not fail
		// the request.
		s.logger.Error("failed to publish confirmation event",
			zap.Error(err),
			zap.String("measure_uuid", measureUUID),
		)
	}

	return nil
}

// ListReadings returns all readings for a customer, optionally filtered by
// measure type (matched case-insensitively). An empty result is reported as
// ErrNotFound: the store does not distinguish an unknown customer from a
// customer with no matching readings.
func (s *ReadingsService) ListReadings(ctx context.Context, customerCode string, rawMeasureType string) (*MeasureList, error) {
	measureType, result := s.validator.NormalizeMeasureType(rawMeasureType)
	if !result.IsValid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidData, result.Reason)
	}

	readings, err := s.store.ListReadings(ctx, customerCode, measureType)
	if err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}
	if len(readings) == 0 {
		return nil, ErrNotFound
	}

	measures := make([]Measure, 0, len(readings))
	for _, r := range readings {
		measures = append(measures, Measure{
			MeasureUUID:     r.UUID,
			MeasureDatetime: r.MeasureDatetime,
			MeasureType:     r.MeasureType,
			HasConfirmed:    r.Confirmed,
			ImageURL:        s.imageURL(r.UUID),
		})
	}

	return &MeasureList{
		CustomerCode: customerCode,
		Measures:     measures,
	}, nil
}

// imageURL derives the image location from the reading uuid. Images are
// never stored alongside the reading row.
func (s *ReadingsService) imageURL(measureUUID string) string {
	base := strings.TrimRight(s.cfg.Images.BasePath, "/")
	return fmt.Sprintf("%s/%s.jpeg", base, measureUUID)
}
