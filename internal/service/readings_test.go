package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/aquagas/utility-readings-service/internal/config"
	"github.com/aquagas/utility-readings-service/internal/db"
	"github.com/aquagas/utility-readings-service/internal/mq"
	"github.com/aquagas/utility-readings-service/internal/service"
	"github.com/aquagas/utility-readings-service/internal/validator"
)

// fakeStore is a stateful in-memory ReadingStore. Guarded by a mutex so the
// concurrency test can hammer it from multiple goroutines.
type fakeStore struct {
	mu               sync.Mutex
	states           map[string]*fakeReading
	listRows         []db.CustomerReading
	lastListCustomer string
	lastListType     string
	listCalls        int
	confirmCalls     int
	// forceNotAffected simulates losing the conditional-update race:
	// the state read saw unconfirmed, but the update affects no row.
	forceNotAffected bool
}

type fakeReading struct {
	confirmed      bool
	confirmedValue float64
}

func newFakeStore() *fakeStore {
	return &fakeStore{states: make(map[string]*fakeReading)}
}

func (f *fakeStore) GetReadingState(ctx context.Context, measureUUID string) (*db.ReadingState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.states[measureUUID]
	if !ok {
		return nil, nil
	}
	return &db.ReadingState{Confirmed: r.confirmed}, nil
}

func (f *fakeStore) ConfirmReading(ctx context.Context, measureUUID string, confirmedValue float64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmCalls++
	if f.forceNotAffected {
		return false, nil
	}
	r, ok := f.states[measureUUID]
	if !ok || r.confirmed {
		return false, nil
	}
	r.confirmed = true
	r.confirmedValue = confirmedValue
	return true, nil
}

func (f *fakeStore) ListReadings(ctx context.Context, customerCode string, measureType string) ([]db.CustomerReading, error) {
	f.listCalls++
	f.lastListCustomer = customerCode
	f.lastListType = measureType
	if measureType == "" {
		return f.listRows, nil
	}
	var filtered []db.CustomerReading
	for _, r := range f.listRows {
		if r.MeasureType == measureType {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// fakePublisher records published confirmation events.
type fakePublisher struct {
	mu     sync.Mutex
	events []mq.ConfirmedEvent
	keys   []string
	err    error
}

func (f *fakePublisher) PublishConfirmedEvent(ctx context.Context, event mq.ConfirmedEvent, routingKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	f.keys = append(f.keys, routingKey)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		RabbitMQ: config.RabbitMQConfig{ConfirmedRoutingKey: "reading.confirmed"},
		Images:   config.ImagesConfig{BasePath: "/images"},
	}
}

func newService(store service.ReadingStore, publisher service.EventPublisher) *service.ReadingsService {
	return service.NewReadingsService(store, publisher, validator.NewValidator(), testConfig(), zap.NewNop())
}

func TestConfirmReading_Success(t *testing.T) {
	store := newFakeStore()
	store.states["uuid-1"] = &fakeReading{}
	publisher := &fakePublisher{}
	svc := newService(store, publisher)

	err := svc.ConfirmReading(context.Background(), "uuid-1", 1205.5)

	if err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}
	if !store.states["uuid-1"].confirmed {
		t.Error("Expected reading to be confirmed")
	}
	if store.states["uuid-1"].confirmedValue != 1205.5 {
		t.Errorf("Expected confirmed value 1205.5, got %f", store.states["uuid-1"].confirmedValue)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("Expected 1 published event, got %d", len(publisher.events))
	}
	if publisher.events[0].MeasureUUID != "uuid-1" || publisher.events[0].ConfirmedValue != 1205.5 {
		t.Errorf("Unexpected event payload: %+v", publisher.events[0])
	}
	if publisher.keys[0] != "reading.confirmed" {
		t.Errorf("Expected routing key reading.confirmed, got %q", publisher.keys[0])
	}
}

func TestConfirmReading_NotFound(t *testing.T) {
	store := newFakeStore()
	publisher := &fakePublisher{}
	svc := newService(store, publisher)

	err := svc.ConfirmReading(context.Background(), "missing", 10)

	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if store.confirmCalls != 0 {
		t.Errorf("Expected no confirm attempt, got %d", store.confirmCalls)
	}
	if len(publisher.events) != 0 {
		t.Errorf("Expected no events, got %d", len(publisher.events))
	}
}

func TestConfirmReading_AlreadyConfirmed(t *testing.T) {
	store := newFakeStore()
	store.states["uuid-1"] = &fakeReading{confirmed: true, confirmedValue: 99}
	publisher := &fakePublisher{}
	svc := newService(store, publisher)

	err := svc.ConfirmReading(context.Background(), "uuid-1", 1205.5)

	if !errors.Is(err, service.ErrAlreadyConfirmed) {
		t.Errorf("Expected ErrAlreadyConfirmed, got %v", err)
	}
	if store.confirmCalls != 0 {
		t.Errorf("Expected no confirm attempt, got %d", store.confirmCalls)
	}
	if store.states["uuid-1"].confirmedValue != 99 {
		t.Errorf("Expected confirmed value untouched at 99, got %f", store.states["uuid-1"].confirmedValue)
	}
}

func TestConfirmReading_LostRace(t *testing.T) {
	store := newFakeStore()
	store.states["uuid-1"] = &fakeReading{}
	store.forceNotAffected = true
	publisher := &fakePublisher{}
	svc := newService(store, publisher)

	err := svc.ConfirmReading(context.Background(), "uuid-1", 1205.5)

	if !errors.Is(err, service.ErrAlreadyConfirmed) {
		t.Errorf("Expected ErrAlreadyConfirmed when the conditional update affects no row, got %v", err)
	}
	if len(publisher.events) != 0 {
		t.Errorf("Expected no events for a lost race, got %d", len(publisher.events))
	}
}

func TestConfirmReading_PublishFailureDoesNotFailRequest(t *testing.T) {
	store := newFakeStore()
	store.states["uuid-1"] = &fakeReading{}
	publisher := &fakePublisher{err: errors.New("broker down")}
	svc := newService(store, publisher)

	err := svc.ConfirmReading(context.Background(), "uuid-1", 42)

	if err != nil {
		t.Errorf("Expected success despite publish failure, got %v", err)
	}
	if !store.states["uuid-1"].confirmed {
		t.Error("Expected reading to be confirmed")
	}
}

func TestConfirmReading_ConcurrentOnlyOneSucceeds(t *testing.T) {
	store := newFakeStore()
	store.states["uuid-1"] = &fakeReading{}
	publisher := &fakePublisher{}
	svc := newService(store, publisher)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(value float64) {
			defer wg.Done()
			results <- svc.ConfirmReading(context.Background(), "uuid-1", value)
		}(float64(100 + i))
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, service.ErrAlreadyConfirmed):
			conflicts++
		default:
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	if successes != 1 || conflicts != 1 {
		t.Errorf("Expected exactly one success and one conflict, got %d successes and %d conflicts",
			successes, conflicts)
	}
	if len(publisher.events) != 1 {
		t.Errorf("Expected exactly 1 published event, got %d", len(publisher.events))
	}
}

func TestListReadings_InvalidMeasureType(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, &fakePublisher{})

	_, err := svc.ListReadings(context.Background(), "CUST-001", "electric")

	if !errors.Is(err, service.ErrInvalidData) {
		t.Errorf("Expected ErrInvalidData, got %v", err)
	}
	if store.listCalls != 0 {
		t.Errorf("Expected no store access for invalid type, got %d calls", store.listCalls)
	}
}

func TestListReadings_EmptyResult(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, &fakePublisher{})

	_, err := svc.ListReadings(context.Background(), "CUST-001", "")

	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for empty result, got %v", err)
	}
}

func TestListReadings_MapsMeasures(t *testing.T) {
	store := newFakeStore()
	dt := time.Date(2024, 8, 10, 14, 30, 0, 0, time.UTC)
	store.listRows = []db.CustomerReading{
		{UUID: "uuid-1", MeasureType: "WATER", MeasureDatetime: dt, Confirmed: true},
		{UUID: "uuid-2", MeasureType: "GAS", MeasureDatetime: dt.Add(time.Hour), Confirmed: false},
	}
	svc := newService(store, &fakePublisher{})

	list, err := svc.ListReadings(context.Background(), "CUST-001", "")

	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if list.CustomerCode != "CUST-001" {
		t.Errorf("Expected customer code CUST-001, got %q", list.CustomerCode)
	}
	if len(list.Measures) != 2 {
		t.Fatalf("Expected 2 measures, got %d", len(list.Measures))
	}

	first := list.Measures[0]
	if first.MeasureUUID != "uuid-1" {
		t.Errorf("Expected measure_uuid uuid-1, got %q", first.MeasureUUID)
	}
	if first.ImageURL != "/images/uuid-1.jpeg" {
		t.Errorf("Expected image_url /images/uuid-1.jpeg, got %q", first.ImageURL)
	}
	if !first.HasConfirmed {
		t.Error("Expected first measure to be confirmed")
	}
	if !first.MeasureDatetime.Equal(dt) {
		t.Errorf("Expected measure_datetime %v, got %v", dt, first.MeasureDatetime)
	}
	if list.Measures[1].HasConfirmed {
		t.Error("Expected second measure to be unconfirmed")
	}
}

func TestListReadings_NormalizesFilterBeforeStore(t *testing.T) {
	store := newFakeStore()
	store.listRows = []db.CustomerReading{
		{UUID: "uuid-1", MeasureType: "WATER", MeasureDatetime: time.Now(), Confirmed: false},
	}
	svc := newService(store, &fakePublisher{})

	list, err := svc.ListReadings(context.Background(), "CUST-001", "water")

	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if store.lastListType != "WATER" {
		t.Errorf("Expected store to be queried with WATER, got %q", store.lastListType)
	}
	if len(list.Measures) != 1 {
		t.Errorf("Expected 1 measure, got %d", len(list.Measures))
	}
}
