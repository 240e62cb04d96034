// Command seed populates a development database with a sample customer and
// a pair of unconfirmed readings. The ingestion service normally creates
// these records; this tool stands in for it on a fresh local database.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/aquagas/utility-readings-service/internal/config"
	"github.com/aquagas/utility-readings-service/internal/db"
	"github.com/aquagas/utility-readings-service/internal/logging"
	"github.com/aquagas/utility-readings-service/internal/repository"
	"github.com/aquagas/utility-readings-service/internal/validator"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger(cfg.ServiceName + "-seed")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("failed to migrate schema", zap.Error(err))
	}

	repo := repository.NewRepository(pool)

	customerCode := "CUST-" + uuid.NewString()[:8]
	customer, err := repo.CreateCustomer(ctx, "Sample Customer", "1 Example Street", customerCode)
	if err != nil {
		logger.Fatal("failed to create customer", zap.Error(err))
	}
	logger.Info("created customer",
		zap.Int64("id", customer.ID),
		zap.String("customer_code", customer.CustomerCode),
	)

	now := time.Now().UTC()
	seeds := []struct {
		measureType string
		value       float64
		datetime    time.Time
	}{
		{validator.MeasureTypeWater, 1032.7, now.AddDate(0, -1, 0)},
		{validator.MeasureTypeGas, 448.2, now},
	}

	for _, s := range seeds {
		value := s.value
		reading, err := repo.CreateReading(ctx, uuid.NewString(), customer.CustomerCode, s.measureType, &value, s.datetime)
		if err != nil {
			logger.Fatal("failed to create reading", zap.Error(err))
		}
		logger.Info("created reading",
			zap.String("uuid", reading.UUID),
			zap.String("measure_type", reading.MeasureType),
		)
	}

	logger.Info("seed complete", zap.String("customer_code", customer.CustomerCode))
}
