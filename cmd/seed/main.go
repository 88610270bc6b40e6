package main

import (
	"context"
	"log"
	"os"
	"time"

	"finledger/internal/models"
	"finledger/internal/repository"
	"finledger/pkg/auth"
	"finledger/pkg/config"
	"finledger/pkg/logger"
	"finledger/pkg/postgres"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Applies the schema and loads a demo user with a small ledger. Intended for
// local development only.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	schema, err := os.ReadFile("migrations/001_init.sql")
	if err != nil {
		appLogger.Fatal("Failed to read schema file", zap.Error(err))
	}
	if _, err := db.Exec(ctx, string(schema)); err != nil {
		appLogger.Fatal("Failed to apply schema", zap.Error(err))
	}
	appLogger.Info("Schema applied")

	userRepo := repository.NewUserRepository(db, appLogger)
	txRepo := repository.NewTransactionRepository(db, appLogger)

	if existing, _ := userRepo.GetByEmail(ctx, "john@example.com"); existing != nil {
		appLogger.Info("Demo user already seeded, nothing to do")
		return
	}

	hashed, err := auth.HashPassword("password123")
	if err != nil {
		appLogger.Fatal("Failed to hash demo password", zap.Error(err))
	}

	now := time.Now()
	user := &models.User{
		ID:        uuid.New(),
		Username:  "John Doe",
		Email:     "john@example.com",
		Password:  hashed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		appLogger.Fatal("Failed to create demo user", zap.Error(err))
	}

	seedTxs := []struct {
		amount      string
		description string
		category    string
	}{
		{"1000.00", "Salary", models.CategoryIncome},
		{"200.00", "Rent", models.CategoryExpense},
		{"100.00", "Groceries", models.CategoryExpense},
	}

	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	transactions := make([]*models.Transaction, 0, len(seedTxs))
	for _, s := range seedTxs {
		amount, err := decimal.NewFromString(s.amount)
		if err != nil {
			appLogger.Fatal("Bad seed amount", zap.String("amount", s.amount), zap.Error(err))
		}
		transactions = append(transactions, &models.Transaction{
			ID:          uuid.New(),
			UserID:      user.ID,
			Amount:      amount,
			Description: s.description,
			Category:    s.category,
			Date:        date,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	if err := txRepo.CreateBatch(ctx, transactions); err != nil {
		appLogger.Fatal("Failed to seed transactions", zap.Error(err))
	}

	appLogger.Info("Seed complete",
		zap.String("email", user.Email),
		zap.Int("transactions", len(transactions)),
	)
}
