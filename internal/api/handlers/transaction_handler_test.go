package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finledger/internal/api"
	"finledger/internal/api/handlers"
	"finledger/internal/dto"
	"finledger/internal/models"
	"finledger/internal/service"
	"finledger/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type memTxStore struct {
	txs   map[uuid.UUID]*models.Transaction
	order []uuid.UUID
}

func (m *memTxStore) Create(_ context.Context, tx *models.Transaction) error {
	cp := *tx
	m.txs[tx.ID] = &cp
	m.order = append(m.order, tx.ID)
	return nil
}

func (m *memTxStore) GetByID(_ context.Context, id uuid.UUID) (*models.Transaction, error) {
	tx, ok := m.txs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *tx
	return &cp, nil
}

func (m *memTxStore) GetByUserID(_ context.Context, userID uuid.UUID) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for _, id := range m.order {
		if tx, ok := m.txs[id]; ok && tx.UserID == userID {
			cp := *tx
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memTxStore) Update(_ context.Context, tx *models.Transaction) error {
	cp := *tx
	m.txs[tx.ID] = &cp
	return nil
}

func (m *memTxStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.txs, id)
	return nil
}

type memUserStore struct {
	users map[string]*models.User
}

func (m *memUserStore) Create(_ context.Context, user *models.User) error {
	cp := *user
	m.users[user.Email] = &cp
	return nil
}

func (m *memUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := m.users[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *user
	return &cp, nil
}

func (m *memUserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			cp := *user
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func setupTestApp() (*fiber.App, *auth.JWTManager) {
	logger := zap.NewNop()
	jwtManager := auth.NewJWTManager("test-secret", time.Hour, 24*time.Hour)

	authService := service.NewAuthService(&memUserStore{users: make(map[string]*models.User)}, jwtManager, logger)
	ledgerService := service.NewLedgerService(&memTxStore{txs: make(map[uuid.UUID]*models.Transaction)}, logger)

	authHandler := handlers.NewAuthHandler(authService, logger)
	txHandler := handlers.NewTransactionHandler(ledgerService, logger)

	return api.SetupRouter(authHandler, txHandler, jwtManager, logger), jwtManager
}

func bearerFor(t *testing.T, jwtManager *auth.JWTManager, userID uuid.UUID) string {
	t.Helper()
	token, err := jwtManager.GenerateToken(userID.String(), "tester", "tester@example.com")
	if err != nil {
		t.Fatalf("Failed to issue test token: %v", err)
	}
	return "Bearer " + token
}

func doJSON(t *testing.T, app *fiber.App, method, path, bearer string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	return resp
}

func createTx(t *testing.T, app *fiber.App, bearer, amount, description, category string) dto.TransactionResponse {
	t.Helper()
	resp := doJSON(t, app, "POST", "/api/transactions", bearer, dto.TransactionRequest{
		Amount:      decimal.RequireFromString(amount),
		Description: description,
		Category:    category,
		Date:        "2025-06-15",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", resp.StatusCode)
	}
	var created dto.TransactionResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return created
}

func TestTransactionsRequireToken(t *testing.T) {
	app, _ := setupTestApp()

	resp := doJSON(t, app, "GET", "/api/transactions", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without token, got %d", resp.StatusCode)
	}

	resp = doJSON(t, app, "GET", "/api/transactions", "Bearer garbage", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for invalid token, got %d", resp.StatusCode)
	}
}

func TestCreateListAndBalanceFlow(t *testing.T) {
	app, jwtManager := setupTestApp()
	bearer := bearerFor(t, jwtManager, uuid.New())

	createTx(t, app, bearer, "1000.00", "Salary", "Income")
	createTx(t, app, bearer, "200.00", "Rent", "Expense")
	createTx(t, app, bearer, "100.00", "Groceries", "Expense")

	resp := doJSON(t, app, "GET", "/api/transactions", bearer, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	var list []dto.TransactionResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("Failed to decode list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 transactions, got %d", len(list))
	}

	resp = doJSON(t, app, "GET", "/api/transactions/balance", bearer, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	var balance dto.BalanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&balance); err != nil {
		t.Fatalf("Failed to decode balance: %v", err)
	}
	if !balance.Balance.Equal(decimal.RequireFromString("700.00")) {
		t.Errorf("Expected balance 700.00, got %s", balance.Balance)
	}
}

func TestUpdateStatusMapping(t *testing.T) {
	app, jwtManager := setupTestApp()
	owner := uuid.New()
	ownerBearer := bearerFor(t, jwtManager, owner)
	strangerBearer := bearerFor(t, jwtManager, uuid.New())

	created := createTx(t, app, ownerBearer, "500.00", "Rent", "Expense")

	body := dto.TransactionRequest{
		Amount:   decimal.RequireFromString("1.00"),
		Category: "Expense",
		Date:     "2025-06-16",
	}

	resp := doJSON(t, app, "PUT", "/api/transactions/"+created.ID, strangerBearer, body)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected status 403 for foreign transaction, got %d", resp.StatusCode)
	}

	resp = doJSON(t, app, "PUT", "/api/transactions/"+uuid.NewString(), strangerBearer, body)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404 for absent id, got %d", resp.StatusCode)
	}

	resp = doJSON(t, app, "PUT", "/api/transactions/not-a-uuid", ownerBearer, body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400 for malformed id, got %d", resp.StatusCode)
	}

	resp = doJSON(t, app, "PUT", "/api/transactions/"+created.ID, ownerBearer, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200 for owner update, got %d", resp.StatusCode)
	}
	var updated dto.TransactionResponse
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !updated.Amount.Equal(decimal.RequireFromString("1.00")) || updated.Description != "" {
		t.Errorf("Expected full replace, got %+v", updated)
	}
}

func TestDeleteReturnsSnapshot(t *testing.T) {
	app, jwtManager := setupTestApp()
	bearer := bearerFor(t, jwtManager, uuid.New())

	created := createTx(t, app, bearer, "42.50", "Book", "Expense")

	resp := doJSON(t, app, "DELETE", "/api/transactions/"+created.ID, bearer, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	var deleted dto.DeleteTransactionResponse
	if err := json.NewDecoder(resp.Body).Decode(&deleted); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if deleted.Transaction.ID != created.ID || !deleted.Transaction.Amount.Equal(decimal.RequireFromString("42.50")) {
		t.Errorf("Snapshot does not match created transaction: %+v", deleted.Transaction)
	}

	resp = doJSON(t, app, "DELETE", "/api/transactions/"+created.ID, bearer, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %d", resp.StatusCode)
	}
}

func TestRegisterLoginOverHTTP(t *testing.T) {
	app, _ := setupTestApp()

	register := dto.RegisterRequest{Username: "John Doe", Email: "john@example.com", Password: "secret123"}

	resp := doJSON(t, app, "POST", "/api/auth/register", "", register)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", resp.StatusCode)
	}
	var authResp dto.AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if authResp.AccessToken == "" {
		t.Fatal("Expected a token on registration")
	}

	// The registration token works immediately against protected routes
	listResp := doJSON(t, app, "GET", "/api/transactions", "Bearer "+authResp.AccessToken, nil)
	if listResp.StatusCode != http.StatusOK {
		t.Errorf("Expected registration token to be usable, got status %d", listResp.StatusCode)
	}

	resp = doJSON(t, app, "POST", "/api/auth/register", "", register)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected status 409 on duplicate registration, got %d", resp.StatusCode)
	}

	resp = doJSON(t, app, "POST", "/api/auth/login", "", dto.LoginRequest{Email: "john@example.com", Password: "secret123"})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200 on login, got %d", resp.StatusCode)
	}

	resp = doJSON(t, app, "POST", "/api/auth/login", "", dto.LoginRequest{Email: "john@example.com", Password: "wrong"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status 401 on bad password, got %d", resp.StatusCode)
	}
}
