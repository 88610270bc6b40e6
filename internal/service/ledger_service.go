package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"finledger/internal/dto"
	"finledger/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrForbidden           = errors.New("transaction belongs to another user")
	ErrInvalidDate         = errors.New("invalid date format, expected YYYY-MM-DD")
)

// transactionStore is the persistence port the ledger operates against.
type transactionStore interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error)
	Update(ctx context.Context, tx *models.Transaction) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// LedgerService owns all transaction reads and writes. Every operation is
// scoped to the caller's user id; a transaction is only ever visible or
// mutable through its owner.
type LedgerService struct {
	txRepo transactionStore
	logger *zap.Logger
}

func NewLedgerService(txRepo transactionStore, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		txRepo: txRepo,
		logger: logger,
	}
}

func (s *LedgerService) Create(ctx context.Context, callerID uuid.UUID, req *dto.TransactionRequest) (*dto.TransactionResponse, error) {
	date, err := time.Parse(dto.DateLayout, req.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}

	now := time.Now()
	tx := &models.Transaction{
		ID:          uuid.New(),
		UserID:      callerID,
		Amount:      req.Amount,
		Description: req.Description,
		Category:    req.Category,
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.txRepo.Create(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Debug("Transaction created",
		zap.String("id", tx.ID.String()),
		zap.String("user_id", callerID.String()),
	)

	return mapToResponse(tx), nil
}

func (s *LedgerService) List(ctx context.Context, callerID uuid.UUID) ([]*dto.TransactionResponse, error) {
	transactions, err := s.txRepo.GetByUserID(ctx, callerID)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.TransactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		responses = append(responses, mapToResponse(tx))
	}

	return responses, nil
}

// Update overwrites all four mutable fields of the transaction. Fields the
// caller did not mean to change are still replaced with the request values;
// there is no partial merge.
func (s *LedgerService) Update(ctx context.Context, id, callerID uuid.UUID, req *dto.TransactionRequest) (*dto.TransactionResponse, error) {
	date, err := time.Parse(dto.DateLayout, req.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}

	tx, err := s.findOwned(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	tx.Amount = req.Amount
	tx.Description = req.Description
	tx.Category = req.Category
	tx.Date = date
	tx.UpdatedAt = time.Now()

	if err := s.txRepo.Update(ctx, tx); err != nil {
		return nil, err
	}

	return mapToResponse(tx), nil
}

// Delete removes the transaction permanently and returns its last-known
// values so the caller can confirm what was removed.
func (s *LedgerService) Delete(ctx context.Context, id, callerID uuid.UUID) (*dto.TransactionResponse, error) {
	tx, err := s.findOwned(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	snapshot := mapToResponse(tx)

	if err := s.txRepo.Delete(ctx, id); err != nil {
		return nil, err
	}

	s.logger.Debug("Transaction deleted",
		zap.String("id", id.String()),
		zap.String("user_id", callerID.String()),
	)

	return snapshot, nil
}

// Balance is the signed sum over the caller's current transactions: an
// "Income" category (case-insensitive) adds the amount, everything else
// subtracts it. It is computed from the store on every call; no balance is
// cached anywhere.
func (s *LedgerService) Balance(ctx context.Context, callerID uuid.UUID) (decimal.Decimal, error) {
	transactions, err := s.txRepo.GetByUserID(ctx, callerID)
	if err != nil {
		return decimal.Zero, err
	}

	balance := decimal.Zero
	for _, tx := range transactions {
		if strings.EqualFold(tx.Category, models.CategoryIncome) {
			balance = balance.Add(tx.Amount)
		} else {
			balance = balance.Sub(tx.Amount)
		}
	}

	return balance, nil
}

// findOwned looks the transaction up and enforces ownership. Existence is
// checked before ownership, so probing an absent id reports not-found even
// for callers that would not own it.
func (s *LedgerService) findOwned(ctx context.Context, id, callerID uuid.UUID) (*models.Transaction, error) {
	tx, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	if tx.UserID != callerID {
		return nil, ErrForbidden
	}

	return tx, nil
}

func mapToResponse(tx *models.Transaction) *dto.TransactionResponse {
	return &dto.TransactionResponse{
		ID:          tx.ID.String(),
		Amount:      tx.Amount,
		Description: tx.Description,
		Category:    tx.Category,
		Date:        tx.Date.Format(dto.DateLayout),
		CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
	}
}
