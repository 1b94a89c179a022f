package transaction

import (
	"context"
	"fmt"

	"ms-transactions/internal/logger"
	"ms-transactions/internal/models"
)

// Store is the persistence contract for transactions. FindByID returns
// (nil, nil) when the id is unknown and DeleteByID is a no-op in that case.
type Store interface {
	Save(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)
	FindByID(ctx context.Context, id string) (*models.Transaction, error)
	FindAll(ctx context.Context) ([]models.Transaction, error)
	DeleteByID(ctx context.Context, id string) error
}

// Pinger is implemented by stores that can report their connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

type EventPublisher interface {
	PublishTransactionCreated(ctx context.Context, tx models.Transaction) error
	PublishTransactionUpdated(ctx context.Context, tx models.Transaction) error
	PublishTransactionDeleted(ctx context.Context, tx models.Transaction) error
}

type TransactionService struct {
	Store  Store
	Events EventPublisher
	Logger *logger.Logger
}

func NewTransactionService(store Store, events EventPublisher, log *logger.Logger) *TransactionService {
	return &TransactionService{Store: store, Events: events, Logger: log}
}

// CreateTransaction stores tx as a NEW transaction whatever status the caller sent.
func (s *TransactionService) CreateTransaction(ctx context.Context, tx models.Transaction) (*models.Transaction, error) {
	tx.ID = ""
	tx.Status = models.StatusNew

	saved, err := s.Store.Save(ctx, &tx)
	if err != nil {
		s.Logger.Error("TRANSACTION", fmt.Sprintf("Failed to create transaction: %v", err))
		return nil, &StorageError{Op: "save", Err: err}
	}

	s.Logger.LogTransaction("CREATE", saved.ID, fmt.Sprintf("amount=%.2f type=%s lines=%d", saved.Amount, saved.PaymentType, len(saved.OrderLines)))

	if s.Events != nil {
		if err := s.Events.PublishTransactionCreated(ctx, *saved); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("Publish error (transaction created %s): %v", saved.ID, err))
		}
	}

	return saved, nil
}

// GetTransaction returns (nil, nil) when no transaction has the given id.
func (s *TransactionService) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	tx, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return nil, &StorageError{Op: "find", Err: err}
	}
	return tx, nil
}

func (s *TransactionService) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	txs, err := s.Store.FindAll(ctx)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	return txs, nil
}

// UpdateTransaction copies amount, payment type and status from proposed onto
// the stored record. Order lines are left as they were at creation.
func (s *TransactionService) UpdateTransaction(ctx context.Context, id string, proposed models.Transaction) (*models.Transaction, error) {
	existing, err := s.mustFind(ctx, id)
	if err != nil {
		return nil, err
	}

	status := proposed.Status
	if status == "" {
		status = models.StatusNew
	}

	if err := CheckTransition(IntentUpdate, existing.Status, status); err != nil {
		s.Logger.LogTransaction(IntentUpdate.String(), id, fmt.Sprintf("rejected %s -> %s: %v", existing.Status, status, err))
		return nil, err
	}

	previous := existing.Status
	existing.Amount = proposed.Amount
	existing.PaymentType = proposed.PaymentType
	existing.Status = status

	saved, err := s.Store.Save(ctx, existing)
	if err != nil {
		s.Logger.Error("TRANSACTION", fmt.Sprintf("Failed to update transaction %s: %v", id, err))
		return nil, &StorageError{Op: "save", Err: err}
	}

	s.Logger.LogTransaction("UPDATE", id, fmt.Sprintf("status %s -> %s", previous, saved.Status))

	if s.Events != nil {
		if err := s.Events.PublishTransactionUpdated(ctx, *saved); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("Publish error (transaction updated %s): %v", id, err))
		}
	}

	return saved, nil
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, id string) error {
	existing, err := s.mustFind(ctx, id)
	if err != nil {
		return err
	}

	if err := CheckTransition(IntentDelete, existing.Status, ""); err != nil {
		s.Logger.LogTransaction(IntentDelete.String(), id, fmt.Sprintf("rejected in status %s: %v", existing.Status, err))
		return err
	}

	if err := s.Store.DeleteByID(ctx, id); err != nil {
		s.Logger.Error("TRANSACTION", fmt.Sprintf("Failed to delete transaction %s: %v", id, err))
		return &StorageError{Op: "delete", Err: err}
	}

	s.Logger.LogTransaction("DELETE", id, "deleted")

	if s.Events != nil {
		if err := s.Events.PublishTransactionDeleted(ctx, *existing); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("Publish error (transaction deleted %s): %v", id, err))
		}
	}

	return nil
}

// Health pings the store when it supports it.
func (s *TransactionService) Health(ctx context.Context) error {
	pinger, ok := s.Store.(Pinger)
	if !ok {
		return nil
	}
	if err := pinger.Ping(ctx); err != nil {
		return &StorageError{Op: "ping", Err: err}
	}
	return nil
}

func (s *TransactionService) mustFind(ctx context.Context, id string) (*models.Transaction, error) {
	existing, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return nil, &StorageError{Op: "find", Err: err}
	}
	if existing == nil {
		return nil, &NotFoundError{ID: id}
	}
	return existing, nil
}
