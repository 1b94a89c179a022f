package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ms-transactions/internal/logger"
	"ms-transactions/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
	Log *logger.Logger
}

func New(bunDB *bun.DB, log *logger.Logger) *DB {
	return &DB{Bun: bunDB, Log: log}
}

// Save inserts tx under a fresh UUID when it has no id, otherwise upserts by id.
func (d *DB) Save(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	record := *tx
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	_, err := d.Bun.NewInsert().
		Model(&record).
		On("CONFLICT (id) DO UPDATE").
		Set("amount = EXCLUDED.amount").
		Set("payment_type = EXCLUDED.payment_type").
		Set("status = EXCLUDED.status").
		Set("order_lines = EXCLUDED.order_lines").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("upsert transaction %s: %w", record.ID, err)
	}

	d.logDatabase("UPSERT", fmt.Sprintf("Transaction %s saved", record.ID))
	return &record, nil
}

// FindByID → fetch one transaction, (nil, nil) when absent
func (d *DB) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	var tx models.Transaction
	err := d.Bun.NewSelect().
		Model(&tx).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select transaction %s: %w", id, err)
	}
	return &tx, nil
}

// FindAll → every transaction, in whatever order the table returns them
func (d *DB) FindAll(ctx context.Context) ([]models.Transaction, error) {
	txs := []models.Transaction{}
	err := d.Bun.NewSelect().
		Model(&txs).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	return txs, nil
}

// DeleteByID → delete by id, no-op when absent
func (d *DB) DeleteByID(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Transaction)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	d.logDatabase("DELETE", fmt.Sprintf("Transaction %s deleted", id))
	return nil
}

func (d *DB) Ping(ctx context.Context) error {
	return d.Bun.PingContext(ctx)
}

func (d *DB) logDatabase(operation, message string) {
	if d.Log != nil {
		d.Log.LogDatabase(operation, "transactions", message)
	}
}
