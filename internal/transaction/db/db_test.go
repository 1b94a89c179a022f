package db_test

import (
	"context"
	"database/sql"
	"testing"

	"ms-transactions/internal/models"
	"ms-transactions/internal/transaction/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	// In-memory SQLite; a single connection keeps every query on the same database.
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	if err := db.CreateSchema(context.Background(), bunDB); err != nil {
		t.Fatalf("Failed to create transactions table: %v", err)
	}

	return db.New(bunDB, nil), bunDB
}

func TestSaveAssignsIDAndRoundTrips(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	lines := []models.OrderLine{
		{ProductName: "Gloves", Quantity: 4, Price: 10.0},
		{ProductName: "Wool Hat", Quantity: 1, Price: 14.8},
	}
	saved, err := store.Save(ctx, &models.Transaction{
		Amount:      54.80,
		PaymentType: models.PaymentCreditCard,
		Status:      models.StatusNew,
		OrderLines:  lines,
	})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	found, err := store.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, saved.ID, found.ID)
	assert.Equal(t, 54.80, found.Amount)
	assert.Equal(t, models.PaymentCreditCard, found.PaymentType)
	assert.Equal(t, models.StatusNew, found.Status)
	assert.Equal(t, lines, found.OrderLines)
}

func TestSaveDoesNotMutateInput(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()

	input := &models.Transaction{Amount: 1, Status: models.StatusNew}
	saved, err := store.Save(context.Background(), input)
	require.NoError(t, err)

	assert.Empty(t, input.ID)
	assert.NotEmpty(t, saved.ID)
}

func TestSaveUpsertsExistingID(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	saved, err := store.Save(ctx, &models.Transaction{Amount: 50, PaymentType: models.PaymentCreditCard, Status: models.StatusAuthorized})
	require.NoError(t, err)

	saved.Amount = 60
	saved.PaymentType = models.PaymentPaypal
	saved.Status = models.StatusCaptured
	_, err = store.Save(ctx, saved)
	require.NoError(t, err)

	found, err := store.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, 60.0, found.Amount)
	assert.Equal(t, models.PaymentPaypal, found.PaymentType)
	assert.Equal(t, models.StatusCaptured, found.Status)

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSaveWithCallerIDInserts(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	_, err := store.Save(ctx, &models.Transaction{ID: "fixed-id", Amount: 3, Status: models.StatusNew})
	require.NoError(t, err)

	found, err := store.FindByID(ctx, "fixed-id")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 3.0, found.Amount)
}

func TestFindByIDMissing(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()

	found, err := store.FindByID(context.Background(), "non-existent")
	assert.NoError(t, err)
	assert.Nil(t, found)
}

func TestFindAll(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	for _, amount := range []float64{10, 20, 30} {
		_, err := store.Save(ctx, &models.Transaction{Amount: amount, Status: models.StatusNew})
		require.NoError(t, err)
	}

	all, err = store.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDeleteByID(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	saved, err := store.Save(ctx, &models.Transaction{Amount: 1, Status: models.StatusNew})
	require.NoError(t, err)

	require.NoError(t, store.DeleteByID(ctx, saved.ID))

	count, err := bunDB.NewSelect().
		Model((*models.Transaction)(nil)).
		Where("id = ?", saved.ID).
		Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Deleting again is a no-op.
	assert.NoError(t, store.DeleteByID(ctx, saved.ID))
}

func TestPing(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()

	assert.NoError(t, store.Ping(context.Background()))
}
