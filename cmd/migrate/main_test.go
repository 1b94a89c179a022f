package main

import (
	"context"
	"io"
	"testing"

	"ms-transactions/internal/config"
	"ms-transactions/internal/database"
	"ms-transactions/internal/logger"
	"ms-transactions/internal/models"
	txdb "ms-transactions/internal/transaction/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedIsRepeatable(t *testing.T) {
	ctx := context.Background()
	log := logger.NewLoggerWithWriter(io.Discard)

	bunDB, err := database.OpenSQLite(ctx, config.DatabaseConfig{SQLiteDSN: ":memory:"}, log)
	require.NoError(t, err)
	defer bunDB.Close()

	require.NoError(t, applySQLite(ctx, bunDB, "up"))
	store := txdb.New(bunDB, log)

	require.NoError(t, seedTransactions(ctx, store, log))
	require.NoError(t, seedTransactions(ctx, store, log))

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bike, err := store.FindByID(ctx, "sample-bike")
	require.NoError(t, err)
	require.NotNil(t, bike)
	assert.Equal(t, models.PaymentPaypal, bike.PaymentType)
	assert.Equal(t, []models.OrderLine{{ProductName: "Bike", Quantity: 1, Price: 208}}, bike.OrderLines)

	require.NoError(t, applySQLite(ctx, bunDB, "down"))
	_, err = store.FindAll(ctx)
	assert.Error(t, err)
}
