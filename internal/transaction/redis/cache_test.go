package redis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"ms-transactions/internal/logger"
	"ms-transactions/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is a counting in-memory backend.
type memoryStore struct {
	mu      sync.Mutex
	records map[string]models.Transaction
	finds   int
	failAll error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: map[string]models.Transaction{}}
}

func (m *memoryStore) Save(_ context.Context, tx *models.Transaction) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	record := *tx
	if record.ID == "" {
		record.ID = "generated"
	}
	m.records[record.ID] = record
	return &record, nil
}

func (m *memoryStore) FindByID(_ context.Context, id string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	if m.failAll != nil {
		return nil, m.failAll
	}
	record, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (m *memoryStore) FindAll(_ context.Context) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := []models.Transaction{}
	for _, record := range m.records {
		all = append(all, record)
	}
	return all, nil
}

func (m *memoryStore) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	delete(m.records, id)
	return nil
}

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func newCachedStore(t *testing.T) (*CachedStore, *memoryStore, *miniredis.Miniredis) {
	client, mr := setupTestRedis(t)
	backend := newMemoryStore()
	return NewCachedStore(backend, client, time.Minute, logger.NewLoggerWithWriter(io.Discard)), backend, mr
}

func sampleTransaction() *models.Transaction {
	return &models.Transaction{
		Amount:      208,
		PaymentType: models.PaymentPaypal,
		Status:      models.StatusNew,
		OrderLines:  []models.OrderLine{{ProductName: "Bike", Quantity: 1, Price: 208}},
	}
}

func TestSaveWritesThroughToCache(t *testing.T) {
	store, backend, mr := newCachedStore(t)
	ctx := context.Background()

	saved, err := store.Save(ctx, sampleTransaction())
	require.NoError(t, err)

	raw, err := mr.Get(cacheKey(saved.ID))
	require.NoError(t, err)
	var cached models.Transaction
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	assert.Equal(t, *saved, cached)
	assert.Equal(t, time.Minute, mr.TTL(cacheKey(saved.ID)))

	found, err := store.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved, found)
	assert.Equal(t, 0, backend.finds)
}

func TestFindByIDPopulatesCacheOnMiss(t *testing.T) {
	store, backend, mr := newCachedStore(t)
	ctx := context.Background()

	backend.records["abc"] = models.Transaction{ID: "abc", Amount: 10, PaymentType: models.PaymentCreditCard, Status: models.StatusAuthorized}

	first, err := store.FindByID(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.True(t, mr.Exists(cacheKey("abc")))

	second, err := store.FindByID(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.finds)
}

func TestFindByIDMissingIsNotCached(t *testing.T) {
	store, _, mr := newCachedStore(t)

	tx, err := store.FindByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, tx)
	assert.False(t, mr.Exists(cacheKey("nope")))
}

func TestFindByIDDropsCorruptEntry(t *testing.T) {
	store, backend, mr := newCachedStore(t)
	backend.records["abc"] = models.Transaction{ID: "abc", Status: models.StatusNew}
	require.NoError(t, mr.Set(cacheKey("abc"), "{not json"))

	tx, err := store.FindByID(context.Background(), "abc")
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, "abc", tx.ID)
	assert.Equal(t, 1, backend.finds)
}

func TestDeleteByIDEvicts(t *testing.T) {
	store, _, mr := newCachedStore(t)
	ctx := context.Background()

	saved, err := store.Save(ctx, sampleTransaction())
	require.NoError(t, err)
	require.True(t, mr.Exists(cacheKey(saved.ID)))

	require.NoError(t, store.DeleteByID(ctx, saved.ID))
	assert.False(t, mr.Exists(cacheKey(saved.ID)))

	tx, err := store.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Nil(t, tx)
}

func TestBackendErrorsPropagate(t *testing.T) {
	store, backend, mr := newCachedStore(t)
	backend.failAll = errors.New("disk on fire")

	_, err := store.Save(context.Background(), sampleTransaction())
	assert.EqualError(t, err, "disk on fire")
	assert.Empty(t, mr.Keys())

	err = store.DeleteByID(context.Background(), "x")
	assert.EqualError(t, err, "disk on fire")
}

func TestRedisOutageFallsBackToBackend(t *testing.T) {
	store, backend, mr := newCachedStore(t)
	backend.records["abc"] = models.Transaction{ID: "abc", Status: models.StatusNew}
	mr.Close()

	tx, err := store.FindByID(context.Background(), "abc")
	require.NoError(t, err)
	require.NotNil(t, tx)

	saved, err := store.Save(context.Background(), &models.Transaction{ID: "abc", Status: models.StatusAuthorized})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAuthorized, saved.Status)

	assert.Error(t, store.Ping(context.Background()))
}

func TestFindAllPassesThrough(t *testing.T) {
	store, backend, _ := newCachedStore(t)
	backend.records["a"] = models.Transaction{ID: "a"}
	backend.records["b"] = models.Transaction{ID: "b"}

	all, err := store.FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestCacheServesRecordWithoutPaymentType(t *testing.T) {
	store, backend, _ := newCachedStore(t)
	ctx := context.Background()

	saved, err := store.Save(ctx, &models.Transaction{Amount: 10, Status: models.StatusNew})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		found, err := store.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, saved, found)
	}
	assert.Equal(t, 0, backend.finds)
}
