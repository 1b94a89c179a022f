package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ms-transactions/internal/config"
	"ms-transactions/internal/logger"
	"ms-transactions/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrEmptyURI            = errors.New("mongo uri cannot be empty")
	ErrEmptyDatabaseName   = errors.New("database name cannot be empty")
	ErrEmptyCollectionName = errors.New("collection name cannot be empty")
)

// Store keeps transactions as documents. Ids that are 24-char hex strings are
// stored as ObjectIds, matching documents written by other Mongo clients.
type Store struct {
	Client     *mongo.Client
	Collection *mongo.Collection
	Log        *logger.Logger
}

// Connect dials MongoDB, pings it and returns a Store bound to the configured collection.
func Connect(ctx context.Context, cfg config.MongoConfig, log *logger.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.URI) == "" {
		return nil, ErrEmptyURI
	}
	if strings.TrimSpace(cfg.Database) == "" {
		return nil, ErrEmptyDatabaseName
	}
	if strings.TrimSpace(cfg.Collection) == "" {
		return nil, ErrEmptyCollectionName
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	log.LogDatabase("CONNECT", "mongodb", fmt.Sprintf("Connecting to MongoDB database %s", cfg.Database))

	client, err := mongo.Connect(connectCtx, options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("mongo connect failed: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	log.LogDatabase("SUCCESS", "mongodb", "MongoDB connection established")
	return NewStore(client, client.Database(cfg.Database).Collection(cfg.Collection), log), nil
}

func NewStore(client *mongo.Client, collection *mongo.Collection, log *logger.Logger) *Store {
	return &Store{Client: client, Collection: collection, Log: log}
}

// Save inserts under a new ObjectID hex when tx has no id, otherwise replaces
// the document with that id (upsert).
func (s *Store) Save(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	record := *tx
	if record.ID == "" {
		record.ID = primitive.NewObjectID().Hex()
	}

	doc := toDocument(record)
	_, err := s.Collection.ReplaceOne(ctx,
		bson.M{"_id": doc.ID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return nil, fmt.Errorf("replace transaction %s: %w", record.ID, err)
	}

	s.logDatabase("UPSERT", fmt.Sprintf("Transaction %s saved", record.ID))
	return &record, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	var doc document
	err := s.Collection.FindOne(ctx, bson.M{"_id": documentID(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find transaction %s: %w", id, err)
	}
	tx := doc.transaction()
	return &tx, nil
}

func (s *Store) FindAll(ctx context.Context) ([]models.Transaction, error) {
	cursor, err := s.Collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}

	txs := make([]models.Transaction, 0, len(docs))
	for _, doc := range docs {
		txs = append(txs, doc.transaction())
	}
	return txs, nil
}

func (s *Store) DeleteByID(ctx context.Context, id string) error {
	if _, err := s.Collection.DeleteOne(ctx, bson.M{"_id": documentID(id)}); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	s.logDatabase("DELETE", fmt.Sprintf("Transaction %s deleted", id))
	return nil
}

// EnsureIndexes adds the status index used by operational queries.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "status", Value: 1}},
		Options: options.Index().SetName("idx_transactions_status"),
	})
	if err != nil {
		return fmt.Errorf("mongo create index failed: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	s.logDatabase("CLOSE", "Closing MongoDB connection")
	return s.Client.Disconnect(ctx)
}

func (s *Store) logDatabase(operation, message string) {
	if s.Log != nil {
		s.Log.LogDatabase(operation, "mongodb", message)
	}
}
