package main

import (
	"context"
	"flag"
	"fmt"

	"ms-transactions/internal/config"
	"ms-transactions/internal/database"
	"ms-transactions/internal/database/migrations"
	"ms-transactions/internal/logger"
	"ms-transactions/internal/models"
	"ms-transactions/internal/transaction"
	txdb "ms-transactions/internal/transaction/db"
	txmongo "ms-transactions/internal/transaction/mongo"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
)

// sampleTransactions are the two orders used throughout local testing.
var sampleTransactions = []models.Transaction{
	{
		ID:          "sample-gloves",
		Amount:      54.80,
		PaymentType: models.PaymentCreditCard,
		Status:      models.StatusNew,
		OrderLines: []models.OrderLine{
			{ProductName: "Gloves", Quantity: 4, Price: 10.0},
			{ProductName: "Wool Hat", Quantity: 1, Price: 14.8},
		},
	},
	{
		ID:          "sample-bike",
		Amount:      208,
		PaymentType: models.PaymentPaypal,
		Status:      models.StatusNew,
		OrderLines: []models.OrderLine{
			{ProductName: "Bike", Quantity: 1, Price: 208},
		},
	},
}

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	seed := flag.Bool("seed", false, "insert sample transactions after migrating up")
	flag.Parse()

	log := logger.NewLogger()
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()
	ctx := context.Background()

	var store transaction.Store
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		bunDB, err := database.OpenPostgres(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal("DATABASE", err.Error())
		}
		runner := migrations.NewRunner(bunDB, log)
		if *direction == "down" {
			err = runner.MigrateDown()
		} else {
			err = runner.MigrateUp()
		}
		runner.Close()
		if err != nil {
			log.Fatal("MIGRATE", err.Error())
		}
		if *seed && *direction != "down" {
			seedDB, err := database.OpenPostgres(ctx, cfg.Database, log)
			if err != nil {
				log.Fatal("DATABASE", err.Error())
			}
			defer seedDB.Close()
			store = txdb.New(seedDB, log)
		}

	case config.DriverSQLite:
		bunDB, err := database.OpenSQLite(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal("DATABASE", err.Error())
		}
		defer bunDB.Close()
		if err := applySQLite(ctx, bunDB, *direction); err != nil {
			log.Fatal("MIGRATE", err.Error())
		}
		store = txdb.New(bunDB, log)

	case config.DriverMongo:
		mongoStore, err := txmongo.Connect(ctx, cfg.Mongo, log)
		if err != nil {
			log.Fatal("DATABASE", err.Error())
		}
		defer mongoStore.Close(context.Background())
		if *direction == "down" {
			if err := mongoStore.Collection.Drop(ctx); err != nil {
				log.Fatal("MIGRATE", err.Error())
			}
			log.Info("MIGRATE", "Transaction collection dropped")
		} else if err := mongoStore.EnsureIndexes(ctx); err != nil {
			log.Fatal("MIGRATE", err.Error())
		}
		store = mongoStore

	default:
		log.Fatal("CONFIG", fmt.Sprintf("unknown STORE_DRIVER %q", cfg.Store.Driver))
	}

	if *seed && *direction != "down" {
		if err := seedTransactions(ctx, store, log); err != nil {
			log.Fatal("SEED", err.Error())
		}
	}

	log.Info("MIGRATE", "Done")
}

func applySQLite(ctx context.Context, bunDB *bun.DB, direction string) error {
	if direction == "down" {
		return txdb.DropSchema(ctx, bunDB)
	}
	return txdb.CreateSchema(ctx, bunDB)
}

func seedTransactions(ctx context.Context, store transaction.Store, log *logger.Logger) error {
	for i := range sampleTransactions {
		saved, err := store.Save(ctx, &sampleTransactions[i])
		if err != nil {
			return fmt.Errorf("seed transaction %s: %w", sampleTransactions[i].ID, err)
		}
		log.LogTransaction("SEED", saved.ID, fmt.Sprintf("amount=%.2f type=%s", saved.Amount, saved.PaymentType))
	}
	return nil
}
