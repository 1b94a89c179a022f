package db

import (
	"context"
	"fmt"

	"ms-transactions/internal/models"

	"github.com/uptrace/bun"
)

// CreateSchema creates the transactions table from the bun model. Postgres
// deployments use the versioned migrations instead.
func CreateSchema(ctx context.Context, bunDB *bun.DB) error {
	_, err := bunDB.NewCreateTable().
		Model((*models.Transaction)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create transactions table: %w", err)
	}
	return nil
}

func DropSchema(ctx context.Context, bunDB *bun.DB) error {
	_, err := bunDB.NewDropTable().
		Model((*models.Transaction)(nil)).
		IfExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("drop transactions table: %w", err)
	}
	return nil
}
