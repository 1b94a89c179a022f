package migrations

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreOrdered(t *testing.T) {
	source, err := Source()
	require.NoError(t, err)
	defer source.Close()

	first, err := source.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	next, err := source.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)

	up, identifier, err := source.ReadUp(first)
	require.NoError(t, err)
	defer up.Close()
	assert.Equal(t, "create_transactions", identifier)

	body, err := io.ReadAll(up)
	require.NoError(t, err)
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS transactions")
}

func TestEveryMigrationHasADownFile(t *testing.T) {
	source, err := Source()
	require.NoError(t, err)
	defer source.Close()

	for _, version := range []uint{1, 2} {
		down, _, err := source.ReadDown(version)
		require.NoError(t, err, "version %d", version)
		down.Close()
	}
}
