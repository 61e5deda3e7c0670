package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateUpSQLite(t *testing.T) {
	useTestEnv(t)

	output, err := executeCommand(t, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, output, "migrations applied")

	output, err = executeCommand(t, "migrate", "up")
	require.NoError(t, err, "second run is a no-op")
	assert.Contains(t, output, "migrations applied")
}

func TestMigrateDownSQLite(t *testing.T) {
	useTestEnv(t)

	_, err := executeCommand(t, "migrate", "up")
	require.NoError(t, err)

	output, err := executeCommand(t, "migrate", "down", "--steps", "1")
	require.NoError(t, err)
	assert.Contains(t, output, "rolled back 1 migration(s)")

	_, err = executeCommand(t, "migrate", "down", "--steps", "1")
	assert.Error(t, err, "schema is already at version 0")
}

func TestMigrateRejectsArgs(t *testing.T) {
	useTestEnv(t)

	_, err := executeCommand(t, "migrate", "up", "extra")
	assert.Error(t, err)
}
