package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloseDatabase(t *testing.T) {
	db, err := InitDatabase(nil, "sqlite", "")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Ping())

	require.NoError(t, CloseDatabase(db))
	assert.Error(t, sqlDB.Ping())
}
