package database_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-housekeeper/framework/config"
	"github.com/km-arc/go-housekeeper/framework/database"
)

type note struct {
	ID   uint
	Body string
}

func TestOpen_InMemorySQLite(t *testing.T) {
	db, err := database.Open(context.Background(), config.DBConfig{Driver: "sqlite", Database: ":memory:"}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	require.NoError(t, db.AutoMigrate(&note{}))
	require.NoError(t, db.Create(&note{Body: "hello"}).Error)

	var got note
	require.NoError(t, db.First(&got).Error)
	assert.Equal(t, "hello", got.Body)
}

func TestOpen_LogsQueryErrors(t *testing.T) {
	var buf bytes.Buffer
	db, err := database.Open(context.Background(), config.DBConfig{Driver: "sqlite", Database: ":memory:"}, zerolog.New(&buf))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	err = db.Exec("SELECT * FROM missing_table").Error
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"component":"gorm"`)
	assert.Contains(t, buf.String(), "query error")
}

func TestDialector_UnsupportedDriver(t *testing.T) {
	_, err := database.Dialector(config.DBConfig{Driver: "mysql"})
	assert.ErrorContains(t, err, `unsupported driver "mysql"`)
}

func TestDialector_Postgres(t *testing.T) {
	d, err := database.Dialector(config.DBConfig{Driver: "postgres", Host: "localhost", Port: "5432"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())
}
