package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quiz-api/internal/config"
	"github.com/yourusername/quiz-api/internal/domain/entity"
)

func TestOpen_SQLiteCreatesSchema(t *testing.T) {
	cfg := config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "quiz.db"),
	}

	db, err := Open(cfg)
	require.NoError(t, err)

	for _, model := range []interface{}{&entity.Question{}, &entity.Account{}, &entity.Attempt{}, &entity.Setting{}} {
		assert.True(t, db.Migrator().HasTable(model), "%T table must exist", model)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "mssql"})
	assert.Error(t, err)
}

func TestNewUniversalRedisClient_RequiresAddress(t *testing.T) {
	_, err := NewUniversalRedisClient(context.Background(), config.RedisConfig{})
	assert.Error(t, err)
}

func TestNewUniversalRedisClient_SentinelRequiresMaster(t *testing.T) {
	_, err := NewUniversalRedisClient(context.Background(), config.RedisConfig{Mode: "sentinel", Addr: "localhost:26379"})
	assert.Error(t, err)
}
