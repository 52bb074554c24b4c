package mongodb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(mongo.ErrNoDocuments))
	assert.True(t, IsNotFound(fmt.Errorf("find event: %w", mongo.ErrNoDocuments)))
	assert.False(t, IsNotFound(errors.New("connection reset")))
}

func TestIsDuplicateKey(t *testing.T) {
	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.True(t, IsDuplicateKey(dup))
	assert.False(t, IsDuplicateKey(errors.New("other")))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "ravehub", cfg.Database)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowCommandThreshold)
}

func TestConnect_Integration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}

	cfg := DefaultConfig()
	if uri := os.Getenv("TEST_MONGODB_URI"); uri != "" {
		cfg.URI = uri
	}
	cfg.Database = "ravehub_test"

	ctx := context.Background()
	db, err := Connect(ctx, cfg)
	require.NoError(t, err)
	defer db.Close(ctx)

	require.NoError(t, db.HealthCheck(ctx))

	coll := db.Collection("healthcheck")
	defer coll.Drop(ctx)
	_, err = coll.InsertOne(ctx, bson.M{"_id": "x"})
	require.NoError(t, err)
	_, err = coll.InsertOne(ctx, bson.M{"_id": "x"})
	assert.True(t, IsDuplicateKey(err))
}
