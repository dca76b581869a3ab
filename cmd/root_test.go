package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/studyloop/internal/config"
)

func TestMongoOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Empty(t, mongoOptions(cfg))

	cfg.Mongo.Transactions = true
	assert.Len(t, mongoOptions(cfg), 1)
}
