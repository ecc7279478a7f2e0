package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, ":8082", cfg.AdminAddr)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Contains(t, cfg.ActiveStatuses, "pending")
	assert.Contains(t, cfg.ActiveStatuses, "shipped")
	assert.Contains(t, cfg.ReturnedStatuses, "cancelled")
	assert.Contains(t, cfg.ReturnedStatuses, "refunded")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092 ,")
	t.Setenv("ACTIVE_STATUSES", "open,fulfilling")
	t.Setenv("RETURNED_STATUSES", "void")

	cfg := Load()
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"open", "fulfilling"}, cfg.ActiveStatuses)
	assert.Equal(t, []string{"void"}, cfg.ReturnedStatuses)
}
