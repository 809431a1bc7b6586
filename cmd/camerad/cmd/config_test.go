package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/camerad/internal/config"
)

func TestToMap_RendersDurationsAsStrings(t *testing.T) {
	cfg := config.DatabaseConfig{
		Driver:          "sqlite",
		DSN:             "camerad.db",
		ConnMaxLifetime: 30 * time.Minute,
	}

	m := toMap(cfg)
	assert.Equal(t, "sqlite", m["driver"])
	assert.Equal(t, "30m0s", m["conn_max_lifetime"])
}

func TestToMap_RecursesIntoNestedStructs(t *testing.T) {
	cfg := config.Config{
		Logging: config.LoggingConfig{Level: "info", Format: "json"},
	}

	m := toMap(&cfg)
	logging, ok := m["logging"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "info", logging["level"])
	assert.Equal(t, "json", logging["format"])
}

func TestToMap_FallsBackToFieldNameWithoutMapstructureTag(t *testing.T) {
	type noTags struct {
		Foo string
	}

	m := toMap(noTags{Foo: "bar"})
	assert.Equal(t, "bar", m["Foo"])
}
