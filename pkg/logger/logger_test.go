package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-core/pkg/logger"
)

func TestLogger_ComponenteYServicio(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "debug", Service: "inventario-core", Out: &buf})

	log.Component("coordinator").Warn().Str("sku_id", "sku-1").Msg("operación de reserva rechazada")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "inventario-core", entry["service"])
	assert.Equal(t, "coordinator", entry["component"])
	assert.Equal(t, "sku-1", entry["sku_id"])
}

func TestLogger_NivelFiltra(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: "WARN", Out: &buf})

	log.Debug().Msg("no sale")
	log.Info().Msg("tampoco")
	assert.Zero(t, buf.Len())

	log.Error().Msg("sí sale")
	assert.NotZero(t, buf.Len())
}

func TestLogger_NivelDesconocidoUsaInfo(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: "ruidoso", Out: &buf})

	log.Debug().Msg("no sale")
	assert.Zero(t, buf.Len())
	log.Info().Msg("sale")
	assert.NotZero(t, buf.Len())
}
