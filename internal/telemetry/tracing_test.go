package telemetry_test

import (
	"testing"

	"github.com/veatashop/storefront/internal/config"
	"github.com/veatashop/storefront/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupDisabled(t *testing.T) {
	// Arrange
	cfg := &config.Config{Env: "test"}
	cfg.Telemetry.Enabled = false

	// Act
	shutdown, err := telemetry.Setup(t.Context(), cfg)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(t.Context()))
}
