// internal/config/config_test.go
package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.True(t, cfg.Sales.TaxRate.Equal(decimal.NewFromFloat(0.19)), "tax rate = %s", cfg.Sales.TaxRate)
	assert.Equal(t, "CLP", cfg.Sales.Currency)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SALES_TAX_RATE", "0.21")
	t.Setenv("SALES_CURRENCY", "EUR")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Sales.TaxRate.Equal(decimal.NewFromFloat(0.21)))
	assert.Equal(t, "EUR", cfg.Sales.Currency)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_UnparsableTaxRateFallsBackToDefault(t *testing.T) {
	t.Setenv("SALES_TAX_RATE", "nineteen percent")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Sales.TaxRate.Equal(decimal.NewFromFloat(0.19)))
}

func TestValidate_RejectsOutOfRangeTaxRate(t *testing.T) {
	t.Setenv("SALES_TAX_RATE", "1.5")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SALES_TAX_RATE", "-0.1")
	_, err = Load()
	assert.Error(t, err)
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Contains(t, cfg.GetDatabaseDSN(), "host=localhost")
	assert.Contains(t, cfg.GetDatabaseDSN(), "dbname=muralla_db")
}
