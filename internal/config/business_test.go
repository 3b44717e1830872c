package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewBusinessConfigHolderReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "business.yml")
	content := []byte(`business:
  companyName: Crystal Clear Windows
  currencySymbol: "€"
  dateLayout: "02.01.2006"
  paymentTermsDays: 14
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	holder, err := NewBusinessConfigHolder(Config{BusinessConfigPath: path}, zap.NewNop())
	require.NoError(t, err)

	got := holder.Get()
	assert.Equal(t, "Crystal Clear Windows", got.CompanyName)
	assert.Equal(t, "€", got.CurrencySymbol)
	assert.Equal(t, "02.01.2006", got.DateLayout)
	assert.Equal(t, 14, got.PaymentTermsDays)
	assert.Equal(t, "windows", got.ServiceUnitLabel)
}

func TestNewBusinessConfigHolderMissingExplicitPath(t *testing.T) {
	_, err := NewBusinessConfigHolder(Config{BusinessConfigPath: filepath.Join(t.TempDir(), "nope.yml")}, zap.NewNop())
	assert.Error(t, err)
}

func TestValidateBusinessConfig(t *testing.T) {
	cfg := DefaultBusinessConfig()
	assert.NoError(t, validateBusinessConfig(cfg))

	cfg.CompanyName = "  "
	assert.Error(t, validateBusinessConfig(cfg))

	cfg = DefaultBusinessConfig()
	cfg.PaymentTermsDays = -1
	assert.Error(t, validateBusinessConfig(cfg))
}

func TestNilHolderFallsBackToDefaults(t *testing.T) {
	var holder *BusinessConfigHolder
	assert.Equal(t, DefaultBusinessConfig(), holder.Get())
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "Postgres")
	t.Setenv("SEED_DEMO_DATA", "yes")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("DATABASE_MAX_OPEN_CONN", "not-a-number")
	t.Setenv("LOG_LEVEL", " DEBUG ")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "HTTP")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.5")

	cfg := Load()
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "collector:4318", cfg.OTLPEndpoint)
	assert.Equal(t, "http", cfg.OTLPProtocol)
	assert.Equal(t, 0.5, cfg.OtelSamplingRatio)
	assert.False(t, cfg.OtelEnabled)
	assert.Equal(t, "postgres", cfg.DBType)
	assert.True(t, cfg.Bootstrap.SeedDemoData)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 20, cfg.DBMaxOpenConn)
}
