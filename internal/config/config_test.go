package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "varehusdb", cfg.Database.Name)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "fakturaer", cfg.Invoice.OutputDir)

	vat, err := cfg.Invoice.VAT()
	require.NoError(t, err)
	assert.True(t, vat.Equal(decimal.RequireFromString("0.25")))
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_PATH", "/tmp/lager.db")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("FIRMA_NAVN", "Lager og Co AS")
	t.Setenv("INVOICE_VAT_RATE", "0.15")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, ,http://b.example")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/lager.db", cfg.Database.Path)
	assert.Equal(t, 3307, cfg.Database.Port)
	assert.False(t, cfg.Database.AutoMigrate)
	assert.Equal(t, "Lager og Co AS", cfg.Company.Name)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.Origins())

	vat, err := cfg.Invoice.VAT()
	require.NoError(t, err)
	assert.Equal(t, "0.15", vat.String())
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"DB_DRIVER": "oracle"}},
		{"vat not a number", map[string]string{"INVOICE_VAT_RATE": "tjuefem"}},
		{"vat out of range", map[string]string{"INVOICE_VAT_RATE": "1.5"}},
		{"negative vat", map[string]string{"INVOICE_VAT_RATE": "-0.1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := load(viper.New())
			assert.Error(t, err)
		})
	}
}
