package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Supported database drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the complete runtime configuration. It is built once at startup and
// passed explicitly into every constructor that needs it.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Invoice  InvoiceConfig  `mapstructure:"invoice"`
	Company  CompanyInfo    `mapstructure:"company"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig selects the engine and how to reach it.
// Path is only used by the sqlite driver, URL only by postgres.
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	Path         string `mapstructure:"path"`
	URL          string `mapstructure:"url"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type ServerConfig struct {
	Port           string `mapstructure:"port"`
	AllowedOrigins string `mapstructure:"allowed_origins"`
}

// InvoiceConfig controls document rendering. An empty LogoPath renders without a logo.
type InvoiceConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	LogoPath  string `mapstructure:"logo_path"`
	VATRate   string `mapstructure:"vat_rate"`
	Currency  string `mapstructure:"currency"`
}

// CompanyInfo is the seller block printed on every invoice.
type CompanyInfo struct {
	Name       string `mapstructure:"name"`
	Address    string `mapstructure:"address"`
	PostalCode string `mapstructure:"postal_code"`
	City       string `mapstructure:"city"`
	OrgNr      string `mapstructure:"org_nr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// envBindings maps config keys to the environment variable names used in deployments.
var envBindings = map[string]string{
	"database.driver":         "DB_DRIVER",
	"database.host":           "DB_HOST",
	"database.port":           "DB_PORT",
	"database.user":           "DB_USER",
	"database.password":       "DB_PASSWORD",
	"database.name":           "DB_NAME",
	"database.path":           "DB_PATH",
	"database.url":            "DATABASE_URL",
	"database.auto_migrate":   "DB_AUTO_MIGRATE",
	"database.max_open_conns": "DB_MAX_OPEN_CONNS",
	"server.port":             "SERVER_PORT",
	"server.allowed_origins":  "ALLOWED_ORIGINS",
	"invoice.output_dir":      "INVOICE_DIR",
	"invoice.logo_path":       "INVOICE_LOGO",
	"invoice.vat_rate":        "INVOICE_VAT_RATE",
	"invoice.currency":        "INVOICE_CURRENCY",
	"company.name":            "FIRMA_NAVN",
	"company.address":         "FIRMA_ADRESSE",
	"company.postal_code":     "FIRMA_POSTNUMMER",
	"company.city":            "FIRMA_STED",
	"company.org_nr":          "FIRMA_ORGNR",
	"log.level":               "LOG_LEVEL",
	"log.format":              "LOG_FORMAT",
	"log.file":                "LOG_FILE",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", DriverMySQL)
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "varehusdb")
	v.SetDefault("database.path", "varehus.db")
	v.SetDefault("database.url", "")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origins", "")
	v.SetDefault("invoice.output_dir", "fakturaer")
	v.SetDefault("invoice.logo_path", "")
	v.SetDefault("invoice.vat_rate", "0.25")
	v.SetDefault("invoice.currency", "NOK")
	v.SetDefault("company.name", "Varehuset AS")
	v.SetDefault("company.address", "Storgata 1")
	v.SetDefault("company.postal_code", "0155")
	v.SetDefault("company.city", "Oslo")
	v.SetDefault("company.org_nr", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
}

// Load reads .env (if present), an optional varehus.yaml, and the environment.
// Environment variables win over the file, the file wins over defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("varehus")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail much later at first use.
func (c *Config) Validate() error {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q (want mysql, postgres or sqlite)", c.Database.Driver)
	}
	if c.Database.Driver == DriverSQLite && c.Database.Path == "" {
		return fmt.Errorf("DB_PATH is required for the sqlite driver")
	}
	if _, err := c.Invoice.VAT(); err != nil {
		return err
	}
	if c.Invoice.OutputDir == "" {
		return fmt.Errorf("INVOICE_DIR must not be empty")
	}
	return nil
}

// VAT parses the configured VAT rate as a fraction, e.g. 0.25.
func (ic InvoiceConfig) VAT() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(ic.VATRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid INVOICE_VAT_RATE %q: %w", ic.VATRate, err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("INVOICE_VAT_RATE must be in [0, 1), got %s", rate)
	}
	return rate, nil
}

// Origins splits the comma separated ALLOWED_ORIGINS value.
func (sc ServerConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(sc.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
