package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type AppConfig struct {
	Port    string `envconfig:"APP_PORT" default:"8080"`
	BaseURL string `envconfig:"APP_BASE_URL" default:"http://localhost:8080"`
}

type LedgerConfig struct {
	// Backend selects the ledger store: memory, postgres or sheets.
	Backend string `envconfig:"LEDGER_BACKEND" default:"memory"`
}

type PostgresConfig struct {
	Host           string `envconfig:"DB_HOST" default:"localhost"`
	Port           string `envconfig:"DB_PORT" default:"5432"`
	User           string `envconfig:"DB_USER" default:"postgres"`
	Password       string `envconfig:"DB_PASSWORD" default:""`
	DBName         string `envconfig:"DB_NAME" default:"shop"`
	SSLMode        string `envconfig:"DB_SSLMODE" default:"disable"`
	MigrationsPath string `envconfig:"DB_MIGRATIONS_PATH" default:"migrations"`
}

type SheetsConfig struct {
	SpreadsheetID   string `envconfig:"SHEETS_SPREADSHEET_ID"`
	CredentialsFile string `envconfig:"SHEETS_CREDENTIALS_FILE" default:"credentials.json"`
}

type StripeConfig struct {
	SecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	WebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	SuccessURL    string `envconfig:"STRIPE_SUCCESS_URL" default:"http://localhost:8080/success"`
	CancelURL     string `envconfig:"STRIPE_CANCEL_URL" default:"http://localhost:8080/cancel"`
	Currency      string `envconfig:"STRIPE_CURRENCY" default:"eur"`
}

type SMTPConfig struct {
	Host     string `envconfig:"SMTP_HOST" default:"localhost"`
	Port     int    `envconfig:"SMTP_PORT" default:"587"`
	Username string `envconfig:"SMTP_USER"`
	Password string `envconfig:"SMTP_PASSWORD"`
	From     string `envconfig:"SMTP_FROM"`
}

type ShopConfig struct {
	InvoicePrefix    string `envconfig:"INVOICE_PREFIX" default:"INV"`
	HomeShippingCost int64  `envconfig:"HOME_SHIPPING_COST" default:"1500"`
	CatalogPath      string `envconfig:"CATALOG_PATH" default:"catalog.json"`
	DownloadDir      string `envconfig:"DOWNLOAD_DIR" default:"files"`
	SellerName       string `envconfig:"SELLER_NAME" default:""`
	SellerAddress    string `envconfig:"SELLER_ADDRESS" default:""`
	SellerTaxID      string `envconfig:"SELLER_TAX_ID" default:""`
}

type Config struct {
	App      AppConfig
	Ledger   LedgerConfig
	Postgres PostgresConfig
	Sheets   SheetsConfig
	Stripe   StripeConfig
	SMTP     SMTPConfig
	Shop     ShopConfig
}

// Load reads an optional .env file and populates the config from the
// environment.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: failed to load %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("config: failed to process environment: %w", err)
	}
	return cfg, nil
}
