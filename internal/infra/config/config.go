// internal/infra/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StockBackendPostgres  = "postgres"
	StockBackendFirestore = "firestore"
)

// Config holds the environment-resolved settings of the cart service.
type Config struct {
	Port string

	ProjectID                string
	FirestoreProjectID       string
	FirestoreCredentialsFile string
	FirebaseProjectID        string
	GCPCreds                 string

	// Stock lookup
	StockBackend      string
	DatabaseURL       string
	DatabaseURLSecret string

	// Firestore collections
	CartsCollection    string
	ProductsCollection string

	// Cart summary (minor units / fraction)
	ShippingFee int
	VATRate     float64

	CORSAllowedOrigins []string

	LogLevel  string
	LogFormat string

	// AuthDisabled trusts X-Avatar-Id instead of a Firebase ID token (local dev only).
	AuthDisabled bool

	// ConfigFile is the YAML file that was read, if any.
	ConfigFile string
}

// Load reads .env files, the environment and an optional YAML file named by CART_CONFIG.
func Load() (*Config, error) {
	return LoadFile(strings.TrimSpace(os.Getenv("CART_CONFIG")))
}

// LoadFile is Load with an explicit YAML config file (empty = none).
// Precedence: environment > .env files > config file > defaults.
func LoadFile(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	project := firstNonEmpty(v.GetString("gcp_project_id"), os.Getenv("GOOGLE_CLOUD_PROJECT"))

	cfg := &Config{
		Port: v.GetString("port"),

		ProjectID:                project,
		FirestoreProjectID:       firstNonEmpty(v.GetString("firestore_project_id"), project),
		FirestoreCredentialsFile: strings.TrimSpace(v.GetString("firestore_credentials_file")),
		FirebaseProjectID:        firstNonEmpty(v.GetString("firebase_project_id"), project),
		GCPCreds:                 strings.TrimSpace(v.GetString("google_application_credentials")),

		StockBackend:      strings.ToLower(strings.TrimSpace(v.GetString("stock_backend"))),
		DatabaseURL:       strings.TrimSpace(v.GetString("database_url")),
		DatabaseURLSecret: strings.TrimSpace(v.GetString("database_url_secret")),

		CartsCollection:    strings.TrimSpace(v.GetString("carts_collection")),
		ProductsCollection: strings.TrimSpace(v.GetString("products_collection")),

		ShippingFee: v.GetInt("shipping_fee"),
		VATRate:     v.GetFloat64("vat_rate"),

		CORSAllowedOrigins: splitList(v.GetString("cors_allowed_origins")),

		LogLevel:  strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
		LogFormat: strings.ToLower(strings.TrimSpace(v.GetString("log_format"))),

		AuthDisabled: v.GetBool("auth_disabled"),

		ConfigFile: v.ConfigFileUsed(),
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("stock_backend", StockBackendFirestore)
	v.SetDefault("carts_collection", "carts")
	v.SetDefault("products_collection", "products")
	v.SetDefault("shipping_fee", 0)
	v.SetDefault("vat_rate", 0.0)
	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("auth_disabled", false)

}

// Validate rejects settings that would make the service misbehave rather than fail.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil")
	}
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("config: PORT is empty")
	}
	if strings.TrimSpace(c.FirestoreProjectID) == "" {
		return fmt.Errorf("config: project id is empty (set FIRESTORE_PROJECT_ID or GCP_PROJECT_ID)")
	}

	switch c.StockBackend {
	case StockBackendFirestore:
	case StockBackendPostgres:
		if c.DatabaseURL == "" && c.DatabaseURLSecret == "" {
			return fmt.Errorf("config: STOCK_BACKEND=postgres requires DATABASE_URL or DATABASE_URL_SECRET")
		}
	default:
		return fmt.Errorf("config: unknown STOCK_BACKEND %q (want %s or %s)", c.StockBackend, StockBackendPostgres, StockBackendFirestore)
	}

	if c.CartsCollection == "" || c.ProductsCollection == "" {
		return fmt.Errorf("config: collection names must not be empty")
	}
	if c.ShippingFee < 0 {
		return fmt.Errorf("config: SHIPPING_FEE must be >= 0 (got %d)", c.ShippingFee)
	}
	if c.VATRate < 0 || c.VATRate > 1 {
		return fmt.Errorf("config: VAT_RATE must be within [0,1] (got %v)", c.VATRate)
	}
	return nil
}

// CredentialsFile returns the credentials file for GCP clients ("" = ADC).
func (c *Config) CredentialsFile() string {
	if c == nil {
		return ""
	}
	return firstNonEmpty(c.FirestoreCredentialsFile, c.GCPCreds)
}

// loadEnvFiles loads .env then .env.local; existing variables are never overridden.
func loadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
