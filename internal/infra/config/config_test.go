package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every key Load reads; viper treats empty variables as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "GCP_PROJECT_ID", "GOOGLE_CLOUD_PROJECT", "FIRESTORE_PROJECT_ID", "FIRESTORE_CREDENTIALS_FILE",
		"FIREBASE_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS", "STOCK_BACKEND", "DATABASE_URL",
		"DATABASE_URL_SECRET", "CARTS_COLLECTION", "PRODUCTS_COLLECTION", "SHIPPING_FEE", "VAT_RATE",
		"CORS_ALLOWED_ORIGINS", "LOG_LEVEL", "LOG_FORMAT", "AUTH_DISABLED",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GCP_PROJECT_ID", "demo-project")

	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "demo-project", cfg.FirestoreProjectID)
	assert.Equal(t, "demo-project", cfg.FirebaseProjectID)
	assert.Equal(t, StockBackendFirestore, cfg.StockBackend)
	assert.Equal(t, "carts", cfg.CartsCollection)
	assert.Equal(t, "products", cfg.ProductsCollection)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.AuthDisabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GCP_PROJECT_ID", "demo-project")
	t.Setenv("FIRESTORE_PROJECT_ID", "fs-project")
	t.Setenv("STOCK_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/shop?sslmode=disable")
	t.Setenv("SHIPPING_FEE", "500")
	t.Setenv("VAT_RATE", "0.1")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("AUTH_DISABLED", "true")

	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, "fs-project", cfg.FirestoreProjectID)
	assert.Equal(t, "demo-project", cfg.FirebaseProjectID)
	assert.Equal(t, StockBackendPostgres, cfg.StockBackend)
	assert.Equal(t, 500, cfg.ShippingFee)
	assert.InDelta(t, 0.1, cfg.VATRate, 1e-9)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.AuthDisabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "cart.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gcp_project_id: from-file\nshipping_fee: 250\nport: \"9090\"\n"), 0o600))
	t.Setenv("PORT", "7070")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.FirestoreProjectID)
	assert.Equal(t, 250, cfg.ShippingFee)
	// environment wins over the file
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:               "8080",
			FirestoreProjectID: "p",
			StockBackend:       StockBackendFirestore,
			CartsCollection:    "carts",
			ProductsCollection: "products",
		}
	}

	cases := map[string]func(c *Config){
		"empty port":            func(c *Config) { c.Port = "" },
		"no project":            func(c *Config) { c.FirestoreProjectID = "" },
		"unknown backend":       func(c *Config) { c.StockBackend = "mysql" },
		"postgres without dsn":  func(c *Config) { c.StockBackend = StockBackendPostgres },
		"negative shipping fee": func(c *Config) { c.ShippingFee = -1 },
		"vat above one":         func(c *Config) { c.VATRate = 1.5 },
		"empty collection":      func(c *Config) { c.CartsCollection = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	c := valid()
	c.StockBackend = StockBackendPostgres
	c.DatabaseURLSecret = "cart-db-url"
	assert.NoError(t, c.Validate())
}

func TestCredentialsFile(t *testing.T) {
	assert.Equal(t, "fs.json", (&Config{FirestoreCredentialsFile: "fs.json", GCPCreds: "adc.json"}).CredentialsFile())
	assert.Equal(t, "adc.json", (&Config{GCPCreds: "adc.json"}).CredentialsFile())
	assert.Equal(t, "", (*Config)(nil).CredentialsFile())
}
