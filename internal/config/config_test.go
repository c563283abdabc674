package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCrawlerConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *CrawlerConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
cooldown: "30s"
database:
  host: localhost
  port: 5432
  user: testuser
  password: testpass
  dbname: testdb
  sslmode: require
gateway:
  url: "https://alpha4.starknet.io/feeder_gateway"
  timeout: "10s"
`,
			expectError: false,
			validate: func(t *testing.T, cfg *CrawlerConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, 30*time.Second, cfg.Cooldown)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "testuser", cfg.Database.User)
				assert.Equal(t, "require", cfg.Database.SSLMode)
				assert.Equal(t, "https://alpha4.starknet.io/feeder_gateway", cfg.Gateway.URL)
				assert.Equal(t, 10*time.Second, cfg.Gateway.Timeout)
			},
		},
		{
			name: "config with defaults",
			configFile: `
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: testdb
gateway:
  url: "https://alpha4.starknet.io/feeder_gateway"
`,
			expectError: false,
			validate: func(t *testing.T, cfg *CrawlerConfig) {
				// Check defaults
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "disable", cfg.Database.SSLMode)
				assert.Equal(t, 15*time.Second, cfg.Cooldown)
				assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout)
			},
		},
		{
			name: "invalid yaml",
			configFile: `
				database:
				  host: localhost
			`,
			expectError: true,
			validate:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			configFile := filepath.Join(tmpDir, "config.yaml")
			err := os.WriteFile(configFile, []byte(tt.configFile), 0600)
			require.NoError(t, err)

			cfg, err := LoadCrawlerConfig(configFile, "")

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)
				tt.validate(t, cfg)
			}
		})
	}
}

func TestLoadInterpreterConfig(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(configFile, []byte(`
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: testdb
gateway:
  url: "https://alpha4.starknet.io/feeder_gateway"
contracts:
  ledger: "0x100"
  ledger_facade: "0x200"
  exchange_facade: "0x300"
  composer_facade: "0x400"
  login_facade_admin: "0x500"
`), 0600)
	require.NoError(t, err)

	cfg, err := LoadInterpreterConfig(configFile, "")
	require.NoError(t, err)
	assert.Equal(t, "0x100", cfg.Contracts.Ledger)
	assert.Equal(t, "0x200", cfg.Contracts.LedgerFacade)
	assert.Equal(t, "0x300", cfg.Contracts.ExchangeFacade)
	assert.Equal(t, "0x400", cfg.Contracts.ComposerFacade)
	assert.Equal(t, "0x500", cfg.Contracts.LoginFacadeAdmin)
	assert.Equal(t, 15*time.Second, cfg.Cooldown)
}

func TestLoadMonitorConfig(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(configFile, []byte(`
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: testdb
contracts:
  ledger: "0x100"
ethereum:
  rpc_url: "http://localhost:8545"
  core_address: "0xde29d060D45901Fb19ED6C6e959EB22d8626708e"
  bridge_address: "0xeeee"
`), 0600)
	require.NoError(t, err)

	cfg, err := LoadMonitorConfig(configFile, "")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8545", cfg.Ethereum.RPCURL)
	assert.Equal(t, "0xde29d060D45901Fb19ED6C6e959EB22d8626708e", cfg.Ethereum.CoreAddress)
	assert.Equal(t, "0xeeee", cfg.Ethereum.BridgeAddress)
	assert.Equal(t, 15*time.Second, cfg.Ethereum.PollInterval)
}

func TestLoadAPIConfig(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(configFile, []byte(`
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: testdb
server:
  port: 9090
`), 0600)
	require.NoError(t, err)

	cfg, err := LoadAPIConfig(configFile, "")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Server.ReadTimeout)
	assert.Equal(t, 120, cfg.Server.IdleTimeout)
}

func TestDatabaseConfigDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "starkmirror",
		Password: "secret",
		DBName:   "starkmirror",
		SSLMode:  "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=starkmirror password=secret dbname=starkmirror sslmode=disable",
		cfg.DSN())
}

func TestConfigWithEnvironmentVariables(t *testing.T) {
	t.Setenv("STARKMIRROR_DATABASE_HOST", "envhost")
	t.Setenv("STARKMIRROR_GATEWAY_URL", "https://envgateway.example.com")

	configFile := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(configFile, []byte(`
database:
  user: testuser
  password: testpass
  dbname: testdb
`), 0600)
	require.NoError(t, err)

	cfg, err := LoadCrawlerConfig(configFile, "")
	require.NoError(t, err)
	assert.Equal(t, "envhost", cfg.Database.Host)
	assert.Equal(t, "https://envgateway.example.com", cfg.Gateway.URL)
}
