package config

import "github.com/kelseyhightower/envconfig"

// Config holds the runtime settings, read from LICENSE_API_* environment
// variables with defaults suitable for local use.
type Config struct {
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:":5000"`
	DBPath      string `envconfig:"DB_PATH" default:"data/licenses.db"`
	GeoEndpoint string `envconfig:"GEO_ENDPOINT" default:"http://ip-api.com"`

	SheetSyncEnabled    bool   `envconfig:"SHEET_SYNC_ENABLED" default:"false"`
	SheetCredentialPath string `envconfig:"SHEET_CREDENTIAL_PATH"`
	SpreadsheetID       string `envconfig:"SPREADSHEET_ID"`
	SheetName           string `envconfig:"SHEET_NAME" default:"licenses"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("license_api", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
