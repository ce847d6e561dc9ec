package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_API_URL targets a running backend. Empty starts one in process.
	APIURL string `envconfig:"E2E_API_URL"`
	// E2E_DEBUG_HTTP logs every request and response status
	DebugHTTP bool `envconfig:"E2E_DEBUG_HTTP" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
