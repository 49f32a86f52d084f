package config

import (
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	// HTTP port the dashboard API listens on
	Port string `env:"PORT" envDefault:"5250"`

	// Database configuration
	Database struct {
		// Path to the sqlite file holding the apt_details snapshots
		Path string `env:"DATABASE_PATH" envDefault:"database/apartments.db"`

		// Upper bound on a single query attempt
		QueryTimeout time.Duration `env:"QUERY_TIMEOUT" envDefault:"10s"`

		// Pause before the single retry of a transient failure
		RetryDelay time.Duration `env:"QUERY_RETRY_DELAY" envDefault:"500ms"`
	}

	// Newline-delimited list of cities offered by the city filter
	CitiesFile string `env:"CITIES_FILE" envDefault:"cities.txt"`

	// Price value marking a listing without a published price
	PriceOnRequest string `env:"PRICE_ON_REQUEST" envDefault:"Zapytaj o cenę"`

	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
