package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	BufferSize        int           `env:"BUFFER_SIZE,required=true" validate:"gt=0"`
	NumberOfWorkers   int           `env:"NUMBER_OF_WORKERS,required=true" validate:"gt=0"`
	SinkTimeout       time.Duration `env:"SINK_TIMEOUT,required=true" validate:"gt=0"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,required=true" validate:"gt=0"`
	TelemetryInterval time.Duration `env:"TELEMETRY_INTERVAL,default=10s" validate:"gt=0"`
	InvitationTimeout time.Duration `env:"INVITATION_TIMEOUT,default=30s" validate:"gt=0"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s" validate:"gt=0"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true" validate:"required"`
	SpeciesCatalog    string        `env:"SPECIES_CATALOG"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
	Host              string        `env:"HOST,default=localhost"`
	Port              int           `env:"PORT,default=8080" validate:"gt=0,lt=65536"`
	PageSize          int           `env:"PAGE_SIZE,default=20" validate:"gt=0"`
	InboxSize         int           `env:"INBOX_SIZE,default=50" validate:"gt=0"`
	LimitReceipts     *int          `env:"LIMIT_RECEIPTS" validate:"omitempty,gt=0"`
	EnableInspector   bool          `env:"ENABLE_INSPECTOR,default=false"`
	CorsOrigins       string        `env:"CORS_ORIGINS"`
}

// LoadConfig reads an optional .env file, then the environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := validator.New().Struct(config); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AllowOrigins splits the comma separated CORS_ORIGINS.
func (c Config) AllowOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CorsOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
