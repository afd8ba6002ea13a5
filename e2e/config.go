package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// TRADE_ADDR is the base URL of a running server, e.g. http://localhost:8080
	TradeAddr string `envconfig:"TRADE_ADDR"`
	// Two members seeded with ledgerctl, each with their first creature selected
	ActorA string `envconfig:"E2E_ACTOR_A" default:"alice"`
	ActorB string `envconfig:"E2E_ACTOR_B" default:"bob"`
	// E2E_DEBUG_JSON allows dumping full request/response bodies
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
