package controlplane

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	StoreTimeout      time.Duration `envconfig:"STORE_TIMEOUT" default:"5s"`
	RecentOrdersLimit int           `envconfig:"RECENT_ORDERS_LIMIT" default:"20"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
