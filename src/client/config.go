package client

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	BaseURL        string        `envconfig:"CONTROL_API_URL" default:"http://localhost:9898"`
	UserID         string        `envconfig:"CONTROL_USER_ID"`
	IdentityHeader string        `envconfig:"IDENTITY_HEADER" default:"X-User-Id"`
	Timeout        time.Duration `envconfig:"CONTROL_API_TIMEOUT" default:"15s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
