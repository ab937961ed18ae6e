package config

import (
	"fmt"
	"time"
)

const defaultRequestTimeout = 20 * time.Second

type InspectConfig struct {
	HttpPort       int    `mapstructure:"http_port"`
	RequestTimeout string `mapstructure:"request_timeout"`
}

// Timeout returns the per-request deadline of the inspection API, 20s when request_timeout is empty.
func (c *InspectConfig) Timeout() (time.Duration, error) {
	if "" == c.RequestTimeout {
		return defaultRequestTimeout, nil
	}

	timeout, parseError := time.ParseDuration(c.RequestTimeout)
	if nil != parseError {
		return 0, fmt.Errorf("invalid request_timeout %q: %w", c.RequestTimeout, parseError)
	}
	if 0 >= timeout {
		return 0, fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}

	return timeout, nil
}
