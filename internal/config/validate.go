package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	switch c.Hub.Mode {
	case ModeDevelopment:
		if c.Hub.DevHost == "" {
			return errors.New("hub.dev_host is required in development mode")
		}
		if err := validatePort("hub.dev_port", c.Hub.DevPort); err != nil {
			return err
		}
	case ModeProduction:
		if c.Hub.Host == "" {
			return errors.New("hub.host is required in production mode")
		}
		if err := validatePort("hub.port", c.Hub.Port); err != nil {
			return err
		}
	default:
		return fmt.Errorf("hub.mode must be %q or %q, got %q", ModeDevelopment, ModeProduction, c.Hub.Mode)
	}

	if c.Auth.FetchTimeout < 0 {
		return errors.New("auth.fetch_timeout must be >= 0")
	}

	if c.Connection.ReconnectBaseDelay <= 0 {
		return errors.New("connection.reconnect_base_delay must be > 0")
	}
	if c.Connection.ReconnectMaxDelay < c.Connection.ReconnectBaseDelay {
		return fmt.Errorf("connection.reconnect_max_delay (%s) cannot be below reconnect_base_delay (%s)",
			c.Connection.ReconnectMaxDelay, c.Connection.ReconnectBaseDelay)
	}
	if c.Connection.HeartbeatInterval <= 0 {
		return errors.New("connection.heartbeat_interval must be > 0")
	}
	if c.Connection.HeartbeatMissesAllowed < 0 {
		return errors.New("connection.heartbeat_misses_allowed must be >= 0")
	}
	if c.Connection.HandshakeTimeout < 0 {
		return errors.New("connection.handshake_timeout must be >= 0")
	}
	if c.Connection.WriteTimeout < 0 {
		return errors.New("connection.write_timeout must be >= 0")
	}

	if c.MQTT.Broker != "" && strings.ContainsAny(c.MQTT.TopicPrefix, "#+") {
		return fmt.Errorf("mqtt.topic_prefix must not contain wildcards, got %q", c.MQTT.TopicPrefix)
	}

	if c.HTTP.DevRateLimit < 0 {
		return errors.New("http.dev_rate_limit must be >= 0")
	}
	for _, origin := range c.HTTP.AllowOrigins {
		if origin == "" || strings.ContainsAny(origin, " \t") {
			return fmt.Errorf("http.allow_origins entry %q is not a valid origin", origin)
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}

// validatePort accepts an empty port (scheme default) or 1..65535.
func validatePort(field, port string) error {
	if port == "" {
		return nil
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %q", field, port)
	}
	return nil
}
