package config

import (
	"fmt"

	"github.com/janisvco/stepfeed/internal/connection"
	"github.com/janisvco/stepfeed/internal/protocol"
)

// Endpoint converts the hub section.
func (c *Config) Endpoint() connection.Endpoint {
	return connection.Endpoint{
		Development: c.Hub.Mode == ModeDevelopment,
		Secure:      c.Hub.Secure,
		Host:        c.Hub.Host,
		Port:        c.Hub.Port,
		DevHost:     c.Hub.DevHost,
		DevPort:     c.Hub.DevPort,
		Path:        c.Hub.Path,
	}
}

// ConnectionConfig converts the hub and connection sections. The subscription
// list is left to the codec.
func (c *Config) ConnectionConfig() connection.Config {
	cfg := connection.DefaultConfig()
	cfg.Endpoint = c.Endpoint()
	cfg.ReconnectBaseDelay = c.Connection.ReconnectBaseDelay
	cfg.ReconnectMaxDelay = c.Connection.ReconnectMaxDelay
	cfg.HeartbeatInterval = c.Connection.HeartbeatInterval
	cfg.HeartbeatMissesAllowed = c.Connection.HeartbeatMissesAllowed
	if c.Auth.FetchTimeout > 0 {
		cfg.TokenTimeout = c.Auth.FetchTimeout
	}
	return cfg
}

// ClientConfig converts the transport timeouts.
func (c *Config) ClientConfig(userAgent string) connection.ClientConfig {
	return connection.ClientConfig{
		HandshakeTimeout: c.Connection.HandshakeTimeout,
		WriteTimeout:     c.Connection.WriteTimeout,
		UserAgent:        userAgent,
	}
}

// Codec builds the wire codec with any entity id overrides applied.
func (c *Config) Codec() (*protocol.Codec, error) {
	overrides := map[string]string{
		protocol.FieldSteps:        c.Entities.Steps,
		protocol.FieldDistance:     c.Entities.Distance,
		protocol.FieldSpeed:        c.Entities.Speed,
		protocol.FieldHeartRate:    c.Entities.HeartRate,
		protocol.FieldBRBEnabled:   c.Entities.BRBEnabled,
		protocol.FieldHeartEnabled: c.Entities.HeartEnabled,
	}

	rules := make([]protocol.Rule, 0, len(protocol.DefaultEntities))
	for _, e := range protocol.DefaultEntities {
		id := e.EntityID
		if o := overrides[e.Field]; o != "" {
			id = o
		}
		rule, ok := protocol.RuleFor(e.Field, id)
		if !ok {
			return nil, fmt.Errorf("unknown field %q", e.Field)
		}
		rules = append(rules, rule)
	}

	codec, err := protocol.NewCodec(rules...)
	if err != nil {
		return nil, fmt.Errorf("entities: %w", err)
	}
	return codec, nil
}
