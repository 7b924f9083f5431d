package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultMode                   = ModeProduction
	DefaultHubPath                = "/api/websocket"
	DefaultTokenEnv               = "HA_TOKEN"
	DefaultFetchTimeout           = 5 * time.Second
	DefaultReconnectBaseDelay     = 2 * time.Second
	DefaultReconnectMaxDelay      = 30 * time.Second
	DefaultHeartbeatInterval      = 30 * time.Second
	DefaultHeartbeatMissesAllowed = 2
	DefaultHandshakeTimeout       = 10 * time.Second
	DefaultWriteTimeout           = 5 * time.Second
	DefaultMQTTClientID           = "stepfeed"
	DefaultMQTTTopicPrefix        = "stepfeed"
	DefaultDevRateLimit           = 10.0
	DefaultLogLevel               = "info"
	DefaultLogFormat              = "text"
)

// Hub modes.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

func (c *Config) applyDefaults() {
	// Hub defaults
	if c.Hub.Mode == "" {
		c.Hub.Mode = DefaultMode
	}
	if c.Hub.Path == "" {
		c.Hub.Path = DefaultHubPath
	}

	// Auth defaults
	if c.Auth.TokenEnv == "" {
		c.Auth.TokenEnv = DefaultTokenEnv
	}
	if c.Auth.FetchTimeout == 0 {
		c.Auth.FetchTimeout = DefaultFetchTimeout
	}

	// Connection defaults
	if c.Connection.ReconnectBaseDelay == 0 {
		c.Connection.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Connection.ReconnectMaxDelay == 0 {
		c.Connection.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Connection.HeartbeatInterval == 0 {
		c.Connection.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.Connection.HeartbeatMissesAllowed == 0 {
		c.Connection.HeartbeatMissesAllowed = DefaultHeartbeatMissesAllowed
	}
	if c.Connection.HandshakeTimeout == 0 {
		c.Connection.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Connection.WriteTimeout == 0 {
		c.Connection.WriteTimeout = DefaultWriteTimeout
	}

	// MQTT defaults
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = DefaultMQTTClientID
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = DefaultMQTTTopicPrefix
	}

	// HTTP defaults
	if c.HTTP.DevRateLimit == 0 {
		c.HTTP.DevRateLimit = DefaultDevRateLimit
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}
