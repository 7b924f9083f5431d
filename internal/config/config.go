package config

import "time"

// Config is the root configuration for a stepfeed instance.
type Config struct {
	Hub        HubConfig        `yaml:"hub"`
	Auth       AuthConfig       `yaml:"auth"`
	Connection ConnectionConfig `yaml:"connection"`
	Entities   EntitiesConfig   `yaml:"entities"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	HTTP       HTTPConfig       `yaml:"http"`
	Log        LogConfig        `yaml:"log"`
	Diagnostic bool             `yaml:"diagnostic"`
}

// HubConfig locates the Home Assistant hub.
type HubConfig struct {
	Mode    string `yaml:"mode"` // development | production
	Host    string `yaml:"host"`
	Port    string `yaml:"port"`
	Secure  bool   `yaml:"secure"`
	DevHost string `yaml:"dev_host"`
	DevPort string `yaml:"dev_port"`
	Path    string `yaml:"path"`
}

// AuthConfig holds credential resolution settings.
type AuthConfig struct {
	RuntimeConfigURL string        `yaml:"runtime_config_url"` // app-config.json location; empty skips
	TokenEnv         string        `yaml:"token_env"`
	FetchTimeout     time.Duration `yaml:"fetch_timeout"`
}

// ConnectionConfig holds session timing.
type ConnectionConfig struct {
	ReconnectBaseDelay     time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay      time.Duration `yaml:"reconnect_max_delay"`
	HeartbeatInterval      time.Duration `yaml:"heartbeat_interval"`
	HeartbeatMissesAllowed int           `yaml:"heartbeat_misses_allowed"`
	HandshakeTimeout       time.Duration `yaml:"handshake_timeout"`
	WriteTimeout           time.Duration `yaml:"write_timeout"`
}

// EntitiesConfig overrides the monitored entity ids. Empty keeps the default.
type EntitiesConfig struct {
	Steps        string `yaml:"steps"`
	Distance     string `yaml:"distance"`
	Speed        string `yaml:"speed"`
	HeartRate    string `yaml:"heart_rate"`
	BRBEnabled   string `yaml:"brb_enabled"`
	HeartEnabled string `yaml:"heart_enabled"`
}

// MQTTConfig holds the readings republisher settings. Empty broker disables it.
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	Retain      bool   `yaml:"retain"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
}

// HTTPConfig holds the status server settings. Empty addr disables it.
type HTTPConfig struct {
	Addr         string   `yaml:"addr"`
	AllowOrigins []string `yaml:"allow_origins"`  // CORS origins; empty disables CORS
	DevRateLimit float64  `yaml:"dev_rate_limit"` // requests per second on /dev
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}
