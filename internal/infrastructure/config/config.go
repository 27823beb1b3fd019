package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the charge box core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Repository RepositoryConfig `yaml:"repository"`
	Dispatcher DispatcherConfig `yaml:"dispatcher"`
	Registry   RegistryConfig   `yaml:"registry"`
	Database   DatabaseConfig   `yaml:"database"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	API        APIConfig        `yaml:"api"`
	WebSocket  WebSocketConfig  `yaml:"websocket"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig identifies this central server instance.
type ServerConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// GatewayConfig contains outbound command settings.
type GatewayConfig struct {
	// RequestTimeout is the default time (seconds) a charge box has to answer a command.
	RequestTimeout int `yaml:"request_timeout"`
}

// RepositoryConfig contains device entity repository settings.
type RepositoryConfig struct {
	// LockTimeout is the bounded wait (milliseconds) for the repository lock.
	LockTimeout int `yaml:"lock_timeout"`
}

// DispatcherConfig contains inbound message handling settings.
type DispatcherConfig struct {
	// HeartbeatInterval (seconds) is returned to charge boxes in boot responses.
	HeartbeatInterval int `yaml:"heartbeat_interval"`

	// VendorID is the vendor whose DataTransfer requests are accepted.
	VendorID string `yaml:"vendor_id"`

	// RegistrationStatus is returned in boot responses (Accepted, Pending, Rejected).
	RegistrationStatus string `yaml:"registration_status"`
}

// RegistryConfig contains connection registry settings.
type RegistryConfig struct {
	// ForgetOnDisconnect drops a charge box's record when its connection closes.
	// When false, records persist until replaced by fresh traffic.
	ForgetOnDisconnect bool `yaml:"forget_on_disconnect"`
}

// DatabaseConfig contains SQLite settings for the message journal.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`

	// RetentionDays is how long journal entries are kept. Zero keeps them forever.
	RetentionDays int `yaml:"retention_days"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains OCPP-J WebSocket endpoint settings.
type WebSocketConfig struct {
	Path           string   `yaml:"path"`
	Subprotocols   []string `yaml:"subprotocols"`
	MaxMessageSize int      `yaml:"max_message_size"`
	PingInterval   int      `yaml:"ping_interval"`
	PongTimeout    int      `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: CHARGEBOX_SECTION_KEY
// For example: CHARGEBOX_API_PORT, CHARGEBOX_GATEWAY_REQUEST_TIMEOUT
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ID:   "csms-001",
			Name: "Charge Box Core",
		},
		Gateway: GatewayConfig{
			RequestTimeout: 30,
		},
		Repository: RepositoryConfig{
			LockTimeout: 5000,
		},
		Dispatcher: DispatcherConfig{
			HeartbeatInterval:  300,
			VendorID:           "GraphDefined",
			RegistrationStatus: "Accepted",
		},
		Database: DatabaseConfig{
			Path:          "./data/chargebox.db",
			WALMode:       true,
			BusyTimeout:   5,
			RetentionDays: 30,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "chargebox-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 60,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ocpp",
			Subprotocols:   []string{"ocpp2.0.1"},
			MaxMessageSize: 64 * 1024,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CHARGEBOX_SERVER_ID"); v != "" {
		cfg.Server.ID = v
	}

	if v, ok := envInt("CHARGEBOX_GATEWAY_REQUEST_TIMEOUT"); ok {
		cfg.Gateway.RequestTimeout = v
	}
	if v, ok := envInt("CHARGEBOX_REPOSITORY_LOCK_TIMEOUT"); ok {
		cfg.Repository.LockTimeout = v
	}
	if v := os.Getenv("CHARGEBOX_DISPATCHER_VENDOR_ID"); v != "" {
		cfg.Dispatcher.VendorID = v
	}

	if v := os.Getenv("CHARGEBOX_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("CHARGEBOX_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("CHARGEBOX_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("CHARGEBOX_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("CHARGEBOX_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v, ok := envInt("CHARGEBOX_API_PORT"); ok {
		cfg.API.Port = v
	}

	if v := os.Getenv("CHARGEBOX_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	if v := os.Getenv("CHARGEBOX_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// envInt reads an integer environment variable. Unparseable values are ignored.
func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Server.ID == "" {
		errs = append(errs, "server.id is required")
	}

	if c.Gateway.RequestTimeout <= 0 {
		errs = append(errs, "gateway.request_timeout must be positive")
	}
	if c.Repository.LockTimeout <= 0 {
		errs = append(errs, "repository.lock_timeout must be positive")
	}
	if c.Dispatcher.HeartbeatInterval <= 0 {
		errs = append(errs, "dispatcher.heartbeat_interval must be positive")
	}
	switch c.Dispatcher.RegistrationStatus {
	case "Accepted", "Pending", "Rejected":
	default:
		errs = append(errs, "dispatcher.registration_status must be Accepted, Pending or Rejected")
	}

	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when the journal is enabled")
	}
	if c.Database.RetentionDays < 0 {
		errs = append(errs, "database.retention_days must not be negative")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if !strings.HasPrefix(c.WebSocket.Path, "/") {
		errs = append(errs, "websocket.path must start with /")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetRequestTimeout returns the default outbound request timeout as a Duration.
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.Gateway.RequestTimeout) * time.Second
}

// GetLockTimeout returns the repository lock wait as a Duration.
func (c *Config) GetLockTimeout() time.Duration {
	return time.Duration(c.Repository.LockTimeout) * time.Millisecond
}

// GetHeartbeatInterval returns the boot response heartbeat interval as a Duration.
func (c *Config) GetHeartbeatInterval() time.Duration {
	return time.Duration(c.Dispatcher.HeartbeatInterval) * time.Second
}

// GetJournalRetention returns how long journal entries are kept, or zero
// when they never expire.
func (c *Config) GetJournalRetention() time.Duration {
	return time.Duration(c.Database.RetentionDays) * 24 * time.Hour
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
