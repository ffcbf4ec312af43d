package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	StationNumber int    `yaml:"station_number"`
	PassportDir   string `yaml:"passport_dir"`

	Mongo     MongoConfig     `yaml:"mongo"`
	Recorder  RecorderConfig  `yaml:"recorder"`
	Publisher PublisherConfig `yaml:"publisher"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Web       WebConfig       `yaml:"web"`
	HID       HIDConfig       `yaml:"hid"`
}

// MongoConfig defines the document store connection.
type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// RecorderConfig defines the video recorder service connection.
type RecorderConfig struct {
	Enabled bool          `yaml:"enabled"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// PublisherConfig defines the content-addressed storage gateway.
type PublisherConfig struct {
	GatewayURL string        `yaml:"gateway_url"`
	LinkPrefix string        `yaml:"link_prefix"`
	Timeout    time.Duration `yaml:"timeout"`
}

// LedgerConfig defines the datalog gateway and the local anchor outbox.
type LedgerConfig struct {
	Enabled       bool          `yaml:"enabled"`
	GatewayURL    string        `yaml:"gateway_url"`
	OutboxPath    string        `yaml:"outbox_path"`
	DrainInterval time.Duration `yaml:"drain_interval"`
	MaxRetries    int           `yaml:"max_retries"`
}

// TelemetryConfig defines the optional site-broker event export.
type TelemetryConfig struct {
	Enabled        bool        `yaml:"enabled"`
	Backend        string      `yaml:"backend"` // "mqtt" or "kafka"
	MQTT           MQTTConfig  `yaml:"mqtt"`
	Kafka          KafkaConfig `yaml:"kafka"`
	EventsTopic    string      `yaml:"events_topic"`
	HeartbeatTopic string      `yaml:"heartbeat_topic"`
}

// MQTTConfig defines MQTT broker settings.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
}

// KafkaConfig defines Kafka broker settings.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
}

// WebConfig defines the HTTP server settings.
type WebConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// HIDConfig names the known input devices so scanner events can be routed.
type HIDConfig struct {
	RFIDReader    string `yaml:"rfid_reader"`
	BarcodeReader string `yaml:"barcode_reader"`
}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	return &Config{
		StationNumber: 1,
		PassportDir:   "passports",
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "workbench",
		},
		Recorder: RecorderConfig{
			Enabled: false,
			BaseURL: "http://localhost:8085",
			Timeout: 10 * time.Second,
		},
		Publisher: PublisherConfig{
			GatewayURL: "http://localhost:5001",
			LinkPrefix: "https://gateway.ipfs.io/ipfs/",
			Timeout:    60 * time.Second,
		},
		Ledger: LedgerConfig{
			Enabled:       true,
			GatewayURL:    "http://localhost:8090",
			OutboxPath:    "anchor-outbox.db",
			DrainInterval: 5 * time.Second,
			MaxRetries:    10,
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
			Backend: "mqtt",
			MQTT: MQTTConfig{
				Broker: "localhost",
				Port:   1883,
			},
			EventsTopic:    "workbench/events",
			HeartbeatTopic: "workbench/heartbeat",
		},
		Web: WebConfig{
			Host: "0.0.0.0",
			Port: 5000,
		},
		HID: HIDConfig{
			RFIDReader:    "Sycreader RFID Technology Co., Ltd SYC ID&IC USB Reader",
			BarcodeReader: "Honeywell Scanning and Mobility Honeywell Scanner",
		},
	}
}

// Load reads a YAML config file. If the file doesn't exist, defaults are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
