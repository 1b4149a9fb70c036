package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config структура конфига
type Config struct {
	Postgres struct {
		DSN string `yaml:"dsn" env:"DATABASE_DSN"`
	} `yaml:"postgres"`

	Minio struct {
		Endpoint       string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
		AccessKey      string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
		SecretKey      string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
		SnapshotBucket string `yaml:"snapshot_bucket" env:"SNAPSHOT_BUCKET"`
	} `yaml:"minio"`

	Kafka struct {
		Brokers        []string `yaml:"brokers" env:"KAFKA_BROKERS" envSeparator:","`
		GroupID        string   `yaml:"group_id" env:"KAFKA_GROUP_ID"`
		StreamTopic    string   `yaml:"stream_topic" env:"STREAM_TOPIC"`
		HeartbeatTopic string   `yaml:"heartbeat_topic" env:"HEARTBEAT_TOPIC"`
	} `yaml:"kafka"`

	Detection struct {
		Endpoint            string  `yaml:"endpoint" env:"DETECTION_ENDPOINT"`
		ConfidenceThreshold float64 `yaml:"confidence_threshold" env:"CONFIDENCE_THRESHOLD"`
	} `yaml:"detection"`

	Notify struct {
		Endpoint   string `yaml:"endpoint" env:"SMS_GATEWAY_ENDPOINT"`
		AccountSID string `yaml:"account_sid" env:"SMS_ACCOUNT_SID"`
		AuthToken  string `yaml:"auth_token" env:"SMS_AUTH_TOKEN"`
		From       string `yaml:"from" env:"SMS_FROM_NUMBER"`
		Recipient  string `yaml:"recipient" env:"ALERT_RECIPIENT_NUMBER"`
	} `yaml:"notify"`

	Monitor struct {
		LogIntervalSeconds    int      `yaml:"log_interval_seconds" env:"LOG_INTERVAL_SECONDS"`
		SnapshotThreshold     int      `yaml:"snapshot_threshold" env:"SNAPSHOT_CONSECUTIVE_VIOLATIONS"`
		AlertCooldownSeconds  int      `yaml:"alert_cooldown_seconds" env:"ALERT_COOLDOWN_SECONDS"`
		WornPPEClasses        []string `yaml:"worn_ppe_classes" env:"WORN_PPE_CLASSES" envSeparator:","`
		SaveViolationSnapshot bool     `yaml:"save_violation_snapshot" env:"SAVE_VIOLATION_SNAPSHOT"`
	} `yaml:"monitor"`

	Severity []SeverityRule `yaml:"severity"`

	API struct {
		Addr string `yaml:"addr" env:"API_ADDR"`
	} `yaml:"api"`
}

// SeverityRule повышает severity для категорий по подстроке типа нарушения
type SeverityRule struct {
	Contains string `yaml:"contains"`
	Level    int    `yaml:"level"`
}

func (c *Config) LogInterval() time.Duration {
	return time.Duration(c.Monitor.LogIntervalSeconds) * time.Second
}

func (c *Config) AlertCooldown() time.Duration {
	return time.Duration(c.Monitor.AlertCooldownSeconds) * time.Second
}

func LoadConfig(filename string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	if filename == "" {
		filename = "local.yaml"
	}
	path := "internal/config/" + filename

	// Читаем YAML
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Парсим YAML в структуру
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Парсим переменные окружения с приоритетом
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults значения по умолчанию для настроек монитора
func (c *Config) applyDefaults() {
	c.Minio.SnapshotBucket = "snapshots"
	c.Detection.ConfidenceThreshold = 0.5
	c.Monitor.LogIntervalSeconds = 5
	c.Monitor.SnapshotThreshold = 5
	c.Monitor.AlertCooldownSeconds = 60
	c.Monitor.WornPPEClasses = []string{"helmet", "vest", "gloves"}
	c.Monitor.SaveViolationSnapshot = true
	c.Severity = []SeverityRule{{Contains: "helmet", Level: 4}}
	c.API.Addr = ":8002"
}
