package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Lockers  LockersConfig  `yaml:"lockers"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	ReservationsTopic  string   `yaml:"reservations_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type LockersConfig struct {
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
}

type WorkerConfig struct {
	SweepIntervalMinutes int    `yaml:"sweep_interval_minutes"`
	MetricsAddress       string `yaml:"metrics_address"`
}

// SweepInterval returns the expiry-sweep period, defaulting to five minutes
// when the config leaves it unset.
func (w WorkerConfig) SweepInterval() time.Duration {
	if w.SweepIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(w.SweepIntervalMinutes) * time.Minute
}

func (l LockersConfig) CacheTTL() time.Duration {
	return time.Duration(l.CacheTTLSeconds) * time.Second
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
