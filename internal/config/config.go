package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Partner  PartnerConfig
	Rewards  RewardsConfig
	Admin    AdminConfig
}

type ServerConfig struct {
	Port         string
	Environment  string
	AllowOrigins string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// PartnerConfig describes the affiliate network clicks are forwarded to.
// The notify call is best-effort: NotifyTimeout bounds it and a failure
// never blocks click recording.
type PartnerConfig struct {
	Network       string
	NotifyURL     string
	NotifyTimeout time.Duration
}

type RewardsConfig struct {
	// ReferralReward is the fixed amount credited to a referrer when a
	// referred user's claim is approved for the first time.
	ReferralReward float64
}

type AdminConfig struct {
	APIKey string
}

func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	notifyTimeout, err := time.ParseDuration(getEnv("PARTNER_NOTIFY_TIMEOUT", "3s"))
	if err != nil {
		notifyTimeout = 3 * time.Second
	}
	referralReward, _ := strconv.ParseFloat(getEnv("REFERRAL_REWARD", "1.0"), 64)

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			AllowOrigins: getEnv("ALLOW_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "cashloop"),
			Password: getEnv("DB_PASSWORD", "cashloop"),
			Name:     getEnv("DB_NAME", "cashloop"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Partner: PartnerConfig{
			Network:       getEnv("PARTNER_NETWORK", "default"),
			NotifyURL:     getEnv("PARTNER_NOTIFY_URL", ""),
			NotifyTimeout: notifyTimeout,
		},
		Rewards: RewardsConfig{
			ReferralReward: referralReward,
		},
		Admin: AdminConfig{
			APIKey: getEnv("ADMIN_API_KEY", ""),
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Resync worker defaults
const (
	ResyncInterval  = 1 * time.Hour
	ResyncBatchSize = 200
)
