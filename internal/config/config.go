package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode    string `mapstructure:"mode"`
	Port    int    `mapstructure:"port"`
	Secret  string `mapstructure:"secret"`
	DataDir string `mapstructure:"data_dir"`

	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	SendBuffer int           `mapstructure:"send_buffer"`

	RateLimitWindow     time.Duration `mapstructure:"rate_limit_window"`
	HistoryLimit        int           `mapstructure:"history_limit"`
	HistoryRequestLimit int           `mapstructure:"history_request_limit"`
	MaxMessageLen       int           `mapstructure:"max_message_len"`
	StoreTimeout        time.Duration `mapstructure:"store_timeout"`

	// PersistGuestMessages lets guests write to the chat log. Off by
	// default: guests then read the room but cannot post.
	PersistGuestMessages bool `mapstructure:"persist_guest_messages"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("data_dir", "./data")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("rate_limit_window", "1s")
	v.SetDefault("history_limit", 50)
	v.SetDefault("history_request_limit", 100)
	v.SetDefault("max_message_len", 2000)
	v.SetDefault("store_timeout", "3s")
	v.SetDefault("persist_guest_messages", false)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Data: %s\n", cfg.Mode, cfg.Port, cfg.DataDir)
	return &cfg, nil
}
