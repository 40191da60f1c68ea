package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type SchedulerConfig struct {
	// CronSpec controls how often the nudge sweep runs. Cadence is an
	// operational choice; eligibility is recomputed from absolute
	// timestamps each tick, so missed ticks are harmless.
	CronSpec        string        `mapstructure:"cron_spec"`
	SendTimeout     time.Duration `mapstructure:"send_timeout"`
	UseUserTimezone bool          `mapstructure:"use_user_timezone"`
}

type EmailConfig struct {
	From     string `mapstructure:"from"`
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type AppConfig struct {
	// BaseURL is used to build unsubscribe links embedded in nudge emails.
	BaseURL string `mapstructure:"base_url"`
}

type Config struct {
	DatabaseURL string          `mapstructure:"database_url"`
	ServerPort  string          `mapstructure:"server_port"`
	JWTSecret   string          `mapstructure:"jwt_secret"`
	App         AppConfig       `mapstructure:"app"`
	Email       EmailConfig     `mapstructure:"email"`
	Scheduler   SchedulerConfig `mapstructure:"scheduler"`
}

// Load reads the configuration from a YAML file and returns a Config instance.
func Load() *Config {
	v := viper.New()

	// Look for config in the current directory and ./config
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.AddConfigPath("./config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("Error unmarshalling config: %v", err)
	}

	// Fallback defaults
	if config.ServerPort == "" {
		config.ServerPort = "8080"
	}

	if config.JWTSecret == "" {
		log.Fatal("JWT secret must be set in the config file")
	}

	if config.Email.SMTPPort == 0 {
		config.Email.SMTPPort = 587
	}

	if config.App.BaseURL == "" {
		config.App.BaseURL = "http://localhost:8080"
	}

	if config.Scheduler.CronSpec == "" {
		config.Scheduler.CronSpec = "0 * * * *"
	}
	if config.Scheduler.SendTimeout == 0 {
		config.Scheduler.SendTimeout = 30 * time.Second
	}

	return &config
}
