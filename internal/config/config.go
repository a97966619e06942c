package config

import (
	"bytes"
	_ "embed"
	"time"

	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// ---- Root ----

type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Log       LogConfig       `mapstructure:"log"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Retention RetentionConfig `mapstructure:"retention"`
}

// ---- Leaf structs ----

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type AuthConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type RateLimitConfig struct {
	RPS int `mapstructure:"rps"`
}

type GatewayConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	SendPath string        `mapstructure:"send_path"`
	APIKey   string        `mapstructure:"api_key"`
	Sender   string        `mapstructure:"sender"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type AdminConfig struct {
	Number string `mapstructure:"number"`
}

type DispatchConfig struct {
	PaceMin time.Duration `mapstructure:"pace_min"`
	PaceMax time.Duration `mapstructure:"pace_max"`
}

type ScheduleConfig struct {
	Timezone string        `mapstructure:"timezone"`
	Grace    time.Duration `mapstructure:"grace"`
}

type StorageConfig struct {
	SchedulesDSN string `mapstructure:"schedules_dsn"`
	LogsDSN      string `mapstructure:"logs_dsn"`
}

type RetentionConfig struct {
	Days int `mapstructure:"days"`
}

// Load reads embedded defaults, merges user YAML (if provided), and applies env overrides (WABLAST_*).
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		_ = v.MergeInConfig()
	}

	// env override (WABLAST_*)
	v.SetEnvPrefix("WABLAST")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
