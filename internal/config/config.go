package config

import (
	"sync/atomic"
)

var configValue atomic.Value

func GetConfig() *Config {
	cfg, ok := configValue.Load().(*Config)
	if !ok {
		return NewDefaultConfig()
	}
	return cfg
}

func SetConfig(cfg *Config) {
	configValue.Store(cfg)
}

type Config struct {
	Version     string          `mapstructure:"version"`
	Environment string          `mapstructure:"environment" validate:"oneof=development staging production"`
	Server      ServerConfig    `mapstructure:"server"`
	Location    LocationConfig  `mapstructure:"location"`
	Weather     ProviderConfig  `mapstructure:"weather"`
	Air         ProviderConfig  `mapstructure:"air"`
	Geo         ProviderConfig  `mapstructure:"geo"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Speech      SpeechConfig    `mapstructure:"speech"`
	Vision      VisionConfig    `mapstructure:"vision"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port" validate:"min=1,max=65535"`
	Host         string `mapstructure:"host"`
	ReadTimeout  int    `mapstructure:"read_timeout" validate:"min=0"`
	WriteTimeout int    `mapstructure:"write_timeout" validate:"min=0"`
	IdleTimeout  int    `mapstructure:"idle_timeout" validate:"min=0"`
}

// LocationConfig pins the robot to fixed coordinates. When Latitude and
// Longitude are both zero the location is looked up by IP.
type LocationConfig struct {
	Latitude  float64 `mapstructure:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `mapstructure:"longitude" validate:"min=-180,max=180"`
	Timezone  string  `mapstructure:"timezone"`
}

func (l LocationConfig) IsSet() bool {
	return l.Latitude != 0 || l.Longitude != 0
}

// ProviderConfig describes one upstream HTTP API.
type ProviderConfig struct {
	Type    string            `mapstructure:"type"`
	BaseURL string            `mapstructure:"base_url" validate:"required,url"`
	APIKey  string            `mapstructure:"api_key"`
	Timeout int               `mapstructure:"timeout" validate:"min=0"`
	Params  map[string]string `mapstructure:"params"`
}

type CacheConfig struct {
	Backend         string      `mapstructure:"backend" validate:"oneof=memory redis"`
	TTL             int         `mapstructure:"ttl" validate:"min=0"`
	RefreshInterval int         `mapstructure:"refresh_interval" validate:"min=0"`
	Redis           RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type SpeechConfig struct {
	// Output is "text" (print the sentence) or "google" (Cloud Text-to-Speech).
	Output          string `mapstructure:"output" validate:"oneof=text google"`
	Voice           string `mapstructure:"voice"`
	CredentialsFile string `mapstructure:"credentials_file"`
	AudioDir        string `mapstructure:"audio_dir"`
	PlayerCommand   string `mapstructure:"player_command"`
	Farewell        string `mapstructure:"farewell"`
}

type VisionConfig struct {
	// Classifier is "http" (remote model server) or "static".
	Classifier    string `mapstructure:"classifier" validate:"oneof=http static"`
	ClassifierURL string `mapstructure:"classifier_url"`
	ImagePath     string `mapstructure:"image_path"`
	Timeout       int    `mapstructure:"timeout" validate:"min=0"`
	StaticTop     string `mapstructure:"static_top"`
	StaticBottom  string `mapstructure:"static_bottom"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=json console"`
	OutputPath string `mapstructure:"output_path"`
}

type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Version:     "1.0.0",
		Environment: "development",
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  60,
		},
		Location: LocationConfig{
			Timezone: "Local",
		},
		Weather: ProviderConfig{
			Type:    "openweather",
			BaseURL: "https://api.openweathermap.org/data/2.5",
			Timeout: 10,
			Params: map[string]string{
				"units":   "metric",
				"exclude": "minutely,daily,alerts",
			},
		},
		Air: ProviderConfig{
			Type:    "airvisual",
			BaseURL: "https://api.airvisual.com/v2",
			Timeout: 10,
		},
		Geo: ProviderConfig{
			Type:    "ip-api",
			BaseURL: "http://ip-api.com/json",
			Timeout: 5,
		},
		Cache: CacheConfig{
			Backend:         "memory",
			TTL:             600,
			RefreshInterval: 0,
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "jbot:conditions:",
			},
		},
		Speech: SpeechConfig{
			Output:        "text",
			Voice:         "en-US-Wavenet-F",
			AudioDir:      ".",
			PlayerCommand: "aplay",
			Farewell:      "Okay see you later...",
		},
		Vision: VisionConfig{
			Classifier:   "static",
			ImagePath:    "temp.jpg",
			Timeout:      10,
			StaticTop:    "shirt",
			StaticBottom: "long pants",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "",
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			Endpoint:    "tempo:4317",
			ServiceName: "jbot-advisor",
		},
	}
}
