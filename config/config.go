package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Host    HostConfig    `mapstructure:"host"`
	Timer   TimerConfig   `mapstructure:"timer"`
	Content ContentConfig `mapstructure:"content"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
}

// HostConfig carries the connection-time role token. Whoever connects with
// this token resolves to the host role; everyone else is a display.
type HostConfig struct {
	RoleToken string `mapstructure:"role_token"`
}

type TimerConfig struct {
	MaxExtendSeconds int `mapstructure:"max_extend_seconds"`
}

type ContentConfig struct {
	Path string `mapstructure:"path"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.http_address", ":8080")
	viper.SetDefault("server.metrics_address", ":9090")
	viper.SetDefault("server.rpc_address", ":8081")
	viper.SetDefault("timer.max_extend_seconds", 60)
	viper.SetDefault("content.path", "content.yaml")

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
