package internal

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/sethj34/obs-dashboard/internal/blob"
	"github.com/sethj34/obs-dashboard/internal/catalog"
	"github.com/sethj34/obs-dashboard/internal/youtube"
)

type ServerConfig struct {
	Listen         string   `mapstructure:"listen"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

type Config struct {
	Server  ServerConfig   `mapstructure:"server"`
	Storage blob.Config    `mapstructure:"storage"`
	Catalog catalog.Config `mapstructure:"catalog"`
	YouTube youtube.Config `mapstructure:"youtube"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile("files/config.yaml")

	viper.SetDefault("server.listen", ":3001")
	viper.SetDefault("storage.backend", string(blob.BackendLocal))
	viper.SetDefault("storage.localPath", "files/videos")
	viper.SetDefault("catalog.backend", string(catalog.BackendFile))
	viper.SetDefault("catalog.path", "files/db.json")
	viper.SetDefault("youtube.command", "python3")
	viper.SetDefault("youtube.script", "files/handle-upload.py")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}
