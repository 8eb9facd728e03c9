package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port        string `mapstructure:"port"`
		MetricsPort string `mapstructure:"metrics_port"`
		LogLevel    string `mapstructure:"log_level"`
		JWTSecret   string `mapstructure:"jwt_secret"`
	} `mapstructure:"server"`
	Database struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`
	Storage struct {
		Provider string `mapstructure:"provider"` // "local", "cloudinary", "bunny"

		LocalRoot string `mapstructure:"local_root"`

		CloudinaryCloudName    string `mapstructure:"cloudinary_cloud_name"`
		CloudinaryAPIKey       string `mapstructure:"cloudinary_api_key"`
		CloudinaryAPISecret    string `mapstructure:"cloudinary_api_secret"`
		CloudinaryUploadPreset string `mapstructure:"cloudinary_upload_preset"`

		BunnyLibraryID string `mapstructure:"bunny_library_id"`
		BunnyAPIKey    string `mapstructure:"bunny_api_key"`
		BunnyCDNHost   string `mapstructure:"bunny_cdn_host"`

		// S3-compatible bucket for thumbnails and static assets
		// (Bunny storage zones and B2 both speak this dialect).
		BucketEndpoint string `mapstructure:"bucket_endpoint"`
		BucketRegion   string `mapstructure:"bucket_region"`
		BucketKeyID    string `mapstructure:"bucket_key_id"`
		BucketAppKey   string `mapstructure:"bucket_app_key"`
		BucketAssets   string `mapstructure:"bucket_assets"`

		UploadRetries int `mapstructure:"upload_retries"`
	} `mapstructure:"storage"`
	Feed struct {
		DefaultLimit   int `mapstructure:"default_limit"`
		MaxLimit       int `mapstructure:"max_limit"`
		CacheTTLMins   int `mapstructure:"cache_ttl_minutes"`
		FetchAheadGap  int `mapstructure:"fetch_ahead_gap"`
		PreloadPartial int `mapstructure:"preload_partial"`
	} `mapstructure:"feed"`
	Cleanup struct {
		PollingInterval int `mapstructure:"polling_interval_seconds"`
		MaxAttempts     int `mapstructure:"max_attempts"`
	} `mapstructure:"cleanup"`
}

func Load() *Config {
	viper.SetEnvPrefix("BUBBLEGUM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Register keys
	viper.BindEnv("server.port")
	viper.BindEnv("server.metrics_port")
	viper.BindEnv("server.log_level")
	viper.BindEnv("server.jwt_secret")

	viper.BindEnv("database.host")
	viper.BindEnv("database.port")
	viper.BindEnv("database.user")
	viper.BindEnv("database.password")
	viper.BindEnv("database.name")

	viper.BindEnv("storage.provider")
	viper.BindEnv("storage.local_root")
	viper.BindEnv("storage.cloudinary_cloud_name")
	viper.BindEnv("storage.cloudinary_api_key")
	viper.BindEnv("storage.cloudinary_api_secret")
	viper.BindEnv("storage.cloudinary_upload_preset")
	viper.BindEnv("storage.bunny_library_id")
	viper.BindEnv("storage.bunny_api_key")
	viper.BindEnv("storage.bunny_cdn_host")
	viper.BindEnv("storage.bucket_endpoint")
	viper.BindEnv("storage.bucket_region")
	viper.BindEnv("storage.bucket_key_id")
	viper.BindEnv("storage.bucket_app_key")
	viper.BindEnv("storage.bucket_assets")
	viper.BindEnv("storage.upload_retries")

	viper.BindEnv("feed.default_limit")
	viper.BindEnv("feed.max_limit")
	viper.BindEnv("feed.cache_ttl_minutes")
	viper.BindEnv("feed.fetch_ahead_gap")
	viper.BindEnv("feed.preload_partial")

	viper.BindEnv("cleanup.polling_interval_seconds")
	viper.BindEnv("cleanup.max_attempts")

	// Defaults
	viper.SetDefault("server.port", ":8081")
	viper.SetDefault("server.metrics_port", ":9091")
	viper.SetDefault("server.log_level", "info")

	viper.SetDefault("storage.provider", "local")
	viper.SetDefault("storage.local_root", "./data")
	viper.SetDefault("storage.upload_retries", 4)

	viper.SetDefault("feed.default_limit", 10)
	viper.SetDefault("feed.max_limit", 50)
	viper.SetDefault("feed.cache_ttl_minutes", 60)
	viper.SetDefault("feed.fetch_ahead_gap", 3)
	viper.SetDefault("feed.preload_partial", 1)

	viper.SetDefault("cleanup.polling_interval_seconds", 30)
	viper.SetDefault("cleanup.max_attempts", 6)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Warning: Config error: %s", err)
		} else {
			log.Println("Info: config.yaml not found, using Environment Variables only.")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}

	if cfg.Server.JWTSecret == "" {
		log.Fatal("Critical: JWT secret is missing (BUBBLEGUM_SERVER_JWT_SECRET)")
	}

	return &cfg
}
