package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageDriverFile     = "file"
	StorageDriverRedis    = "redis"
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	App struct {
		Port string `mapstructure:"port"`
		Env  string `mapstructure:"env"`
	} `mapstructure:"app"`
	Storage struct {
		Driver   string `mapstructure:"driver"`
		Key      string `mapstructure:"key"`
		FilePath string `mapstructure:"file_path"`
	} `mapstructure:"storage"`
	DB struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"db"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		GroupID string   `mapstructure:"group_id"`
	} `mapstructure:"kafka"`
	Auth struct {
		JWTSecret         string        `mapstructure:"jwt_secret"`
		TokenLifespan     time.Duration `mapstructure:"token_lifespan"`
		OwnerPasswordHash string        `mapstructure:"owner_password_hash"`
	} `mapstructure:"auth"`
	Cloudinary struct {
		CloudName string `mapstructure:"cloud_name"`
		ApiKey    string `mapstructure:"api_key"`
		ApiSecret string `mapstructure:"api_secret"`
	} `mapstructure:"cloudinary"`
	Jaeger struct {
		OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	} `mapstructure:"jaeger"`
	Images struct {
		MaxDimension    int `mapstructure:"max_dimension"`
		MaxEncodedBytes int `mapstructure:"max_encoded_bytes"`
	} `mapstructure:"images"`
	Editor struct {
		MaxOpenDrafts int           `mapstructure:"max_open_drafts"`
		SaveTimeout   time.Duration `mapstructure:"save_timeout"`
	} `mapstructure:"editor"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("storage.driver", StorageDriverFile)
	v.SetDefault("storage.key", "portfolioData")
	v.SetDefault("storage.file_path", "data")
	v.SetDefault("kafka.group_id", "portfolio-backup-group")
	v.SetDefault("auth.token_lifespan", 24*time.Hour)
	v.SetDefault("images.max_dimension", 1920)
	v.SetDefault("images.max_encoded_bytes", 1<<20)
	v.SetDefault("editor.max_open_drafts", 16)
	v.SetDefault("editor.save_timeout", 30*time.Second)
}

// LoadConfig reads .env, an optional config.yaml from the given paths (or "."), and the environment.
func LoadConfig(paths ...string) (cfg Config, err error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	if err = godotenv.Load(envFiles(paths)...); err != nil {
		log.Println("warning: .env file not found, use default.")
	}

	v := viper.New()
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	setDefaults(v)
	if err = v.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read .env only. Error: %v", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("app.port", "APP_PORT")
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("storage.driver", "STORAGE_DRIVER")
	v.BindEnv("storage.key", "STORAGE_KEY")
	v.BindEnv("storage.file_path", "STORAGE_FILE_PATH")
	v.BindEnv("db.dsn", "DB_DSN")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.group_id", "KAFKA_GROUP_ID")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.token_lifespan", "TOKEN_LIFESPAN")
	v.BindEnv("auth.owner_password_hash", "OWNER_PASSWORD_HASH")

	v.BindEnv("cloudinary.cloud_name", "CLOUDINARY_CLOUD_NAME")
	v.BindEnv("cloudinary.api_key", "CLOUDINARY_API_KEY")
	v.BindEnv("cloudinary.api_secret", "CLOUDINARY_API_SECRET")

	v.BindEnv("jaeger.otlp_endpoint", "JAEGER_OTLP_ENDPOINT")
	v.BindEnv("images.max_dimension", "IMAGES_MAX_DIMENSION")
	v.BindEnv("images.max_encoded_bytes", "IMAGES_MAX_ENCODED_BYTES")
	v.BindEnv("editor.max_open_drafts", "EDITOR_MAX_OPEN_DRAFTS")
	v.BindEnv("editor.save_timeout", "EDITOR_SAVE_TIMEOUT")

	if err = v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Kafka.Brokers = splitBrokers(cfg.Kafka.Brokers)
	return cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case StorageDriverFile:
		if c.Storage.FilePath == "" {
			errs = append(errs, errors.New("storage.file_path is required for the file driver"))
		}
	case StorageDriverRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is required for the redis driver"))
		}
	case StorageDriverPostgres:
		if c.DB.DSN == "" {
			errs = append(errs, errors.New("db.dsn is required for the postgres driver"))
		}
	case StorageDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	if c.Storage.Key == "" {
		errs = append(errs, errors.New("storage.key must not be empty"))
	}
	if c.Auth.JWTSecret == "" && c.App.Env == "production" {
		errs = append(errs, errors.New("auth.jwt_secret is required in production"))
	}
	if c.Images.MaxDimension <= 0 {
		errs = append(errs, errors.New("images.max_dimension must be positive"))
	}
	if c.Images.MaxEncodedBytes <= 0 {
		errs = append(errs, errors.New("images.max_encoded_bytes must be positive"))
	}
	return errors.Join(errs...)
}

func envFiles(paths []string) []string {
	files := make([]string, 0, len(paths))
	for _, p := range paths {
		files = append(files, strings.TrimSuffix(p, "/")+"/.env")
	}
	return files
}

// KAFKA_BROKERS arrives as one comma separated string when read from the environment.
func splitBrokers(in []string) []string {
	out := make([]string, 0, len(in))
	for _, b := range in {
		for _, part := range strings.Split(b, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
