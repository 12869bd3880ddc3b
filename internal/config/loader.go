package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads the YAML file at path, lets APP_* environment variables
// override it (APP_POSTGRES_PASSWORD overrides postgres.password), applies
// defaults and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	setDefaults(v)

	var config Config
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that are
// missing from the file too.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "convention-catalog-service")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.shutdown_timeout", 10)
	v.SetDefault("app.cors_origins", []string{"*"})

	v.SetDefault("logger.level", "")
	v.SetDefault("logger.env", "")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.db", "")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 1)
	v.SetDefault("postgres.max_conn_lifetime", 3600)
	v.SetDefault("postgres.max_conn_idle_time", 300)
	v.SetDefault("postgres.health_check_period", 30)
	v.SetDefault("postgres.auto_migrate", false)

	v.SetDefault("paging.default_size", 20)
	v.SetDefault("paging.max_size", 100)

	v.SetDefault("storage.driver", DriverPostgres)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 300)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Validate checks struct tags and the rules that span sections. Logger
// settings are validated by logger.New after its own defaults are applied.
func (c *Config) Validate() error {
	val := validator.New()
	if err := val.Struct(c.App); err != nil {
		return fmt.Errorf("app config: %w", err)
	}
	if err := val.Struct(c.Postgres); err != nil {
		return fmt.Errorf("postgres config: %w", err)
	}
	if err := val.Struct(c.Paging); err != nil {
		return fmt.Errorf("paging config: %w", err)
	}
	if err := val.Struct(c.Storage); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}
	if err := val.Struct(c.Redis); err != nil {
		return fmt.Errorf("redis config: %w", err)
	}
	if err := val.Struct(c.Metrics); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}
	if c.Storage.Driver == DriverPostgres {
		var missing []string
		if c.Postgres.User == "" {
			missing = append(missing, "postgres.user")
		}
		if c.Postgres.Password == "" {
			missing = append(missing, "postgres.password")
		}
		if c.Postgres.DBName == "" {
			missing = append(missing, "postgres.db")
		}
		if len(missing) > 0 {
			return errors.New("postgres config: missing " + strings.Join(missing, ", "))
		}
	}
	return nil
}
