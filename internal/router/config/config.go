package config

import "github.com/spf13/viper"

// Config holds the application configuration.
type Config struct {
	ServerAddress string `mapstructure:"SERVER_ADDRESS"`
	PostgresConn  string `mapstructure:"POSTGRES_CONN"`
	PostgresUser  string `mapstructure:"POSTGRES_USERNAME"`
	PostgresPass  string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresHost  string `mapstructure:"POSTGRES_HOST"`
	PostgresPort  string `mapstructure:"POSTGRES_PORT"`
	PostgresDB    string `mapstructure:"POSTGRES_DATABASE"`
	MigrationURL  string `mapstructure:"MIGRATION_URL"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	NatsURL       string `mapstructure:"NATS_URL"`
	// CartDebounceMs is the quiet period before a staged cart snapshot
	// is persisted. Zero uses the built-in default.
	CartDebounceMs int `mapstructure:"CART_DEBOUNCE_MS"`
	// BidSweepMinutes enables the bid expiry sweep when positive.
	BidSweepMinutes int `mapstructure:"BID_SWEEP_MINUTES"`
	// BidMaxAgeHours is the age after which a pending bid expires.
	BidMaxAgeHours int `mapstructure:"BID_MAX_AGE_HOURS"`
	// MarginCacheMinutes bounds staleness of the cached margin table.
	MarginCacheMinutes int `mapstructure:"MARGIN_CACHE_MINUTES"`
}

// LoadConfig loads the configuration from an env file.
func LoadConfig(path string) (cfg Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}
	err = viper.Unmarshal(&cfg)
	return
}
