package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the application.
// It includes the environment type, database configuration,
// token for authentication, and the timeout duration for polling.
type Config struct {
	Env           string         // Env is the current environment: local, dev, prod.
	Database      PostgresConfig // Database holds the postgres database configuration
	Token         string         // Token is an unique telegram bot token
	PollerTimeout time.Duration  // PollerTimeout its a time which need to close telegram bot poller
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

// MustLoad loads the configuration from a YAML file and returns a Config struct.
// Secrets may be kept in a .env file; environment variables override file values.
func MustLoad() *Config {
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		panic("config path is empty")
	}

	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	viper.SetConfigFile(configPath)
	if err := viper.ReadInConfig(); err != nil {
		panic("config error: " + err.Error())
	}

	defPollerTimeout := 10

	viper.SetDefault("postgres.port", "5432")
	viper.SetDefault("telegram.timeout", time.Duration(defPollerTimeout*int(time.Second)))

	if token, exists := os.LookupEnv("TIMEKEEPER_TELEGRAM_TOKEN"); exists {
		viper.Set("telegram.token", token)
	}
	if password, exists := os.LookupEnv("DB_PASSWORD"); exists {
		viper.Set("postgres.password", password)
	}

	return &Config{
		Env:           viper.GetString("env"),
		Token:         viper.GetString("telegram.token"),
		PollerTimeout: viper.GetDuration("telegram.timeout"),
		Database: PostgresConfig{
			Host:     viper.GetString("postgres.host"),
			Port:     viper.GetString("postgres.port"),
			User:     viper.GetString("postgres.user"),
			Password: viper.GetString("postgres.password"),
			Name:     viper.GetString("postgres.db_name"),
		},
	}
}
