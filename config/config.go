package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB    int    `mapstructure:"REDIS_CACHE_DB"`
	RedisPresenceDB int    `mapstructure:"REDIS_PRESENCE_DB"`
	RedisQueueDB    int    `mapstructure:"REDIS_QUEUE_DB"`

	// Platform money rules. Rates are percentages.
	CommissionRate   float64 `mapstructure:"COMMISSION_RATE"`
	TDSRate          float64 `mapstructure:"TDS_RATE"`
	DefaultCashLimit int64   `mapstructure:"DEFAULT_CASH_LIMIT"`

	// Dispatch tuning.
	DispatchRadiusKm float64 `mapstructure:"DISPATCH_RADIUS_KM"`
	DispatchWaveSize int     `mapstructure:"DISPATCH_WAVE_SIZE"`
	WaveExpiryMin    int     `mapstructure:"WAVE_EXPIRY_MIN"`

	// Failed verification-code presentations allowed per booking before the
	// attempt counter locks further tries out. Zero disables the cap.
	MaxCodeAttempts int `mapstructure:"MAX_CODE_ATTEMPTS"`

	// Development-only verification bypass. Must never be enabled in production;
	// LoadConfig refuses the combination.
	OTPBypassEnabled bool   `mapstructure:"OTP_BYPASS_ENABLED"`
	OTPBypassCode    string `mapstructure:"OTP_BYPASS_CODE"`

	// External collaborators.
	Currency                      string `mapstructure:"CURRENCY"`
	StripeKey                     string `mapstructure:"STRIPE_KEY"`
	FirebaseServiceAccountKeyPath string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_PRESENCE_DB", 1)
	viper.SetDefault("REDIS_QUEUE_DB", 2)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "fixserv")
	viper.SetDefault("COMMISSION_RATE", 10.0)
	viper.SetDefault("TDS_RATE", 2.0)
	viper.SetDefault("DEFAULT_CASH_LIMIT", 1000000)
	viper.SetDefault("DISPATCH_RADIUS_KM", 10.0)
	viper.SetDefault("DISPATCH_WAVE_SIZE", 3)
	viper.SetDefault("WAVE_EXPIRY_MIN", 60)
	viper.SetDefault("MAX_CODE_ATTEMPTS", 5)
	viper.SetDefault("OTP_BYPASS_ENABLED", false)
	viper.SetDefault("OTP_BYPASS_CODE", "")
	viper.SetDefault("CURRENCY", "inr")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if IsProduction() && AppConfig.OTPBypassEnabled {
		log.Fatal("OTP_BYPASS_ENABLED must be off when ENV=production")
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
