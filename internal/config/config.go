package config // package config loads application configuration from environment variables

import (
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/joho/godotenv"
    "github.com/spf13/viper"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; an optional .env file in the working directory
// is read first and never overrides variables already set.
type Config struct {
    Env         string        // application environment (e.g. "dev", "prod")
    Port        string        // HTTP port to listen on
    DBUser      string        // database username
    DBPass      string        // database password (optional)
    DBHost      string        // database host address
    DBPort      string        // database port number
    DBName      string        // database name
    JWTSecret   string        // secret used to sign JWTs
    TokenTTL    time.Duration // access token lifetime, JWT_EXPIRES_IN
    BcryptCost  int           // bcrypt cost for password hashing
    LogPath     string        // directory for rotated log files
    LogDebug    bool          // console encoder and debug level
    RabbitMQURL string        // AMQP URL for auth events; empty disables publishing

    Redis     RedisConfig
    RateLimit RateLimitConfig
    Cache     CacheConfig
}

// Load reads configuration values and validates them.
func Load() (Config, error) {
    _ = godotenv.Load()

    v := viper.New()
    v.AutomaticEnv()
    setDefaults(v)
    return fromViper(v)
}

func setDefaults(v *viper.Viper) {
    v.SetDefault("APP_ENV", "dev")
    v.SetDefault("APP_PORT", "8080")
    v.SetDefault("DB_HOST", "localhost")
    v.SetDefault("DB_PORT", "3306")
    v.SetDefault("JWT_EXPIRES_IN", "24h")
    v.SetDefault("BCRYPT_COST", 12)
    v.SetDefault("LOG_PATH", "logs/")
    v.SetDefault("LOG_DEBUG", false)

    setRedisDefaults(v)
    setRateLimitDefaults(v)
    setCacheDefaults(v)
}

func fromViper(v *viper.Viper) (Config, error) {
    ttl, err := time.ParseDuration(strings.TrimSpace(v.GetString("JWT_EXPIRES_IN")))
    if err != nil {
        return Config{}, fmt.Errorf("invalid JWT_EXPIRES_IN %q: %w", v.GetString("JWT_EXPIRES_IN"), err)
    }
    cfg := Config{
        Env:         v.GetString("APP_ENV"),
        Port:        v.GetString("APP_PORT"),
        DBUser:      v.GetString("DB_USER"),
        DBPass:      v.GetString("DB_PASS"),
        DBHost:      v.GetString("DB_HOST"),
        DBPort:      v.GetString("DB_PORT"),
        DBName:      v.GetString("DB_NAME"),
        JWTSecret:   v.GetString("JWT_SECRET"),
        TokenTTL:    ttl,
        BcryptCost:  v.GetInt("BCRYPT_COST"),
        LogPath:     v.GetString("LOG_PATH"),
        LogDebug:    v.GetBool("LOG_DEBUG"),
        RabbitMQURL: firstNonEmpty(v.GetString("RABBITMQ_URL"), v.GetString("AMQP_URL")),
        Redis:       loadRedis(v),
        RateLimit:   loadRateLimit(v),
        Cache:       loadCache(v),
    }
    return cfg, cfg.Validate()
}

// Validate reports missing required settings.
func (c Config) Validate() error {
    var errs []error
    if strings.TrimSpace(c.JWTSecret) == "" {
        errs = append(errs, errors.New("missing required env var: JWT_SECRET"))
    }
    if c.DBUser == "" {
        errs = append(errs, errors.New("missing required env var: DB_USER"))
    }
    if c.DBName == "" {
        errs = append(errs, errors.New("missing required env var: DB_NAME"))
    }
    if c.TokenTTL <= 0 {
        errs = append(errs, fmt.Errorf("JWT_EXPIRES_IN must be positive, got %s", c.TokenTTL))
    }
    return errors.Join(errs...)
}

func firstNonEmpty(vals ...string) string {
    for _, s := range vals {
        if s != "" {
            return s
        }
    }
    return ""
}
