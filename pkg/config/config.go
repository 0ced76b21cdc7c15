package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable the backend reads.
	EnvPrefix = "DILUTION"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "DILUTION_DB_DSN"
	EnvDBHost = "DILUTION_DB_HOST"
	EnvDBUser = "DILUTION_DB_USER"
	EnvDBName = "DILUTION_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Password  PasswordConfig
	Robot     RobotConfig
	RateLimit RateLimitConfig
	Features  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DILUTION_APP_ENV" required:"true"`
	Port         string `envconfig:"DILUTION_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"DILUTION_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DILUTION_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DILUTION_DB_DSN"`
	Driver string `envconfig:"DILUTION_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DILUTION_DB_HOST"`
	LegacyPort     int    `envconfig:"DILUTION_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DILUTION_DB_USER"`
	LegacyPassword string `envconfig:"DILUTION_DB_PASSWORD"`
	LegacyName     string `envconfig:"DILUTION_DB_NAME"`
	LegacySSLMode  string `envconfig:"DILUTION_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DILUTION_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DILUTION_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DILUTION_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DILUTION_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DILUTION_REDIS_URL"`
	Address      string        `envconfig:"DILUTION_REDIS_ADDR"`
	Password     string        `envconfig:"DILUTION_REDIS_PASSWORD"`
	DB           int           `envconfig:"DILUTION_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DILUTION_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DILUTION_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DILUTION_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DILUTION_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DILUTION_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"DILUTION_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DILUTION_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"DILUTION_JWT_EXPIRATION_MINUTES" default:"480"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"DILUTION_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"DILUTION_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"DILUTION_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"DILUTION_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"DILUTION_ARGON_KEY_LEN" default:"32"`
}

// RobotConfig locates the external dispensing gateway.
type RobotConfig struct {
	BaseURL string        `envconfig:"DILUTION_ROBOT_API_URL" required:"true"`
	Timeout time.Duration `envconfig:"DILUTION_ROBOT_TIMEOUT" default:"15s"`
}

// RateLimitConfig throttles the auth endpoints. A zero window or zero limits
// disable the corresponding policy.
type RateLimitConfig struct {
	LoginWindow       time.Duration `envconfig:"DILUTION_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit      int           `envconfig:"DILUTION_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	LoginUserLimit    int           `envconfig:"DILUTION_RATE_LIMIT_LOGIN_USER_LIMIT" default:"5"`
	RegisterWindow    time.Duration `envconfig:"DILUTION_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterIPLimit   int           `envconfig:"DILUTION_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	RegisterUserLimit int           `envconfig:"DILUTION_RATE_LIMIT_REGISTER_USER_LIMIT" default:"3"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DILUTION_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
