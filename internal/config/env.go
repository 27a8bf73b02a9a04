package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"skitro/internal/utils"
)

type Env struct {
	AppAddr string `envconfig:"APP_ADDR" default:":8080"`
	GinMode string `envconfig:"GIN_MODE"`

	DBUser     string `envconfig:"DB_USER" default:"root"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBHost     string `envconfig:"DB_HOST" default:"127.0.0.1:3306"`
	DBName     string `envconfig:"DB_NAME" default:"skitro"`

	// Booking creation holds a connection across the provider call, so this
	// bounds concurrent payment initialisations too.
	DBMaxOpenConns int `envconfig:"DB_MAX_OPEN_CONNS" default:"50"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	PaystackSecretKey  string        `envconfig:"PAYSTACK_SECRET_KEY"`
	PaystackBaseURL    string        `envconfig:"PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	PaymentCallbackURL string        `envconfig:"PAYMENT_CALLBACK_URL" default:"http://localhost:8080/api/bookings/verify"`
	PaymentTimeout     time.Duration `envconfig:"PAYMENT_TIMEOUT" default:"10s"`
	Currency           string        `envconfig:"CURRENCY" default:"NGN"`

	RabbitURL       string `envconfig:"RABBIT_URL"`
	BookingExchange string `envconfig:"BOOKING_EXCHANGE" default:"booking.exchange"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	NewRelicLicenseKey string `envconfig:"NEW_RELIC_LICENSE_KEY"`
	NewRelicAppName    string `envconfig:"NEW_RELIC_APP_NAME" default:"skitro-api"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

// LoadEnv reads an optional .env file and then the process environment.
// It exits when the environment is invalid, e.g. JWT_SECRET is missing.
func LoadEnv() Env {
	if err := godotenv.Load(); err != nil {
		utils.Log.Info("no .env file, using process environment")
	}

	env, err := ParseEnv()
	if err != nil {
		utils.Log.WithError(err).Fatal("invalid environment")
	}
	return env
}

// ParseEnv decodes Env from the process environment.
func ParseEnv() (Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return Env{}, err
	}
	env.AppAddr = strings.TrimSpace(env.AppAddr)
	env.GinMode = strings.TrimSpace(env.GinMode)
	if strings.TrimSpace(env.JWTSecret) == "" {
		return Env{}, errors.New("JWT_SECRET must not be blank")
	}
	if env.DBMaxOpenConns <= 0 {
		return Env{}, errors.New("DB_MAX_OPEN_CONNS must be positive")
	}
	return env, nil
}
