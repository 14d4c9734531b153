package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
	StoreMemory    = "memory"

	AuthFirebase = "firebase"
	AuthClerk    = "clerk"
)

// Config is read once at startup and passed explicitly to whoever needs it.
type Config struct {
	Port    string
	BaseURL string

	StoreBackend string
	DatabaseURL  string

	FirebaseProjectID       string
	FirebaseCredentialsFile string
	FirebaseCredentialsB64  string

	AuthProvider       string
	ClerkSecretKey     string
	ClerkWebhookSecret string

	DefaultLocation *time.Location

	MetricsUser string
	MetricsPass string
	PprofSecret string

	LogFile string

	AutoEndInterval       time.Duration
	ExpirySweepInterval   time.Duration
	LiveRefreshInterval   time.Duration
	RateLimitPerSecond    float64
	RateLimitBurst        int
	NotificationWorkers   int
	NotificationQueueSize int
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := &Config{
		Port:                    getEnv("PORT", "3333"),
		BaseURL:                 strings.TrimRight(getEnv("BASE_URL", "http://localhost:3000"), "/"),
		StoreBackend:            getEnv("STORE_BACKEND", StoreFirestore),
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		FirebaseProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", "./serviceAccountKey.json"),
		FirebaseCredentialsB64:  os.Getenv("FCM_SERVICE_ACCOUNT_JSON"),
		AuthProvider:            getEnv("AUTH_PROVIDER", AuthFirebase),
		ClerkSecretKey:          os.Getenv("CLERK_SECRET_KEY"),
		ClerkWebhookSecret:      os.Getenv("CLERK_WEBHOOK_SECRET"),
		MetricsUser:             os.Getenv("METRICS_USER"),
		MetricsPass:             os.Getenv("METRICS_PASS"),
		PprofSecret:             os.Getenv("PPROF_SECRET"),
		LogFile:                 os.Getenv("LOG_FILE"),
	}

	var missing []string
	var err error

	tz := getEnv("DEFAULT_TIMEZONE", "UTC")
	if cfg.DefaultLocation, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_TIMEZONE %q: %w", tz, err)
	}

	if cfg.AutoEndInterval, err = getDuration("AUTO_END_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.ExpirySweepInterval, err = getDuration("EXPIRY_SWEEP_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.LiveRefreshInterval, err = getDuration("LIVE_REFRESH_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerSecond, err = getFloat("RATE_LIMIT_RPS", 5); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 30); err != nil {
		return nil, err
	}
	if cfg.NotificationWorkers, err = getInt("NOTIFICATION_WORKERS", 5); err != nil {
		return nil, err
	}
	if cfg.NotificationQueueSize, err = getInt("NOTIFICATION_QUEUE_SIZE", 100); err != nil {
		return nil, err
	}

	switch cfg.StoreBackend {
	case StoreFirestore:
		if cfg.FirebaseProjectID == "" {
			missing = append(missing, "FIREBASE_PROJECT_ID")
		}
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	switch cfg.AuthProvider {
	case AuthFirebase:
	case AuthClerk:
		if cfg.ClerkSecretKey == "" {
			missing = append(missing, "CLERK_SECRET_KEY")
		}
	default:
		return nil, fmt.Errorf("unknown AUTH_PROVIDER %q", cfg.AuthProvider)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: expected a positive duration", key, v)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: expected a positive integer", key, v)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s %q: expected a positive number", key, v)
	}
	return f, nil
}
