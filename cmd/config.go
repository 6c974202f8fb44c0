package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"dispatch/internal/core/application/coordinator"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/jobs"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	HTTPPort   string
	StoreKind  string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	KafkaBrokers              []string
	KafkaConsumerGroup        string
	KafkaTaskCreatedTopic     string
	KafkaCourierNotifications string

	ResponseTimeout    time.Duration
	ExpirySpec         string
	RescanSpec         string
	GeofenceRadiusKm   float64
	GeolocationTimeout time.Duration
}

// DSN is the PostgreSQL connection string built from the DB settings.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

// LoadConfig reads configuration in order: .env (if present) → environment → flags.
func LoadConfig(args []string) (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg := Config{
		HTTPPort:   envString("HTTP_PORT", "8080"),
		StoreKind:  envString("STORE", StorePostgres),
		DBHost:     envString("DB_HOST", "localhost"),
		DBPort:     envString("DB_PORT", "5432"),
		DBUser:     envString("DB_USER", "postgres"),
		DBPassword: envString("DB_PASSWORD", "postgres"),
		DBName:     envString("DB_NAME", "dispatch"),
		DBSslMode:  envString("DB_SSLMODE", "disable"),

		KafkaBrokers:              splitList(envString("KAFKA_BROKERS", "")),
		KafkaConsumerGroup:        envString("KAFKA_CONSUMER_GROUP", "dispatch"),
		KafkaTaskCreatedTopic:     envString("KAFKA_TASK_CREATED_TOPIC", ""),
		KafkaCourierNotifications: envString("KAFKA_COURIER_NOTIFICATIONS_TOPIC", ""),

		ExpirySpec:       envString("EXPIRY_SPEC", jobs.DefaultExpirySpec),
		RescanSpec:       envString("RESCAN_SPEC", jobs.DefaultRescanSpec),
		GeofenceRadiusKm: kernel.DefaultGeofenceKm,
	}

	var err error
	if cfg.ResponseTimeout, err = envDuration("RESPONSE_TIMEOUT", coordinator.DefaultResponseTimeout); err != nil {
		return Config{}, err
	}
	if cfg.GeolocationTimeout, err = envDuration("GEOLOCATION_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("GEOFENCE_RADIUS_KM"); v != "" {
		if cfg.GeofenceRadiusKm, err = strconv.ParseFloat(v, 64); err != nil {
			return Config{}, fmt.Errorf("invalid GEOFENCE_RADIUS_KM: %w", err)
		}
	}

	flags := pflag.NewFlagSet("dispatch", pflag.ContinueOnError)
	flags.StringVarP(&cfg.HTTPPort, "port", "p", cfg.HTTPPort, "port to listen on")
	flags.StringVar(&cfg.StoreKind, "store", cfg.StoreKind, "task store: postgres or memory")
	flags.StringVar(&cfg.DBHost, "db-host", cfg.DBHost, "PostgreSQL host")
	flags.StringVar(&cfg.DBPort, "db-port", cfg.DBPort, "PostgreSQL port")
	flags.StringVar(&cfg.DBName, "db-name", cfg.DBName, "PostgreSQL database")
	flags.StringSliceVar(&cfg.KafkaBrokers, "kafka-brokers", cfg.KafkaBrokers, "Kafka brokers; empty disables Kafka")
	flags.DurationVar(&cfg.ResponseTimeout, "response-timeout", cfg.ResponseTimeout, "time a courier has to answer an offer")
	flags.StringVar(&cfg.ExpirySpec, "expiry-spec", cfg.ExpirySpec, "cron spec of the unanswered offer sweep")
	flags.StringVar(&cfg.RescanSpec, "rescan-spec", cfg.RescanSpec, "cron spec of the pending task re-scan")
	flags.Float64Var(&cfg.GeofenceRadiusKm, "geofence-km", cfg.GeofenceRadiusKm, "pickup and delivery geofence radius")
	flags.DurationVar(&cfg.GeolocationTimeout, "geolocation-timeout", cfg.GeolocationTimeout, "device position lookup timeout")
	if err = flags.Parse(args); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var problems []error
	if port, err := strconv.Atoi(c.HTTPPort); err != nil || port <= 0 || port > 65535 {
		problems = append(problems, fmt.Errorf("invalid port: %s", c.HTTPPort))
	}
	if c.StoreKind != StorePostgres && c.StoreKind != StoreMemory {
		problems = append(problems, fmt.Errorf("unknown store %q", c.StoreKind))
	}
	if c.ResponseTimeout <= 0 {
		problems = append(problems, errors.New("response timeout must be positive"))
	}
	if c.GeofenceRadiusKm <= 0 {
		problems = append(problems, errors.New("geofence radius must be positive"))
	}
	if c.GeolocationTimeout <= 0 {
		problems = append(problems, errors.New("geolocation timeout must be positive"))
	}
	return errors.Join(problems...)
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
