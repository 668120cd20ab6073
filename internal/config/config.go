package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ProjectID string
	LogLevel  string
	Port      string

	// Generation pass tuning.
	HorizonMonths     int
	GenerationWorkers int

	// Scheduler cadence. Specs are standard 5-field cron expressions.
	StartupDelay time.Duration
	DailySpec    string
	WeeklySpec   string
}

func New() *Config {
	return &Config{
		ProjectID:         os.Getenv("PROJECTID"),
		LogLevel:          os.Getenv("LOGLEVEL"),
		Port:              getEnv("PORT", "8080"),
		HorizonMonths:     getEnvInt("HORIZONMONTHS", 3),
		GenerationWorkers: getEnvInt("GENERATIONWORKERS", 4),
		StartupDelay:      getEnvDuration("STARTUPDELAY", 10*time.Second),
		DailySpec:         getEnv("DAILYSPEC", "0 0 * * *"),
		WeeklySpec:        getEnv("WEEKLYSPEC", "0 0 * * 0"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
