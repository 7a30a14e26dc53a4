package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Хранилища настроек единиц
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Config содержит конфигурацию сервиса
type Config struct {
	Port            int
	MaxPrincipal    float64
	MaxContribution float64
	MaxMonths       int
	MaxYears        int
	MaxRate         float64
	MaxFrequency    int
	MaxBalanceCap   float64
	OTELEndpoint    string
	OTELServiceName string
	LogLevel        string
	LogFormat       string
	PrefStore       string
	RedisAddr       string
	RedisPrefix     string
	SQLitePath      string
}

var defaults = map[string]any{
	"PORT":              8000,
	"MAX_PRINCIPAL":     1e12,
	"MAX_CONTRIBUTION":  1e10,
	"MAX_MONTHS":        600,
	"MAX_YEARS":         100,
	"MAX_RATE":          200,
	"MAX_FREQUENCY":     365,
	"MAX_BALANCE_CAP":   1e15,
	"OTEL_ENDPOINT":     "",
	"OTEL_SERVICE_NAME": "moneycalc",
	"LOG_LEVEL":         "info",
	"LOG_FORMAT":        "json",
	"PREF_STORE":        StoreMemory,
	"REDIS_ADDR":        "localhost:6379",
	"REDIS_PREFIX":      "moneycalc:",
	"SQLITE_PATH":       "moneycalc.db",
}

// LoadConfig загружает конфигурацию из переменных окружения
func LoadConfig() (*Config, error) {
	// Загружаем .env файл, если он существует (игнорируем ошибку)
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	cfg := &Config{
		Port:            v.GetInt("PORT"),
		MaxPrincipal:    v.GetFloat64("MAX_PRINCIPAL"),
		MaxContribution: v.GetFloat64("MAX_CONTRIBUTION"),
		MaxMonths:       v.GetInt("MAX_MONTHS"),
		MaxYears:        v.GetInt("MAX_YEARS"),
		MaxRate:         v.GetFloat64("MAX_RATE"),
		MaxFrequency:    v.GetInt("MAX_FREQUENCY"),
		MaxBalanceCap:   v.GetFloat64("MAX_BALANCE_CAP"),
		OTELEndpoint:    v.GetString("OTEL_ENDPOINT"),
		OTELServiceName: v.GetString("OTEL_SERVICE_NAME"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       v.GetString("LOG_FORMAT"),
		PrefStore:       v.GetString("PREF_STORE"),
		RedisAddr:       v.GetString("REDIS_ADDR"),
		RedisPrefix:     v.GetString("REDIS_PREFIX"),
		SQLitePath:      v.GetString("SQLITE_PATH"),
	}

	switch cfg.PrefStore {
	case StoreMemory, StoreRedis, StoreSQLite:
	default:
		return nil, fmt.Errorf("PREF_STORE: ожидается %s, %s или %s, получено %q",
			StoreMemory, StoreRedis, StoreSQLite, cfg.PrefStore)
	}
	if cfg.MaxMonths < 1 {
		return nil, fmt.Errorf("MAX_MONTHS должно быть ≥ 1, получено %d", cfg.MaxMonths)
	}

	return cfg, nil
}

// BalanceCap возвращает максимальный баланс для защиты от переполнения
func (c *Config) BalanceCap() float64 {
	if c == nil || c.MaxBalanceCap <= 0 {
		return defaults["MAX_BALANCE_CAP"].(float64)
	}
	return c.MaxBalanceCap
}
