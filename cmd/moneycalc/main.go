package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cloud-ru/moneycalc-go/internal/config"
	"github.com/cloud-ru/moneycalc-go/internal/logging"
	"github.com/cloud-ru/moneycalc-go/internal/prefs"
	"github.com/cloud-ru/moneycalc-go/internal/tracing"
)

var (
	cfg    *config.Config
	logger = zap.NewNop()

	rootCmd = &cobra.Command{
		Use:               "moneycalc",
		Short:             "Финансовые калькуляторы: проценты, кредиты, накопления, валюта",
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "уровень логов (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "формат логов (console, json)")
	rootCmd.PersistentFlags().String("store", "", "хранилище настроек (memory, redis, sqlite)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(calcCmd())
	rootCmd.AddCommand(restoreCmd())
	rootCmd.AddCommand(compareCmd())
	rootCmd.AddCommand(prefsCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	cancel()
	_ = logger.Sync()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Флаги важнее переменных окружения
	flags := cmd.Flags()
	if v, _ := flags.GetString("log-level"); v != "" {
		loaded.LogLevel = v
	}
	if v, _ := flags.GetString("log-format"); v != "" {
		loaded.LogFormat = v
	}
	if v, _ := flags.GetString("store"); v != "" {
		loaded.PrefStore = v
	}

	l, err := logging.New(loaded.LogLevel, loaded.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	cfg, logger = loaded, l
	return nil
}

// openStore открывает хранилище настроек, выбранное в конфигурации
func openStore(ctx context.Context) (prefs.Store, func() error, error) {
	switch cfg.PrefStore {
	case config.StoreRedis:
		store := prefs.NewRedisStore(cfg.RedisAddr, cfg.RedisPrefix)
		return store, store.Close, nil
	case config.StoreSQLite:
		store, err := prefs.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.StoreMemory:
		return prefs.NewMemoryStore(), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown preference store: %s", cfg.PrefStore)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Печатает версию",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), tracing.Version)
		},
	}
}
