package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vaultsync/vaultsync/internal/config"
	"github.com/vaultsync/vaultsync/internal/utils"
	"github.com/vaultsync/vaultsync/internal/version"
)

var (
	home, _         = os.UserHomeDir()
	defaultVaultDir = filepath.Join(home, "Vault")
	configFileName  = "config"
)

// logLevel is shared by both log handlers and raised to debug by --verbose.
var logLevel = new(slog.LevelVar)

var rootCmd = &cobra.Command{
	Use:           "vaultsync",
	Short:         "Mirror a local vault of text files into a remote document store",
	Version:       version.Detailed(),
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().SortFlags = false
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "vaultsync config file")
	rootCmd.PersistentFlags().StringP("server", "s", "", "document store URL")
	rootCmd.PersistentFlags().StringP("database", "b", "", "document store database")
	rootCmd.PersistentFlags().StringP("vault", "d", defaultVaultDir, "vault directory to mirror")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

func main() {
	logFile := config.DefaultLogFilePath
	if err := utils.EnsureParent(logFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create log directory: %v\n", err)
		os.Exit(1)
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	stdoutHandler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevel,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
	fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(utils.NewFanoutHandler(stdoutHandler, fileHandler)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, color.New(color.FgHiRed, color.Bold).Sprint("error:"), err)
		}
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) error {
	// optional .env next to the working directory
	_ = godotenv.Load()

	if cmd.Flags().Changed("config") {
		configFilePath, _ := cmd.Flags().GetString("config")
		viper.SetConfigFile(configFilePath)
	} else {
		viper.AddConfigPath(filepath.Join(home, ".vaultsync"))
		viper.AddConfigPath(filepath.Join(home, ".config", "vaultsync"))
		viper.SetConfigName(configFileName)
		viper.SetConfigType("json")
	}

	if err := viper.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !enoent && !notFound {
			return fmt.Errorf("config read '%s': %w", viper.ConfigFileUsed(), err)
		}
	}

	viper.BindPFlag("server_url", cmd.Flags().Lookup("server"))
	viper.BindPFlag("database", cmd.Flags().Lookup("database"))
	viper.BindPFlag("vault_dir", cmd.Flags().Lookup("vault"))
	viper.BindPFlag("verbose", cmd.Flags().Lookup("verbose"))

	viper.SetEnvPrefix("VAULTSYNC")
	viper.AutomaticEnv()

	if viper.GetBool("verbose") {
		logLevel.Set(slog.LevelDebug)
	}

	return nil
}

// configFromViper assembles and validates the effective configuration.
// Validation failures abort the invocation before any I/O.
func configFromViper() (*config.Config, error) {
	cfg := &config.Config{
		ServerURL:    viper.GetString("server_url"),
		Database:     viper.GetString("database"),
		Username:     viper.GetString("username"),
		Password:     viper.GetString("password"),
		VaultDir:     viper.GetString("vault_dir"),
		Extensions:   viper.GetStringSlice("extensions"),
		IncludeGlobs: viper.GetStringSlice("include_globs"),
		Debounce:     viper.GetDuration("debounce"),
		Verbose:      viper.GetBool("verbose"),
		Path:         viper.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
