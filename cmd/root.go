// Package cmd provides the command-line interface of contractabi.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"contractabi/internal/application/common/slogger"
	"contractabi/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

//nolint:gochecknoglobals // Standard Cobra CLI pattern
var (
	cfgFile string
	cfg     *config.Config
	v       = viper.New()
)

// rootCmd represents the base command when called without any subcommands.
//
//nolint:gochecknoglobals // Standard Cobra CLI pattern
var rootCmd = &cobra.Command{
	Use:   "contractabi",
	Short: "Extract function ABIs from smart contract sources",
	Long: `ContractABI scans Rust-like smart contract sources and extracts the ABI of
their exported functions: name, parameters, return type and a classification
as INIT, READ, WRITE or PAYABLE.

The system supports:
- One-shot extraction to JSON or YAML
- Concurrent batch extraction of contract trees
- Watch mode that re-extracts on change
- Storing ABIs in PostgreSQL and announcing them on NATS JetStream
- A worker answering extraction requests over NATS`,
	SilenceUsage:      true,
	PersistentPreRunE: setupConfig,
}

// Execute adds all child commands to the root command and runs it with a
// context cancelled on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() { //nolint:gochecknoinits // Standard Cobra CLI pattern for command registration
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./configs/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "Log format (json, text)")

	if err := v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-level flag: %v\n", err)
	}
	if err := v.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-format flag: %v\n", err)
	}
}

// setupConfig loads configuration and configures logging before any command runs.
func setupConfig(_ *cobra.Command, _ []string) error {
	loaded, err := loadConfig(v, cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded

	if err := slogger.Configure(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	return nil
}

// loadConfig reads the config file (if any), environment variables with the
// CONTRACTABI_ prefix and defaults into v.
func loadConfig(v *viper.Viper, file string) (*config.Config, error) {
	config.SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CONTRACTABI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// Config file not found; use defaults and environment
	}

	return config.Load(v)
}

// GetConfig returns the loaded configuration.
func GetConfig() *config.Config {
	return cfg
}
