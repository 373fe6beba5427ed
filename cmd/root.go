/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/revtran/internal/config"
	"github.com/valpere/revtran/internal/logging"
	"github.com/valpere/revtran/internal/tracing"
)

var version = "0.1.0"

var (
	cfgFile string

	cfg             *config.Config
	logger          = logging.Nop()
	shutdownTracing tracing.Shutdown
)

var rootCmd = &cobra.Command{
	Use:   "revtran",
	Short: "Translate documents through a multi-stage review pipeline",
	Long: `A CLI application that translates documents block by block. Every block
is translated, then reviewed and refined for accuracy, fluency, style,
terminology, consistency, readability and formatting, then refined once more
against past user feedback for the language pair.

Configuration is read from $XDG_CONFIG_HOME/revtran/config.yaml (or --config)
and REVTRAN_* environment variables.

Use "revtran translate --help" for translation options.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		logger.Sync()
		if shutdownTracing != nil {
			return shutdownTracing(context.Background())
		}
		return nil
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, args []string) error {
	config.SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigFile(config.ConfigFile())
	}
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// the default config file is optional
		if cfgFile != "" || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	loaded, err := config.Load()
	if err != nil {
		return err
	}
	cfg = loaded

	if logger, err = logging.New(cfg.Logging.Mode, cfg.Logging.Level); err != nil {
		return err
	}

	shutdownTracing, err = tracing.Init(cmd.Context(), tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    true,
		ServiceName: "revtran",
		Version:     version,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to start tracing: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default $XDG_CONFIG_HOME/revtran/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "Database path for translation memory, glossary and feedback")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("trace", false, "Export OpenTelemetry spans")

	viper.BindPFlag("store.db_path", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("tracing.enabled", rootCmd.PersistentFlags().Lookup("trace"))
}
