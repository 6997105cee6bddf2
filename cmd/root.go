// Package cmd provides the gitguide command-line interface.
//
// Configuration comes from several sources, highest priority first:
//
//  1. Command-line flags (--port, --content-dir, ...)
//  2. GITGUIDE_ environment variables (GITGUIDE_SERVER_PORT, ...)
//  3. The file named by --config or GITGUIDE_CONFIG_FILE
//  4. .gitguide.yml in the working directory
//  5. Built-in defaults
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/gitguide/internal/config"
	"github.com/conneroisu/gitguide/internal/content"
	"github.com/conneroisu/gitguide/internal/logging"
	"github.com/conneroisu/gitguide/internal/server"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gitguide",
	Short: "A browsable Git reference with a live table of contents",
	Long: `gitguide serves a categorized Git learning guide: an intro page,
one page per topic with code examples, workflow steps, warnings and
interview questions, and an "on this page" outline that follows your
scroll position.

Quick Start:
  gitguide serve                  Serve the built-in guide on localhost:8080
  gitguide serve --content-dir ./guide --watch
                                  Serve your own articles, reloading on edits
  gitguide list                   List categories and articles
  gitguide toc commits            Print the outline of one article
  gitguide export commits         Print one article as markdown`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.SetGlobalNormalizationFunc(normalizeFlagName)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .gitguide.yml, can also use GITGUIDE_CONFIG_FILE)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.String("content-dir", "", "directory of article files (default: the built-in guide)")

	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = viper.BindPFlag("content.dir", flags.Lookup("content-dir"))
}

// normalizeFlagName accepts underscores and dots in flag names, so
// --content_dir and --content.dir both mean --content-dir.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.NewReplacer("_", "-", ".", "-").Replace(name))
}

// initConfig points viper at the config file and environment.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv(config.EnvPrefix + "_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".gitguide")
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing default file is fine; anything else is reported.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
		fmt.Fprintln(os.Stderr, "Warning: reading config:", err)
	}
}

// loadConfig returns the validated configuration together with a logger
// built from it.
func loadConfig() (*config.Config, logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, logging.NewLogger(cfg.LoggerConfig()), nil
}

// loadCatalog loads the catalog selected by the configuration.
func loadCatalog() (*content.Catalog, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cat, err := server.LoadCatalog(cfg.Content.Dir)
	if err != nil {
		return nil, err
	}
	return cat, nil
}
