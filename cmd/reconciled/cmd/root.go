package cmd

import (
	"fmt"
	"os"

	"bank-reconciliation-engine/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	verbose   bool
	logFormat string
	version   = "dev"
	commit    = "unknown"
	date      = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "reconciled",
	Short: "Bank reconciliation engine",
	Long: `Reconciled matches raw bank-feed transactions against imported statement
transactions, auto-applies high-confidence matches and tracks each
reconciliation's completion state.

Examples:
  reconciled run --db books.db --interval 5m
  reconciled cycle --db books.db --reconciliation 4f1c...
  reconciled import --db books.db --reconciliation 4f1c... --file statement.csv
  reconciled suggest --db books.db --transaction 9a2e...`,
	Version:           getVersionString(),
	PersistentPreRunE: setupLogging,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text, json")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)

		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(1)
		}
	}

	viper.SetEnvPrefix("RECONCILED")
	viper.AutomaticEnv()
}

func setupLogging(cmd *cobra.Command, args []string) error {
	config := logger.DefaultConfig()

	if viper.GetBool("verbose") {
		config.Level = logger.DebugLevel
	}

	if viper.GetString("log-format") == "json" {
		config.Format = logger.JSONFormat
	}

	log, err := logger.NewLogger(config)
	if err != nil {
		return err
	}

	logger.SetGlobalLogger(log)
	return nil
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
