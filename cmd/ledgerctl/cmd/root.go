package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ledgerdesk/ledgerdesk/pkg/ledger"
)

var (
	cfgFile   string
	apiServer string
	output    string
	pageSize  int
	cacheDir  string
	verbose   bool
	traceOn   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Command-line tool for the ledgerdesk accounting backend",
	Long: `ledgerctl manages accounting documents and reference books on a
remote ledgerdesk server: cash advances, income entries, currencies,
cash registers, employees, exchange rates and income/expense items.

Examples:
  # Sign in and check the session
  ledgerctl login -u admin
  ledgerctl whoami

  # List advance payments, open ones first
  ledgerctl get advances --filter is_closed=false --sort -date

  # Page through income documents for one cash register
  ledgerctl get incomes --filter cash_register=3 --page 2

  # Create a document from a manifest
  ledgerctl create -f advance.yaml

  # Show the unreported remainder of an advance
  ledgerctl balance 17`,
	Version:       "0.1.0",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		if msg, show := commandErrorMessage(err); show {
			fmt.Fprintln(os.Stderr, msg)
		}
		return err
	}
	return nil
}

// commandErrorMessage renders a command failure. Unauthorized errors
// belong to the session gate: when its handler already announced the
// expired session, the inline error is dropped entirely.
func commandErrorMessage(err error) (string, bool) {
	if errors.Is(err, ledger.ErrUnauthorized) {
		if sessionNotified {
			return "", false
		}
		return "Not signed in. Run 'ledgerctl login' first.", true
	}
	return fmt.Sprintf("Error: %v", err), true
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ledgerctl.yaml)")
	rootCmd.PersistentFlags().StringVarP(&apiServer, "server", "s", "http://localhost:8000/api/v1", "API server base URL")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "Output format (table, json, yaml, name)")
	rootCmd.PersistentFlags().IntVar(&pageSize, "page-size", 50, "Listing page size (must match server configuration)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "Directory for the persistent reference-data cache (disabled when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable structured logging to stderr")
	rootCmd.PersistentFlags().BoolVar(&traceOn, "trace", false, "Export request traces to stderr")

	// Bind flags to viper
	viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("page-size", rootCmd.PersistentFlags().Lookup("page-size"))
	viper.BindPFlag("cache-dir", rootCmd.PersistentFlags().Lookup("cache-dir"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("trace", rootCmd.PersistentFlags().Lookup("trace"))

	// Environment variables
	viper.SetEnvPrefix("LEDGERCTL")
	viper.AutomaticEnv()
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".ledgerctl" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".ledgerctl")
	}

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil && viper.GetBool("verbose") {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
