package cmd

import (
	"fmt"
	"os"

	"github.com/ZacxDev/hotel-site/config"
	"github.com/ZacxDev/hotel-site/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile     string
	appViper    *viper.Viper
	appConfig   *config.Config
	logProvider logging.Provider
)

var rootCmd = &cobra.Command{
	Use:   "hotelsite",
	Short: "hotelsite - variant-aware hotel marketing site",
	Long: `hotelsite serves and exports a hotel marketing site whose home page comes in
several content variants, each reachable under its own key or path alias.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	appViper = config.NewViper()
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./hotelsite.yaml)")
	rootCmd.PersistentFlags().String("site", ".", "site directory containing site.yaml")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
	appViper.BindPFlag("site_dir", rootCmd.PersistentFlags().Lookup("site"))
	appViper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initializeConfig(_ *cobra.Command) error {
	used, err := config.ReadFile(appViper, cfgFile)
	if err != nil {
		return err
	}

	appConfig, err = config.Load(appViper)
	if err != nil {
		return err
	}

	provider, err := logging.NewProvider(appConfig.Logging())
	if err != nil {
		return err
	}
	logProvider = provider

	if used != "" {
		moduleLogger(logging.RootModule).Debug("config.loaded", "file", used)
	}
	return nil
}

func moduleLogger(module string) logging.Logger {
	return logging.ModuleLogger(logProvider, module)
}
