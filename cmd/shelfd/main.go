package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/shelfd/shelfd/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "shelfd",
	Short:   "Book catalog server with HTTP Basic authentication",
	Long: `Shelfd is a lightweight book catalog server that provides
a REST API over a relational database, with authors kept
consistent with their books.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg.Log)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file path(s) (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres (default: sqlite, env: SHELFD_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (default: shelfd.db, env: SHELFD_DATABASE_DSN)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
