// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "adhydro-streamflow",
	Short: "ADHydro streamflow is a web service for ADHydro forecast hydrographs",
	Long: `ADHydro streamflow is a web service that manages watersheds, their
GeoServer or KML map layers and data stores, and serves ADHydro forecast
hydrographs read from NetCDF files.`,
	Args: cobra.OnlyValidArgs,
}

var configPath string // directory holding main.toml

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config directory containing main.toml (default ./etc/)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
