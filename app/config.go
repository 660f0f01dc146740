package app

import (
	"github.com/spf13/cobra"

	"github.com/ci-water/adhydro-streamflow/internal/config"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.ReadConfig(configPath)
		if err != nil {
			return err //nolint:wrapcheck
		}

		out, err := config.DumpConfigJSON(&c)
		if err != nil {
			return err //nolint:wrapcheck
		}

		cmd.Print(out)

		return nil
	},
}
