package app

import (
	"github.com/spf13/cobra"

	"github.com/GoPowerDNS-Admin/go-settings/internal/daemon"
)

const flagDev = "dev"

func init() { //nolint: gochecknoinits
	startCmd.Flags().Bool(flagDev, false, "Enable dev mode")
	_ = v.BindPFlag(flagDev, startCmd.Flags().Lookup(flagDev))

	rootCmd.AddCommand(startCmd)
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the settings API service",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		d, err := daemon.New(&cfg)
		if err != nil {
			return err
		}

		return d.Start()
	},
}
