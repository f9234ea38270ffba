package cmd

import (
	"tunevault/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the TuneVault HTTP server",
	Long:  `Start the TuneVault HTTP server, serving the library API and range-capable audio streaming.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
