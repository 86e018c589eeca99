package command

import (
	"github.com/spf13/cobra"

	"github.com/tidepool-org/caretrack/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the service",
	Long:  "The serve command starts the http server, the change stream triggers and the scheduled jobs",
	Run:   func(cmd *cobra.Command, args []string) { api.MainLoop() },
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
