package cmd

import (
	"github.com/spf13/cobra"
	"transcribe-api/config"
)

func Root(config *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "transcribe-api",
		Short:        "audio transcription and analysis service",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(server(config), worker(config), migrate(config))
	return rootCmd
}
