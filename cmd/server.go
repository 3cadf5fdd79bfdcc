package cmd

import (
	"github.com/spf13/cobra"
	"transcribe-api/config"
	server2 "transcribe-api/server"
)

func server(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "start http server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return server2.RunHttp(config)
		},
	}
}

func worker(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "consume queued analysis requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return server2.RunWorker(config)
		},
	}
}

func migrate(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "create the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return server2.RunMigrate(config)
		},
	}
}
