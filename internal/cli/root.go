package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	port       string
	configPath string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envPort := os.Getenv("PORT")
	if envPort == "" {
		envPort = "8080"
	}
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:   "lms-challenge-service",
		Short: "Course leaderboards and timed chapter challenges with power-ups",
		Long: "Serves ranked course leaderboards with badges and runs five-question chapter\n" +
			"challenges over websockets, recording each finished attempt as course progress.",
	}

	cmd.PersistentFlags().StringVar(&port, "port", envPort, "HTTP port for the leaderboard API and challenge websockets")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config (ranking thresholds, stores, challenge timing)")
	cmd.AddCommand(NewStartCmd(&configPath, &port))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	return cmd
}
