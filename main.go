package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"sticket-backend/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "sticket",
	Short: "Sticket check-in service",
	Long:  "Runs the Sticket check-in API, or performs one-off check-ins and QR parsing from the command line.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: .env file not found, using default environment variables")
		}
		cfg = config.LoadConfig()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, checkinCmd, qrCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
