package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const appName = "sparkshop"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Catalog cache and cart service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(envFile)
		},
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading SPARKSHOP_* variables")

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(catalogCmd())
	cmd.AddCommand(cartCmd())
	return cmd
}
