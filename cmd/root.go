package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "login-smoke",
	Short: "Browser smoke checks for the local login fixture",
}

// Execute adds all child commands to the root command and sets flags appropriately. It is called by main.main().
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
