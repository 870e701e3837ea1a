package main

import (
	"fmt"
	"os"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/playwright-community/playwright-go"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "install_browsers",
	Short: "Downloads the browsers used by the smoke command and browser tests",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		skipRod, _ := cmd.Flags().GetBool("skip-rod")
		skipPlaywright, _ := cmd.Flags().GetBool("skip-playwright")

		if !skipRod {
			bin, err := launcher.NewBrowser().Get()
			if err != nil {
				return fmt.Errorf("download rod browser: %w", err)
			}
			fmt.Println("rod browser:", bin)
		}

		if !skipPlaywright {
			err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}})
			if err != nil {
				return fmt.Errorf("install playwright driver and chromium: %w", err)
			}
			fmt.Println("playwright chromium installed")
		}

		return nil
	},
}

func main() {
	rootCmd.Flags().Bool("skip-rod", false, "Do not download the browser used by go-rod.")
	rootCmd.Flags().Bool("skip-playwright", false, "Do not install the Playwright driver and Chromium.")

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
