package command

// root.go defines the root command for restaurantsCLI and its global flags.

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pwarestaurants/cmd/cli/command/client"
)

var apiURL string // API server URL, shared by every subcommand

var rootCmd = &cobra.Command{
	Use:   "restaurantsCLI",
	Short: "restaurantsCLI - command line client for the restaurant ratings API",
	Long: `restaurantsCLI talks to a running restaurant ratings API server. It can:
- List restaurants and the best rated ones
- Show a restaurant with all its ratings
- Rate a restaurant, creating it on first rating
- Edit a restaurant's name, description or icon
- Delete a single rating

Use "restaurantsCLI command --help" to see the flags of each command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. It is called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultAPI := os.Getenv("RESTAURANTS_API")
	if defaultAPI == "" {
		defaultAPI = "http://localhost:3000/api"
	}
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", defaultAPI, "API base URL including the /api prefix (env RESTAURANTS_API)")
}

func newClient() *client.HTTPClient {
	return client.NewHTTPClient(apiURL)
}
