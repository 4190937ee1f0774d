// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "auth-gateway",
	Short: "auth-gateway is an OpenID Connect login gateway",
	Long: `auth-gateway authenticates browser users against an external
OpenID Connect identity provider, persists server-side session records
across the redirect round-trip and maps provider claims into internal
role-based profiles.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
