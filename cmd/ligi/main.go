// Ligi — youth league scoring and account management service.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ligi",
	Short: "Ligi — youth league scoring with role-managed access.",
	Long: `Ligi serves league standings, attendance, points, and follow-up tracking
over HTTP, guarded by a claims-based request gate. Account provisioning
keeps a fixed roster of servant and admin accounts in sync with the
identity store and its per-role document collections.`,
	RunE:          runServe, // Default to serve mode.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, provisionCmd, deprovisionCmd, versionCmd)
	_ = godotenv.Load()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
