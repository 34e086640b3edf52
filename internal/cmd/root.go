// Package cmd implements the CLI of the application.
//
// serve - The main application service entry point
// migrate - Initiate a database migration manually
// identities scan - Offline duplicate alias detection over the player catalog
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scrimcore",
	Short: "Scrim log ingestion and analytics service",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	setupCLI()

	if errExecute := rootCmd.Execute(); errExecute != nil {
		os.Exit(1)
	}
}

func setupCLI() {
	rootCmd.Version = BuildVersion

	identitiesCommand := identitiesCmd()
	identitiesCommand.AddCommand(identitiesScanCmd())

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(identitiesCommand)
}
