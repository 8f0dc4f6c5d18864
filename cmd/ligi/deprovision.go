package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	goutils "github.com/jkaninda/go-utils"

	"github.com/jkaninda/ligi/internal/config"
	"github.com/jkaninda/ligi/internal/provision"
)

var deprovisionConfigPath string

var deprovisionCmd = &cobra.Command{
	Use:   "deprovision",
	Short: "Remove legacy student accounts and their documents",
	Long: `Pages through the identity store deleting every account whose claims
carry the legacy student role, then batch-deletes student documents
from the users, servants, and admins collections.`,
	RunE: runDeprovision,
}

func init() {
	deprovisionCmd.Flags().StringVar(&deprovisionConfigPath, "config", config.DefaultConfigPath(), "path to config file")
}

func runDeprovision(_ *cobra.Command, _ []string) error {
	logger := newLogger()

	cfg, err := config.Load(goutils.Env("LIGI_CONFIG", deprovisionConfigPath))
	if err != nil {
		return err
	}

	sc, err := initShared(cfg, logger)
	if err != nil {
		return err
	}
	defer sc.Cleanup()

	d := provision.NewDeprovisioner(sc.Store.Identities(), sc.Store.Documents(), logger)
	report, err := d.Run(context.Background())
	if err != nil {
		return err
	}

	if sc.Obs != nil && sc.Obs.Metrics != nil {
		sc.Obs.Metrics.DeprovisionedAccountsTotal.WithLabelValues("identity").Add(float64(report.AuthUsers))
		for _, n := range report.Collections {
			sc.Obs.Metrics.DeprovisionedAccountsTotal.WithLabelValues("document").Add(float64(n))
		}
	}

	fmt.Println("Cleanup complete.")
	fmt.Printf("  identity accounts removed: %d\n", report.AuthUsers)
	for _, collection := range provision.CleanupCollections() {
		fmt.Printf("  %s documents removed: %d\n", collection, report.Collections[collection])
	}
	return nil
}
