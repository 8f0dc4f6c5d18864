package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	goutils "github.com/jkaninda/go-utils"

	"github.com/jkaninda/ligi/internal/config"
	"github.com/jkaninda/ligi/internal/provision"
)

var provisionConfigPath string

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Provision the roster of servant and admin accounts",
	Long: `Ensures every roster account exists in the identity store with the
correct claims, mirrors its status into the per-role document
collections, and writes a CSV audit artifact with the generated
passwords of newly created accounts.`,
	RunE: runProvision,
}

func init() {
	provisionCmd.Flags().StringVar(&provisionConfigPath, "config", config.DefaultConfigPath(), "path to config file")
}

func runProvision(_ *cobra.Command, _ []string) error {
	logger := newLogger()

	cfg, err := config.Load(goutils.Env("LIGI_CONFIG", provisionConfigPath))
	if err != nil {
		return err
	}

	sc, err := initShared(cfg, logger)
	if err != nil {
		return err
	}
	defer sc.Cleanup()

	ctx := context.Background()
	specs := provision.BuildRoster(&cfg.Roster)
	provisioner := provision.NewProvisioner(sc.Store.Identities(), sc.Store.Documents(), logger)

	start := time.Now()
	results := provisioner.Run(ctx, specs)
	elapsed := time.Since(start)

	if sc.Obs != nil && sc.Obs.Metrics != nil {
		for _, r := range results {
			sc.Obs.Metrics.ProvisionedAccountsTotal.WithLabelValues(r.Role, r.Status).Inc()
		}
		sc.Obs.Metrics.ProvisionRunDuration.Observe(elapsed.Seconds())
	}

	csvPath, err := provision.WriteCSV(cfg.ArtifactsDir(), results, time.Now())
	if err != nil {
		return err
	}

	summary := provision.Summarize(results)
	fmt.Println("Provisioning complete.")
	for _, role := range []string{"servant", "admin"} {
		fmt.Printf("  %s: %d created, %d existing, %d failed\n",
			role, summary.Created[role], summary.Existing[role], summary.Failed[role])
	}
	fmt.Printf("CSV file: %s\n", csvPath)

	totalFailed := 0
	for _, n := range summary.Failed {
		totalFailed += n
	}
	if totalFailed > 0 {
		return fmt.Errorf("%d account(s) failed to provision", totalFailed)
	}
	return nil
}
