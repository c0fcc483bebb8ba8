package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"restoran-analytics/internal/config"
	"restoran-analytics/internal/database"
	"restoran-analytics/internal/seed"

	"github.com/spf13/cobra"
)

var (
	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with a demo menu, waiters and orders",
		RunE:  runSeed,
	}

	seedFlags struct {
		orders   int
		days     int
		waiters  int
		seed     int64
		snapshot string
	}
)

func init() {
	f := seedCmd.Flags()
	f.IntVar(&seedFlags.orders, "orders", 2000, "number of orders")
	f.IntVar(&seedFlags.days, "days", 120, "spread orders over this many past days")
	f.IntVar(&seedFlags.waiters, "waiters", 6, "number of waiter accounts")
	f.Int64Var(&seedFlags.seed, "seed", 42, "random seed")
	f.StringVar(&seedFlags.snapshot, "snapshot", "", "write a snapshot JSON file instead of using the database")
}

func runSeed(cmd *cobra.Command, args []string) error {
	opts := seed.Options{
		Orders:   seedFlags.orders,
		Days:     seedFlags.days,
		Waiters:  seedFlags.waiters,
		Seed:     seedFlags.seed,
		Progress: os.Stderr,
	}

	if seedFlags.snapshot != "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("cannot load config: %w", err)
		}
		opts.Now = time.Now().In(cfg.Location())
		ds, err := seed.Generate(opts)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(ds.Snapshot(), "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(seedFlags.snapshot, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s written to %s\n", ds.Summary(), seedFlags.snapshot)
		return nil
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	db, err := database.Init(cfg.Database, log)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	opts.Now = time.Now().In(cfg.Location())

	ds, err := seed.Insert(cmd.Context(), db, opts)
	if err != nil {
		return err
	}
	log.WithField("seed", opts.Seed).Info("demo data inserted: " + ds.Summary())
	fmt.Fprintf(cmd.OutOrStdout(), "waiter password: %s\n", seed.DefaultWaiterPassword)
	return nil
}
