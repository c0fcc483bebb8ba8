package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"restoran-analytics/internal/analytics"
	"restoran-analytics/internal/config"
	"restoran-analytics/internal/dashboard"
	"restoran-analytics/internal/export"
	"restoran-analytics/internal/logging"

	"github.com/spf13/cobra"
)

var (
	reportCmd = &cobra.Command{
		Use:   "report",
		Short: "Compute a report offline from a snapshot file",
		Long: `Reads a JSON snapshot ({"orders": [...], "catalog": [...], "categories": [...], "waiters": [...]})
and prints the report as JSON, or writes it as an xlsx workbook.`,
		RunE: runReport,
	}

	reportFlags struct {
		snapshot string
		format   string
		out      string
		now      string
		query    dashboard.ReportQuery
	}
)

func init() {
	f := reportCmd.Flags()
	f.StringVar(&reportFlags.snapshot, "snapshot", "", "snapshot JSON file (required)")
	f.StringVar(&reportFlags.format, "format", "json", "output format: json or xlsx")
	f.StringVarP(&reportFlags.out, "out", "o", "", "output file (default stdout for json)")
	f.StringVar(&reportFlags.now, "now", "", "evaluate as of this RFC3339 time instead of the current time")
	f.StringVar(&reportFlags.query.Granularity, "granularity", "today", "today, week, month, year or custom")
	f.StringVar(&reportFlags.query.Month, "month", "", "month for month granularity (YYYY-MM)")
	f.StringVar(&reportFlags.query.Preset, "preset", "", "custom preset: last7days, last30days, last90days, specific")
	f.StringVar(&reportFlags.query.From, "from", "", "custom range start (YYYY-MM-DD)")
	f.StringVar(&reportFlags.query.To, "to", "", "custom range end (YYYY-MM-DD)")
	f.StringVar(&reportFlags.query.Types, "types", "", "order types, comma separated")
	f.StringVar(&reportFlags.query.Payment, "payment", "", "payment states, comma separated")
	f.StringVar(&reportFlags.query.Waiter, "waiter", "", "waiter id")
	f.StringVar(&reportFlags.query.Category, "category", "", "category name")
	f.IntVar(&reportFlags.query.Top, "top", 0, "ranking length")
	_ = reportCmd.MarkFlagRequired("snapshot")
}

func readSnapshot(path string) (analytics.Snapshot, error) {
	var s analytics.Snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("reading snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("decoding snapshot %s: %w", path, err)
	}
	return s, nil
}

func reportClock(now string, loc *time.Location) (func() time.Time, error) {
	if now == "" {
		return func() time.Time { return time.Now().In(loc) }, nil
	}
	t, err := time.Parse(time.RFC3339, now)
	if err != nil {
		return nil, fmt.Errorf("invalid --now: %w", err)
	}
	t = t.In(loc)
	return func() time.Time { return t }, nil
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}
	log, err := logging.New(cfg.Logger)
	if err != nil {
		return err
	}
	loc := cfg.Location()

	clock, err := reportClock(reportFlags.now, loc)
	if err != nil {
		return err
	}
	p, err := reportFlags.query.Params(loc, cfg.Analytics.TopN)
	if err != nil {
		return err
	}
	snap, err := readSnapshot(reportFlags.snapshot)
	if err != nil {
		return err
	}

	rep, err := analytics.NewEngine(log, analytics.WithClock(clock)).Compute(p, snap)
	if err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), rep, reportFlags.format, reportFlags.out)
}

func writeReport(stdout io.Writer, rep *analytics.Report, format, out string) error {
	switch format {
	case "json":
		w := stdout
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case "xlsx":
		if out == "" {
			out = export.Filename(rep)
		}
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := export.Write(f, rep); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "written", out)
		return nil
	default:
		return fmt.Errorf("unknown format %q, expected json or xlsx", format)
	}
}
