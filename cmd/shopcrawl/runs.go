package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hairizuanbinnoorazman/checkout-crawler/run"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the run history",
}

func init() {
	runsCmd.AddCommand(newRunsListCmd())
	rootCmd.AddCommand(runsCmd)
}

func newRunsListCmd() *cobra.Command {
	var batch, website, status string
	var limit, offset int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journaled site runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := runFilter(batch, website, status)
			if err != nil {
				return err
			}

			cfg, err := LoadConfig(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log := newLogger(cfg.Log)
			defer log.Close()

			ctx := context.Background()
			store, closeDB, err := openHistory(ctx, cfg.Database, log)
			if err != nil {
				return err
			}
			defer closeDB()

			runs, err := store.List(ctx, filter, limit, offset)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), runs)
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&batch, "batch", "", "only runs of this batch ID")
	cmd.Flags().StringVar(&website, "website", "", "only runs of this website")
	cmd.Flags().StringVar(&status, "status", "", "only runs with this status (running, success, aborted, errored)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of runs to skip")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func runFilter(batch, website, status string) (run.Filter, error) {
	filter := run.Filter{Website: website, Status: run.Status(status)}
	if batch != "" {
		id, err := uuid.Parse(batch)
		if err != nil {
			return filter, fmt.Errorf("invalid batch ID: %w", err)
		}
		filter.BatchID = id
	}
	if status != "" && !filter.Status.IsValid() {
		return filter, fmt.Errorf("%w: %s", run.ErrInvalidStatus, status)
	}
	return filter, nil
}

func printRuns(w io.Writer, runs []*run.Run) {
	headers := []string{"ID", "BATCH", "WEBSITE", "LANGUAGE", "VARIANT", "STATUS", "COMPLETED", "FAILED", "STARTED AT", "DURATION"}
	var rows [][]string
	for _, r := range runs {
		completed := "-"
		if len(r.CompletedRoles) > 0 {
			completed = strings.Join(r.CompletedRoles, ",")
		}
		failed := "-"
		if r.FailedRole != "" {
			failed = r.FailedRole
		}
		duration := "-"
		if r.Duration != nil {
			duration = (time.Duration(*r.Duration) * time.Millisecond).String()
		}
		rows = append(rows, []string{
			r.ID.String(),
			r.BatchID.String()[:8],
			r.Website,
			r.Language,
			r.Variant,
			string(r.Status),
			completed,
			failed,
			r.StartTime.Format("2006-01-02 15:04:05"),
			duration,
		})
	}
	printTable(w, headers, rows)
}
