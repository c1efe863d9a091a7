package main

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/paperscrape/internal/app"
	"github.com/hyperifyio/paperscrape/internal/output"
	"github.com/hyperifyio/paperscrape/internal/store"
)

// NewRunsCmd creates the runs command group for reading the record store.
func NewRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect runs saved in the record store",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the records of a stored run",
		Long: `Print the records of a stored run. Without --id the most recent run for
--url is shown.`,
		Args: cobra.NoArgs,
		RunE: runShow,
	}
	show.Flags().String("db", "", "SQLite record store")
	show.Flags().String("url", app.DefaultURL, "Listing URL whose latest run is shown")
	show.Flags().Int64("id", 0, "Run id; overrides --url")
	cmd.AddCommand(show)
	return cmd
}

func runShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogging(cmd.ErrOrStderr(), cfg.Verbose)
	if cfg.DBPath == "" {
		return errors.New("no record store configured; pass --db")
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	id, _ := cmd.Flags().GetInt64("id")
	if id == 0 {
		run, err := db.LatestRun(ctx, cfg.URL)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("no stored run for %s", cfg.URL)
		}
		if err != nil {
			return fmt.Errorf("latest run: %w", err)
		}
		id = run.ID
	}
	recs, err := db.Records(ctx, id)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return fmt.Errorf("run %d has no records", id)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "run %d: %d records\n", id, len(recs))
	output.Preview(cmd.OutOrStdout(), recs, len(recs))
	return nil
}
