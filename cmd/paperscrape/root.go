package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/paperscrape/internal/app"
)

// NewRootCmd creates the root command. Without a subcommand it scrapes.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paperscrape",
		Short: "Extract paper records from a conference listing page",
		Long: `paperscrape fetches a conference open-access listing (CVPR 2024 by default),
finds each paper title with its authors and PDF, supplementary and arXiv
links, and writes the records to CSV, JSON Lines and JSON files.

Running paperscrape without a subcommand is the same as "paperscrape scrape".`,
		Version:       getVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runScrape,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML or JSON config file")
	cmd.PersistentFlags().StringSlice("env-file", []string{".env"}, "Dotenv files loaded before reading the environment")
	bindScrapeFlags(cmd)

	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewCacheCmd())
	cmd.AddCommand(NewRunsCmd())
	cmd.AddCommand(NewVersionCmd())
	return cmd
}

// Execute runs the root command and exits with the status for its error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	setupLogging(os.Stderr, false)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if code := exitCode(err); code != 0 {
		if !errors.Is(err, app.ErrNoRecords) {
			log.Error().Err(err).Msg("paperscrape failed")
		}
		os.Exit(code)
	}
}

// exitCode maps run errors to process status: 2 when the page yielded no
// records, 1 for every other failure.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, app.ErrNoRecords):
		return 2
	default:
		return 1
	}
}

func setupLogging(w io.Writer, verbose bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
