package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/paperscrape/internal/cache"
)

// NewCacheCmd creates the cache command group.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the page cache",
	}
	cmd.PersistentFlags().String("cache.dir", cache.DefaultDir(), "Page cache directory")

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := cacheDir(cmd)
			if err != nil {
				return err
			}
			if err := cache.ClearDir(dir); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			log.Info().Str("dir", dir).Msg("cache cleared")
			return nil
		},
	})

	purge := &cobra.Command{
		Use:   "purge",
		Short: "Remove cached pages older than --max-age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := cacheDir(cmd)
			if err != nil {
				return err
			}
			maxAge, _ := cmd.Flags().GetDuration("max-age")
			n, err := cache.PurgeByAge(dir, maxAge, time.Now())
			if err != nil {
				return fmt.Errorf("purge cache: %w", err)
			}
			log.Info().Str("dir", dir).Int("removed", n).Msg("cache purged")
			return nil
		},
	}
	purge.Flags().Duration("max-age", 7*24*time.Hour, "Entries older than this are removed")
	cmd.AddCommand(purge)
	return cmd
}

func cacheDir(cmd *cobra.Command) (string, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	setupLogging(cmd.ErrOrStderr(), cfg.Verbose)
	if cfg.CacheDir == "" {
		return "", fmt.Errorf("no cache directory configured")
	}
	return cfg.CacheDir, nil
}
