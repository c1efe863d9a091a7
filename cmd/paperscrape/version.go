package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/paperscrape/internal/app"
)

// getVersion prefers the ldflags value, then module build info.
func getVersion() string {
	if app.BuildVersion != "" && app.BuildVersion != "0.0.0-dev" {
		return app.BuildVersion
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return app.BuildVersion
}

func buildSetting(key, fallback string) string {
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == key && s.Value != "" {
				return s.Value
			}
		}
	}
	return fallback
}

func getCommit() string {
	if app.BuildCommit != "unknown" && app.BuildCommit != "" {
		return app.BuildCommit
	}
	c := buildSetting("vcs.revision", "unknown")
	if len(c) > 7 {
		return c[:7]
	}
	return c
}

func getDate() string {
	if app.BuildDate != "unknown" && app.BuildDate != "" {
		return app.BuildDate
	}
	return buildSetting("vcs.time", "unknown")
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "paperscrape version %s\n", getVersion())
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", getCommit())
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", getDate())
		},
	}
}
