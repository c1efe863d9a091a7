package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hyperifyio/paperscrape/internal/app"
)

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "paperscrape" {
			t.Errorf("expected use 'paperscrape', got %q", cmd.Use)
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has persistent flags", func(t *testing.T) {
		t.Parallel()
		verbose := cmd.PersistentFlags().Lookup("verbose")
		if verbose == nil || verbose.Shorthand != "v" || verbose.DefValue != "false" {
			t.Fatalf("unexpected verbose flag %+v", verbose)
		}
		if cmd.PersistentFlags().Lookup("config") == nil {
			t.Fatal("expected config flag")
		}
	})

	t.Run("scrapes without a subcommand", func(t *testing.T) {
		t.Parallel()
		if cmd.RunE == nil {
			t.Fatal("root command should run the scrape")
		}
		if cmd.Flags().Lookup("url") == nil {
			t.Fatal("root command should accept scrape flags")
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		want := map[string]bool{"scrape": false, "cache": false, "runs": false, "version": false}
		for _, sub := range cmd.Commands() {
			if _, ok := want[sub.Name()]; ok {
				want[sub.Name()] = true
			}
		}
		for name, found := range want {
			if !found {
				t.Errorf("missing subcommand %q", name)
			}
		}
	})
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"no records", app.ErrNoRecords, 2},
		{"wrapped no records", fmt.Errorf("run: %w", app.ErrNoRecords), 2},
		{"fetch failure", errors.New("fetch page: unexpected status: 503"), 1},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err); got != tc.want {
			t.Errorf("%s: exitCode=%d, want %d", tc.name, got, tc.want)
		}
	}
}
