package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCmd_Output(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cmd := NewVersionCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"paperscrape version " + getVersion(), "commit:", "built:"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got %q", want, out)
		}
	}
}

func TestBuildInfoFallbacks(t *testing.T) {
	t.Parallel()
	if getVersion() == "" || getCommit() == "" || getDate() == "" {
		t.Fatal("version helpers must never return empty strings")
	}
}
