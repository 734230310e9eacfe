package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/kirillkom/docgate/internal/config"
	"github.com/kirillkom/docgate/internal/core/domain"
)

func newTestCommand() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	return cmd, &out
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	t.Setenv("OCR_PROVIDER", "vision")
	t.Setenv("VISION_API_KEY", "test-key")
	t.Setenv("VISION_URL", "http://127.0.0.1:1")
	t.Setenv("LEXICON_PATH", "")
	return config.Load()
}

func TestLexiconCheckEmbedded(t *testing.T) {
	cmd, out := newTestCommand()
	if err := runLexiconCheck(cmd, ""); err != nil {
		t.Fatalf("check embedded lexicon: %v", err)
	}

	var summary lexiconSummary
	if err := json.Unmarshal(out.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v\n%s", err, out.String())
	}
	if summary.Source != "embedded" || summary.Version == "" {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Categories == 0 || len(summary.Accepted) == 0 || summary.Rules == 0 {
		t.Fatalf("expected a populated lexicon, got %+v", summary)
	}
}

func TestLexiconCheckMissingFile(t *testing.T) {
	cmd, _ := newTestCommand()
	err := runLexiconCheck(cmd, filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing lexicon")
	}
}

func TestValidateRejectsUnsupportedFormat(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("monthly statement"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cmd, out := newTestCommand()
	err := runValidate(cmd, cfg, path, "text/plain")
	if !errors.Is(err, errRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}

	var got validateOutput
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out.String())
	}
	if got.Outcome.Accepted || got.Outcome.Reason != domain.ReasonUnsupportedFormat || got.MediaType != "text/plain" {
		t.Fatalf("unexpected output %+v", got)
	}
}

func TestValidateMissingFile(t *testing.T) {
	cfg := testConfig(t)
	cmd, out := newTestCommand()
	err := runValidate(cmd, cfg, filepath.Join(t.TempDir(), "absent.pdf"), "")
	if err == nil || errors.Is(err, errRejected) {
		t.Fatalf("expected read error, got %v", err)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no outcome output, got %q", out.String())
	}
}
