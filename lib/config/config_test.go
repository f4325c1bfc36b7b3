// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Timeouts.FirstByte.Std() != 10*time.Second {
		t.Errorf("expected first_byte=10s, got %s", cfg.Timeouts.FirstByte)
	}
	if cfg.Timeouts.Idle.Std() != 300*time.Second {
		t.Errorf("expected idle=300s, got %s", cfg.Timeouts.Idle)
	}
	if !cfg.TokenCache {
		t.Error("expected token_cache=true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("KAGI_TEST_HOST", "kagi.internal")
	path := writeFile(t, "config.yaml", `
session: ${KAGI_TEST_SESSION:-from-default}
endpoints:
  proofread: https://${KAGI_TEST_HOST}/api/proofread
timeouts:
  first_byte: 5s
  idle: 0
refresh_margin: 90
token_cache: false
defaults:
  format: md
  proofread:
    style: business
  ask:
    model: claude-4-sonnet
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Session != "from-default" {
		t.Errorf("expected session=from-default, got %s", cfg.Session)
	}
	if cfg.Endpoints.Proofread != "https://kagi.internal/api/proofread" {
		t.Errorf("expected expanded proofread endpoint, got %s", cfg.Endpoints.Proofread)
	}
	if cfg.Timeouts.FirstByte.Std() != 5*time.Second {
		t.Errorf("expected first_byte=5s, got %s", cfg.Timeouts.FirstByte)
	}
	if cfg.Timeouts.Idle != 0 {
		t.Errorf("expected idle=0 (disabled), got %s", cfg.Timeouts.Idle)
	}
	if cfg.Timeouts.Refresh.Std() != 30*time.Second {
		t.Errorf("expected refresh to keep its default, got %s", cfg.Timeouts.Refresh)
	}
	if cfg.RefreshMargin.Std() != 90*time.Second {
		t.Errorf("expected refresh_margin=90s, got %s", cfg.RefreshMargin)
	}
	if cfg.TokenCache {
		t.Error("expected token_cache=false")
	}
	if cfg.Defaults.Format != "md" || cfg.Defaults.Proofread.Style != "business" || cfg.Defaults.Ask.Model != "claude-4-sonnet" {
		t.Errorf("unexpected defaults: %+v", cfg.Defaults)
	}
}

func TestLoadFileJSONC(t *testing.T) {
	path := writeFile(t, "config.jsonc", `{
  // comments are allowed
  "user_agent": "kagi-test/1.0",
  "timeouts": {"idle": "2m",},
  "defaults": {"summarize": {"type": "summary"}},
}`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.UserAgent != "kagi-test/1.0" {
		t.Errorf("expected user_agent=kagi-test/1.0, got %s", cfg.UserAgent)
	}
	if cfg.Timeouts.Idle.Std() != 2*time.Minute {
		t.Errorf("expected idle=2m, got %s", cfg.Timeouts.Idle)
	}
	if cfg.Defaults.Summarize.Type != "summary" {
		t.Errorf("expected summarize.type=summary, got %s", cfg.Defaults.Summarize.Type)
	}
}

func TestLoadFileRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"relative endpoint", "endpoints:\n  search: /socket/search\n", "endpoints.search"},
		{"ftp endpoint", "endpoints:\n  auth: ftp://kagi.com/auth\n", "endpoints.auth"},
		{"zero margin", "refresh_margin: 0s\n", "refresh_margin"},
		{"negative timeout", "timeouts:\n  idle: -1s\n", "timeouts.idle"},
		{"unknown format", "defaults:\n  format: xml\n", "defaults.format"},
		{"bad duration", "timeouts:\n  idle: soon\n", "soon"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, "config.yaml", test.content))
			if err == nil {
				t.Fatal("expected an error, got nil")
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("expected error mentioning %q, got %v", test.want, err)
			}
		})
	}
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv("KAGI_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Defaults.Format != "console" {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Setenv("KAGI_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for a missing KAGI_CONFIG file, got nil")
	}
}

func TestLoadDotenv(t *testing.T) {
	t.Setenv("KAGI_TEST_KEPT", "from-environment")
	t.Setenv("KAGI_TEST_NEW", "")
	os.Unsetenv("KAGI_TEST_NEW")
	path := writeFile(t, ".env", "KAGI_TEST_KEPT=from-file\nKAGI_TEST_NEW=added\n")

	if err := LoadDotenv(true, path); err != nil {
		t.Fatalf("LoadDotenv failed: %v", err)
	}
	if got := os.Getenv("KAGI_TEST_KEPT"); got != "from-environment" {
		t.Errorf("expected the environment to win, got %s", got)
	}
	if got := os.Getenv("KAGI_TEST_NEW"); got != "added" {
		t.Errorf("expected KAGI_TEST_NEW=added, got %s", got)
	}

	missing := filepath.Join(t.TempDir(), ".env")
	if err := LoadDotenv(false, missing); err != nil {
		t.Errorf("optional missing file: %v", err)
	}
	if err := LoadDotenv(true, missing); err == nil {
		t.Error("expected error for a required missing file")
	}
}

func TestSessionFilePath(t *testing.T) {
	t.Setenv("KAGI_SESSION_FILE", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	cfg := Default()
	path, err := cfg.SessionFilePath()
	if err != nil {
		t.Fatalf("SessionFilePath failed: %v", err)
	}
	if path != "/xdg/kagi/session" {
		t.Errorf("expected /xdg/kagi/session, got %s", path)
	}

	cfg.SessionFile = "/from/config"
	if path, _ := cfg.SessionFilePath(); path != "/from/config" {
		t.Errorf("expected /from/config, got %s", path)
	}

	t.Setenv("KAGI_SESSION_FILE", "/from/env")
	if path, _ := cfg.SessionFilePath(); path != "/from/env" {
		t.Errorf("expected /from/env, got %s", path)
	}
}
