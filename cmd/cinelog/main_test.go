package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cinelog/internal/session"
	"cinelog/internal/testsupport"
)

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	cmd := newRootCommand()
	cmd.SetArgs([]string{"config", "init", "--path", target})
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v\n%s", err, out.String())
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[tmdb]") {
		t.Fatalf("sample config missing tmdb section:\n%s", data)
	}

	// A second init without --overwrite must refuse.
	cmd = newRootCommand()
	cmd.SetArgs([]string{"config", "init", "--path", target})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for existing config")
	}
}

func TestRunUploadCreatesSession(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	csvPath := filepath.Join(t.TempDir(), "watched.csv")
	testsupport.WriteFile(t, csvPath, "Date,Name,Year,Letterboxd URI\n2023-01-15,Inception,2010,https://boxd.it/1skk\n")

	out := &bytes.Buffer{}
	if err := runUpload(context.Background(), out, cfg, store, []string{csvPath}); err != nil {
		t.Fatalf("runUpload: %v", err)
	}
	if !strings.Contains(out.String(), "1 movies") {
		t.Fatalf("unexpected output: %s", out.String())
	}

	sessions, err := store.SessionsByStatus(context.Background(), session.StatusEnriching)
	if err != nil {
		t.Fatalf("SessionsByStatus: %v", err)
	}
	if len(sessions) != 1 || sessions[0].TotalMovies != 1 {
		t.Fatalf("expected one queued session, got %+v", sessions)
	}
}

func TestRunUploadRejectsUnknownFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	csvPath := filepath.Join(t.TempDir(), "reviews.csv")
	testsupport.WriteFile(t, csvPath, "Name\nHeat\n")

	err := runUpload(context.Background(), &bytes.Buffer{}, cfg, store, []string{csvPath})
	if err == nil || !strings.Contains(err.Error(), "unrecognized export file") {
		t.Fatalf("expected unrecognized-file error, got %v", err)
	}
}

func TestRenderSessionsSkipsExpired(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	live := testsupport.NewSession(t, store)
	if _, err := store.CreateSession(context.Background(), -1); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	sessions, err := store.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}

	out := &bytes.Buffer{}
	renderSessions(out, sessions, false)
	if strings.Count(out.String(), "uploading") != 1 {
		t.Fatalf("expected only the live session:\n%s", out.String())
	}

	out.Reset()
	renderSessions(out, sessions, true)
	if strings.Count(out.String(), "uploading") != 2 {
		t.Fatalf("expected both sessions with --all:\n%s", out.String())
	}
	if !strings.Contains(out.String(), live.ID[:8]) {
		t.Fatalf("expected short id in table:\n%s", out.String())
	}
}

func TestResolveSessionPrefix(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	sess := testsupport.NewSession(t, store)

	got, err := resolveSession(context.Background(), store, sess.ID[:8])
	if err != nil {
		t.Fatalf("resolveSession: %v", err)
	}
	if got.ID != sess.ID {
		t.Fatalf("resolved wrong session: %s", got.ID)
	}

	if _, err := resolveSession(context.Background(), store, "zzzz"); err == nil {
		t.Fatal("expected no-match error")
	}
}
