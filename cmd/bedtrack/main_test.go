package main

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ehr/bedtrack/internal/config"
	"github.com/ehr/bedtrack/internal/domain/bed"
	"github.com/ehr/bedtrack/internal/storage/csvfile"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&config.Config{Env: "production", LogLevel: "warn"}, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"message":"shown"`) {
		t.Errorf("unexpected log output %q", out)
	}

	if _, err := newLogger(&config.Config{LogLevel: "loud"}, &buf); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestCapacityFlags(t *testing.T) {
	c := &cli{}
	cmd := c.seedCmd()
	if err := cmd.Flags().Parse([]string{"--vvip=2", "--kelas3=10"}); err != nil {
		t.Fatal(err)
	}
	counts, err := capacityFlags(cmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts != (bed.Counts{2, 0, 0, 0, 10}) {
		t.Errorf("unexpected counts %v", counts)
	}

	cmd = c.seedCmd()
	cmd.Flags().Parse([]string{"--vip=-1"})
	if _, err := capacityFlags(cmd); err == nil {
		t.Error("expected error for negative capacity")
	}
}

func TestMigrationSource(t *testing.T) {
	embedded, err := fs.Glob(migrationSource(""), "*.sql")
	if err != nil || len(embedded) == 0 {
		t.Fatalf("expected embedded migrations, got %v %v", embedded, err)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "001_x.sql"), []byte("SELECT 1;"), 0o644); err != nil {
		t.Fatal(err)
	}
	fromDir, err := fs.Glob(migrationSource(dir), "*.sql")
	if err != nil || len(fromDir) != 1 || fromDir[0] != "001_x.sql" {
		t.Errorf("expected one migration from dir, got %v %v", fromDir, err)
	}
}

func TestSeedThenSession(t *testing.T) {
	dir := t.TempDir()
	c := &cli{
		cfg: &config.Config{
			DataDir:      dir,
			PatientFile:  "patient_data.csv",
			RoomFile:     "room_data.csv",
			BedFile:      "bed_data.csv",
			Delimiter:    ";",
			Storage:      config.StorageFile,
			DeletePolicy: "release",
			LatestOrder:  "insertion",
		},
		logger: zerolog.Nop(),
	}

	cmd := c.seedCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--vvip=1", "--vip=2"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.Contains(out.String(), "Seeded") {
		t.Errorf("unexpected output %q", out.String())
	}

	s, err := c.session(context.Background(), c.fileStore())
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if got := s.LatestSnapshot().Counts; got != (bed.Counts{1, 2, 0, 0, 0}) {
		t.Errorf("unexpected capacity %v", got)
	}

	cmd = c.seedCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); !errors.Is(err, csvfile.ErrSeedExists) {
		t.Errorf("expected ErrSeedExists, got %v", err)
	}
}
