package main

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/stampclock/internal/backup"
	"github.com/sadopc/stampclock/internal/config"
	"github.com/sadopc/stampclock/internal/stamp"
)

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	cfg := &config.Config{Logger: log.New(io.Discard, "", 0)}
	cfg.Store.Driver = driver
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "stampclock.db")
	cfg.HTTP.ShutdownTimeout = time.Second
	return cfg
}

func TestRunUnknownCommand(t *testing.T) {
	err := run(testConfig(t, config.DriverMemory), []string{"punch"})
	if err == nil || !strings.Contains(err.Error(), `unknown command "punch"`) {
		t.Fatalf("err = %v", err)
	}
}

func TestOpenStoreDrivers(t *testing.T) {
	for _, driver := range []string{config.DriverSQLite, config.DriverMemory} {
		st, err := openStore(context.Background(), testConfig(t, driver))
		if err != nil {
			t.Fatalf("%s: %v", driver, err)
		}
		if _, err := st.Insert(context.Background(), stamp.New(1, 1000, 2000)); err != nil {
			t.Fatalf("%s insert: %v", driver, err)
		}
		st.Close()
	}
}

func TestOpenSettingsSharesSQLite(t *testing.T) {
	cfg := testConfig(t, config.DriverSQLite)
	st, err := openStore(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	settings, closeSettings, err := openSettings(cfg, st)
	if err != nil {
		t.Fatal(err)
	}
	defer closeSettings()
	if any(settings) != any(st) {
		t.Fatal("sqlite driver should reuse its store for settings")
	}
}

func TestBackupRestoreCommands(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	records := []stamp.StampRecord{
		stamp.New(1, 1737356400000, 1737399600000),
		stamp.New(2, 1736060400000, 1736074800000),
	}
	records[0].ID = 10
	records[1].ID = 11
	if err := backup.Write(records, in); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig(t, config.DriverSQLite)
	if err := runRestore(cfg, []string{in}); err != nil {
		t.Fatalf("restore: %v", err)
	}

	out := filepath.Join(dir, "out.csv")
	if err := runBackup(cfg, []string{out, "-user", "1"}); err != nil {
		t.Fatalf("backup: %v", err)
	}
	got, err := backup.Read(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != 10 {
		t.Fatalf("backup = %+v, want record 10 only", got)
	}
}

func TestBackupNeedsFile(t *testing.T) {
	if err := runBackup(testConfig(t, config.DriverMemory), nil); err == nil {
		t.Fatal("backup without a file should fail")
	}
	if err := runRestore(testConfig(t, config.DriverMemory), nil); err == nil {
		t.Fatal("restore without a file should fail")
	}
}
