package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/sadopc/stampclock/internal/api"
	"github.com/sadopc/stampclock/internal/backup"
	"github.com/sadopc/stampclock/internal/config"
	"github.com/sadopc/stampclock/internal/memstore"
	"github.com/sadopc/stampclock/internal/pgstore"
	"github.com/sadopc/stampclock/internal/store"
	"github.com/sadopc/stampclock/internal/tracking"
	"github.com/sadopc/stampclock/internal/tui"
)

const usage = `usage: stampclock [-config path] [command] [args]

commands:
  tui                            terminal client (default)
  serve                          HTTP API
  backup [-user id] <file>       dump records to .json or .csv
  restore <file>                 load records from .json or .csv
`

// recordStore is what every store driver provides.
type recordStore interface {
	tracking.RecordStore
	backup.Source
	Close() error
}

type pinger interface {
	Ping(ctx context.Context) error
}

type memoryStore struct {
	*memstore.Store
}

func (memoryStore) Close() error { return nil }

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "error: load .env: %v\n", err)
		os.Exit(1)
	}

	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, flag.Args()); err != nil {
		cfg.Logger.Printf("error: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, args []string) error {
	cmd := "tui"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "tui":
		return runTUI(cfg)
	case "serve":
		return runServe(cfg)
	case "backup":
		return runBackup(cfg, args)
	case "restore":
		return runRestore(cfg, args)
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func sqlitePath(cfg *config.Config) (string, error) {
	if cfg.Store.SQLitePath != "" {
		return cfg.Store.SQLitePath, nil
	}
	return store.DefaultDBPath()
}

func openStore(ctx context.Context, cfg *config.Config) (recordStore, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		s, err := pgstore.New(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case config.DriverMemory:
		return memoryStore{memstore.New()}, nil
	default:
		path, err := sqlitePath(cfg)
		if err != nil {
			return nil, err
		}
		s, err := store.New(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// openSettings returns the SQLite store holding the client settings. It is
// st itself when records live in SQLite too.
func openSettings(cfg *config.Config, st recordStore) (*store.Store, func(), error) {
	if s, ok := st.(*store.Store); ok {
		return s, func() {}, nil
	}
	path, err := sqlitePath(cfg)
	if err != nil {
		return nil, nil, err
	}
	s, err := store.New(path)
	if err != nil {
		return nil, nil, err
	}
	return s, func() { s.Close() }, nil
}

func runTUI(cfg *config.Config) error {
	st, err := openStore(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	settings, closeSettings, err := openSettings(cfg, st)
	if err != nil {
		return fmt.Errorf("open settings: %w", err)
	}
	defer closeSettings()

	if cfg.UserID != 0 && settings.GetIntSetting(store.SettingUserID, 0) == 0 {
		if err := settings.SetIntSetting(store.SettingUserID, cfg.UserID); err != nil {
			return err
		}
	}

	app := tui.NewApp(tracking.NewService(st), settings, st)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func runServe(cfg *config.Config) error {
	logger := cfg.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	var ping func(context.Context) error
	if p, ok := st.(pinger); ok {
		ping = p.Ping
	}

	gin.SetMode(cfg.HTTP.GinMode)
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewRouter(tracking.NewService(st), logger, ping),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s (store %s)", cfg.HTTP.Addr, cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Println("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Println("server stopped")
	return nil
}

func runBackup(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("backup", flag.ContinueOnError)
	userID := fs.Int64("user", -1, "only back up this user's records")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return errors.New("backup needs a file name")
	}
	path := rest[0]
	// Flags may also follow the file name.
	if err := fs.Parse(rest[1:]); err != nil {
		return err
	}

	ctx := context.Background()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	var only *int64
	if *userID >= 0 {
		only = userID
	}
	n, err := backup.Dump(ctx, st, path, only)
	if err != nil {
		return err
	}
	cfg.Logger.Printf("backed up %d records to %s", n, path)
	return nil
}

func runRestore(cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return errors.New("restore needs exactly one file name")
	}
	path := args[0]

	records, err := backup.Read(path)
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	n, err := backup.Restore(ctx, st, records)
	if err != nil {
		return fmt.Errorf("restored %d of %d records: %w", n, len(records), err)
	}
	cfg.Logger.Printf("restored %d records from %s", n, path)
	return nil
}
