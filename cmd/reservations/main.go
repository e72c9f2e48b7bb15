package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/time/rate"

	"github.com/example/room-reservations/internal/adapters"
	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/config"
	"github.com/example/room-reservations/internal/export"
	httptransport "github.com/example/room-reservations/internal/http"
	"github.com/example/room-reservations/internal/logging"
	"github.com/example/room-reservations/internal/persistence"
	"github.com/example/room-reservations/internal/persistence/gormstore"
	"github.com/example/room-reservations/internal/persistence/sqlite"
	"github.com/example/room-reservations/internal/persistence/sqlite/migration"
)

const exportRunTimeout = 5 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	configPath, help, err := parseFlags(args, stdout)
	if err != nil || help {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := logging.New(stdout, level)

	store, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close store", "error", cerr)
		}
	}()

	app, err := newApp(ctx, cfg, store, logger)
	if err != nil {
		return err
	}

	if app.exports != nil {
		app.exports.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			app.exports.Stop(stopCtx)
		}()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("reservations API listening", "addr", server.Addr, "store", cfg.Store.Driver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func parseFlags(args []string, out io.Writer) (configPath string, help bool, err error) {
	flagSet := pflag.NewFlagSet("reservations", pflag.ContinueOnError)
	flagSet.SetOutput(out)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to a YAML configuration file")
	flagSet.BoolVarP(&help, "help", "h", false, "show help")

	if err = flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return "", true, nil
		}
		return "", false, err
	}
	if help {
		fmt.Fprintf(out, "Usage: reservations [--config FILE]\n\nSettings may be overridden with RESERVATIONS_* environment variables.\n\n%s", flagSet.FlagUsages())
		return "", true, nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return "", false, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	return configPath, false, nil
}

type closableStore interface {
	persistence.Store
	Close() error
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (closableStore, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		sqliteConfig := migration.DefaultSQLiteConfig(cfg.DSN)
		if cfg.MaxOpenConns > 0 {
			sqliteConfig.MaxOpenConns = cfg.MaxOpenConns
		}
		store, err := sqlite.Open(ctx, sqliteConfig, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverPostgres:
		store, err := gormstore.Open(gormstore.Config{
			Dialect:         gormstore.DialectPostgres,
			DSN:             cfg.DSN,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

type app struct {
	handler http.Handler
	exports *export.Scheduler
}

func newApp(ctx context.Context, cfg config.Config, store persistence.Store, logger *slog.Logger) (*app, error) {
	repos := adapters.New(store)
	now := time.Now

	rooms := application.NewRoomServiceWithLogger(repos.Rooms, now, logger)
	if len(cfg.Rooms) > 0 {
		inputs := make([]application.RoomInput, 0, len(cfg.Rooms))
		for _, room := range cfg.Rooms {
			inputs = append(inputs, application.RoomInput{
				ID:       room.ID,
				Name:     room.Name,
				Type:     room.Type,
				Capacity: room.Capacity,
				Features: room.Features,
			})
		}
		if err := rooms.SeedRooms(ctx, inputs); err != nil {
			return nil, fmt.Errorf("seed rooms: %w", err)
		}
	}

	identities := application.NewIdentityService(repos.Users, application.IdentityConfig{
		Secret:   []byte(cfg.Auth.TokenSecret),
		TokenTTL: cfg.Auth.TokenTTL,
		Now:      now,
		Logger:   logger,
	})
	gate := application.NewAdminGate(repos.Admins, identities, application.AdminGateConfig{
		AdmissionSecret: cfg.Auth.AdminSecret,
		CacheTTL:        cfg.Auth.AdminCacheTTL,
		Now:             now,
		Logger:          logger,
	})
	identities.OnIdentityChange(gate.HandleIdentityEvent)

	options := application.ReservationOptions{RejectedBlocks: cfg.Booking.RejectedBlocksSlot}
	reservations := application.NewReservationServiceWithLogger(repos.Reservations, repos.Rooms, gate, nil, now, options, logger)
	queries := application.NewQueryServiceWithLogger(repos.Reservations, repos.Rooms, gate, options, logger)

	middleware := []func(http.Handler) http.Handler{
		httptransport.RequestLogger(logger),
		httptransport.Recoverer(logger),
	}
	if cfg.Server.RateLimitPerSec > 0 {
		limiter := httptransport.NewIPRateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)
		middleware = append(middleware, httptransport.RateLimit(limiter, cfg.Server.RequestIPHeader, logger))
	}

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:       httptransport.NewAuthHandler(identities, gate, logger),
		Rooms:      httptransport.NewRoomHandler(rooms, queries, logger),
		Bookings:   httptransport.NewBookingHandler(reservations, queries, logger),
		Admin:      httptransport.NewAdminHandler(reservations, queries, now, logger),
		Identities: identities,
		Admins:     gate,
		Logger:     logger,
		Middleware: middleware,
	})

	result := &app{handler: handler}
	if cfg.Export.Enabled {
		job := export.NewJob(repos.Reservations, cfg.Export.Dir, now, logger)
		scheduler, err := export.NewScheduler(job, cfg.Export.Schedule, exportRunTimeout, logger)
		if err != nil {
			return nil, err
		}
		result.exports = scheduler
	}
	return result, nil
}
