package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/safar/tradein-store/internal/config"
	"github.com/safar/tradein-store/internal/database"
	"github.com/safar/tradein-store/internal/httpapi"
	"github.com/safar/tradein-store/internal/logger"
	"github.com/safar/tradein-store/internal/notify"
	"github.com/safar/tradein-store/internal/storage"
	"github.com/safar/tradein-store/internal/tradein"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	app := &cli.App{
		Name:  "tradein",
		Usage: "jewelry trade-in service",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and notification workers",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "apply or roll back schema migrations",
				Subcommands: []*cli.Command{
					{Name: "up", Usage: "apply all pending migrations", Action: migrateAction(database.MigrateUp)},
					{Name: "down", Usage: "roll back every migration", Action: migrateAction(database.MigrateDown)},
				},
			},
			{
				Name:  "token",
				Usage: "issue a staff bearer token",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "staff", Usage: "staff id", Required: true},
					&cli.DurationFlag{Name: "ttl", Usage: "token lifetime", Value: 12 * time.Hour},
				},
				Action: issueToken,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serve(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zaplog, err := logger.NewZapLog(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer zaplog.Sync()
	zap.ReplaceGlobals(zaplog)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	zaplog.Info("connected to database")

	dispatcher := notify.NewDispatcher(
		notify.NewEmailClient(cfg.Email),
		notify.SQLBackend{DB: db},
		notify.Options{QueueSize: cfg.Notify.QueueSize, MaxAttempts: cfg.Notify.MaxAttempts},
		zaplog.Named("notify"),
	)

	svc := tradein.NewService(db, dispatcher, storage.New(cfg.Storage), cfg.Storage.Bucket, zaplog.Named("tradein"))

	router := httpapi.NewRouter(svc, cfg.Auth.JWTSecret, func(ctx context.Context) error {
		return database.Ping(ctx, db)
	}, zaplog.Named("http"))

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// The dispatcher outlives the server so events queued by in-flight
	// requests are still delivered.
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return dispatcher.Run(dispatchCtx, cfg.Notify.Workers)
	})

	g.Go(func() error {
		zaplog.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		zaplog.Info("shutting down")
		defer stopDispatch()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func migrateAction(run func(*sql.DB) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.LoadDatabase()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		db, err := database.NewConnection(c.Context, cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		if err := run(db); err != nil {
			return err
		}

		log.Printf("migrate %s: done", c.Command.Name)
		return nil
	}
}

func issueToken(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	token, err := httpapi.IssueToken(cfg.Auth.JWTSecret, c.Int64("staff"), c.Duration("ttl"))
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}

	fmt.Fprintln(c.App.Writer, token)
	return nil
}
