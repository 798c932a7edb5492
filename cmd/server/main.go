package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/joho/godotenv"
	movieverse "github.com/movieverse/go-movieverse"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	// missing .env is fine, the environment may carry everything
	_ = godotenv.Load()

	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("movieverse"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)
	boot := lgr.GetLogger("boot")

	cfg, err := movieverse.LoadConfig()
	if err != nil {
		boot.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	bunDB, err := openDatabase(ctx, cfg.GetConnectionURI())
	if err != nil {
		boot.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer bunDB.Close()

	repo := movieverse.NewRepositoryManager(bunDB)
	if err := repo.Validate(); err != nil {
		boot.Error("repository manager validation failed", "error", err)
		os.Exit(1)
	}

	provider := movieverse.NewUserProvider(repo.Users(), lgr.GetLogger("auth"))
	auther := movieverse.NewAuthenticator(provider, cfg).
		WithLogger(lgr.GetLogger("auth"))

	routeAuth, err := movieverse.NewHTTPAuthenticator(auther, cfg)
	if err != nil {
		boot.Error("failed to build HTTP authenticator", "error", err)
		os.Exit(1)
	}
	routeAuth.Logger = lgr.GetLogger("auth.http")

	app := fiber.New(fiber.Config{
		AppName:      "movieverse",
		ErrorHandler: movieverse.ErrorHandler(lgr.GetLogger("http")),
	})

	app.Use(recover.New())
	app.Use(cors.New())

	movieverse.RegisterRoutes(app, routeAuth, repo, lgr.GetLogger("http"))

	go func() {
		if err := app.Listen(":" + cfg.GetPort()); err != nil {
			boot.Error("server stopped", "error", err)
		}
	}()

	boot.Info("server started", "port", cfg.GetPort())

	waitExitSignal()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		boot.Error("shutdown error", "error", err)
	}
}

func openDatabase(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to open database")
	}

	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to ping database")
	}

	// WAL allows concurrent readers with the single writer; foreign keys
	// back the favorites join table cascade.
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	}

	for _, pragma := range pragmas {
		if _, err := sqldb.ExecContext(ctx, pragma); err != nil {
			sqldb.Close()
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to set pragma").
				WithMetadata(map[string]any{"pragma": pragma})
		}
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	movieverse.RegisterModels(db)

	if err := movieverse.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func waitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
