// Package main is the entrypoint for the Viewable API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/karnoweb/viewable/internal/analytics"
	"github.com/karnoweb/viewable/internal/cache"
	"github.com/karnoweb/viewable/internal/calendar"
	"github.com/karnoweb/viewable/internal/compress"
	"github.com/karnoweb/viewable/internal/config"
	"github.com/karnoweb/viewable/internal/handler"
	"github.com/karnoweb/viewable/internal/metrics"
	"github.com/karnoweb/viewable/internal/middleware"
	"github.com/karnoweb/viewable/internal/repository"
	"github.com/karnoweb/viewable/internal/server"
	"github.com/karnoweb/viewable/internal/view"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	calendarType, _ := cfg.CalendarType()
	location, _ := cfg.Location()
	calendars := calendar.NewManager(calendarType, location, cfg.WeekStart())

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	recorder := metrics.NewInMemory()

	eventRepo := repository.NewViewEventRepository(repo)
	aggregateRepo := repository.NewAggregateRepository(repo)

	resolver := repository.NewTableEntityResolver(repo)
	if err := registerEntityTables(resolver, cfg.EntityTables); err != nil {
		logger.Error("invalid entity table config", "error", err)
		os.Exit(1)
	}

	viewService := view.NewService(eventRepo, cacheClient, view.Options{
		IdentifierChain:   cfg.IdentifierChain(),
		IgnoreBots:        cfg.IgnoreBots,
		CooldownEnabled:   cfg.CooldownEnabled,
		CooldownPeriod:    cfg.CooldownPeriod,
		DefaultCollection: cfg.DefaultCollection,
		BranchEnabled:     cfg.BranchEnabled,
		StoreIP:           cfg.StoreIP,
		StoreUserAgent:    cfg.StoreUserAgent,
		StoreReferer:      cfg.StoreReferer,
	}, logger, recorder)

	compressEngine := compress.NewEngine(eventRepo, aggregateRepo, calendars, cfg.CompressionChunk, logger, recorder)
	analyticsEngine := analytics.NewEngine(aggregateRepo, eventRepo, resolver, calendars, cfg.IncludeToday, logger, recorder)

	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	recordHandler := handler.NewRecordHandler(viewService, logger)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsEngine, calendars, logger)
	adminHandler := handler.NewAdminHandler(compressEngine, recorder, location, logger)

	r := setupRouter(healthHandler, recordHandler, analyticsHandler, adminHandler, logger)

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	if cfg.CompressionEnabled {
		scheduler, err := compress.NewScheduler(compressEngine, cfg.CompressionSchedule, location, logger)
		if err != nil {
			logger.Error("invalid compression schedule", "schedule", cfg.CompressionSchedule, "error", err)
			os.Exit(1)
		}
		scheduler.Start()
		srv.OnShutdown("compression scheduler", func(ctx context.Context) error {
			scheduler.Stop()
			return nil
		})
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"calendar", cfg.Calendar,
		"timezone", cfg.Timezone,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	healthHandler *handler.HealthHandler,
	recordHandler *handler.RecordHandler,
	analyticsHandler *handler.AnalyticsHandler,
	adminHandler *handler.AdminHandler,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/views", recordHandler.Record)

		r.Route("/analytics/{entityType}", func(r chi.Router) {
			r.Get("/ranking", analyticsHandler.GetRanking)
			r.Get("/trending", analyticsHandler.GetTrending)

			r.Route("/{entityID}", func(r chi.Router) {
				r.Get("/", analyticsHandler.GetAnalytics)
				r.Get("/series", analyticsHandler.GetSeries)
				r.Get("/counts", analyticsHandler.GetCounts)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/compress", adminHandler.Compress)
			r.Get("/metrics", adminHandler.Metrics)
		})
	})

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}

// registerEntityTables parses VIEWABLE_ENTITY_TABLES and registers each
// mapping with the resolver. Format, semicolon separated:
//
//	post=posts.id:title,slug;page=pages.id:title
func registerEntityTables(resolver *repository.TableEntityResolver, spec string) error {
	if spec == "" {
		return nil
	}
	for _, entry := range strings.Split(spec, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		entityType, rest, ok := strings.Cut(entry, "=")
		if !ok {
			return fmt.Errorf("entity table %q: missing '='", entry)
		}
		tableSpec, colSpec, _ := strings.Cut(rest, ":")
		tableName, idColumn, ok := strings.Cut(tableSpec, ".")
		if !ok {
			return fmt.Errorf("entity table %q: expected table.id_column", entry)
		}

		var columns []string
		for _, c := range strings.Split(colSpec, ",") {
			if c = strings.TrimSpace(c); c != "" {
				columns = append(columns, c)
			}
		}

		resolver.Register(strings.TrimSpace(entityType), repository.EntityTable{
			Table:    tableName,
			IDColumn: idColumn,
			Columns:  columns,
		})
	}
	return nil
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

// redactURL hides credentials before a connection URL reaches the logs.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable>"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

// sanitizeError strips any occurrence of the raw URL or its password from
// an error message.
func sanitizeError(err error, rawURL string) string {
	msg := err.Error()
	if rawURL != "" {
		msg = strings.ReplaceAll(msg, rawURL, redactURL(rawURL))
	}
	return passwordPattern.ReplaceAllString(msg, "password=xxxxx")
}
