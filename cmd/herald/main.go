package main

import (
	"context"
	"strings"
	"time"

	"socialcast/internal/audit"
	"socialcast/internal/conditions"
	"socialcast/internal/dispatch"
	"socialcast/internal/handlers"
	"socialcast/internal/models"
	"socialcast/internal/profiles"
	"socialcast/internal/rules"
	"socialcast/internal/sched"
	"socialcast/internal/schedule"
	"socialcast/internal/store"
	"socialcast/internal/template"
	"socialcast/internal/trigger"
	"socialcast/pkg/clients"
	"socialcast/pkg/config"
	"socialcast/pkg/database"
	"socialcast/pkg/logging"
	"socialcast/pkg/middleware"
	"socialcast/pkg/monitoring"
	"socialcast/pkg/server"
	"socialcast/pkg/version"
)

func main() {
	logger := logging.NewLoggerWithService("herald")
	config.LoadEnv(logger)

	port := config.GetEnv("PORT", "18060")
	directoryURL := config.GetEnv("PROFILE_DIRECTORY_URL", "")
	directoryKey := config.GetEnv("PROFILE_DIRECTORY_API_KEY", "")
	profileTTL := time.Duration(config.GetEnvInt("PROFILE_CACHE_TTL_SECONDS", 600)) * time.Second

	siteTZ := config.GetEnv("SITE_TIMEZONE", "UTC")
	location, err := time.LoadLocation(siteTZ)
	if err != nil {
		logger.WithFields(logging.Fields{"timezone": siteTZ}).Fatal("Unknown site timezone")
	}

	dbConfig := database.DefaultConfig()
	dbConfig.URL = config.RequireEnv("DATABASE_URL")
	db := database.MustConnect(dbConfig, logger)
	defer func() { _ = db.Close() }()

	contentStore := store.NewPostgresContentStore(db)
	settingsStore := store.NewPostgresSettingsStore(db)
	markerStore := store.NewPostgresMarkerStore(db)
	auditLog := audit.NewLog(db, config.GetEnvBool("DISPATCH_LOG_ENABLED", true), logger)

	breakerConfig := clients.DefaultCircuitBreakerConfig()
	breakerConfig.Name = "profile_directory"
	breakerConfig.Logger = logger
	directoryExecutor := clients.DefaultHTTPExecutorConfig()
	directoryExecutor.CircuitBreaker = clients.NewCircuitBreaker(breakerConfig)
	directory := profiles.NewClient(directoryURL, directoryKey, profileTTL,
		profiles.WithHTTPExecutorConfig(directoryExecutor))

	renderer := dispatch.NewTemplateRenderer(
		template.NewRenderer(nil),
		contentStore,
		template.ContextOptions{Location: location},
	)

	orchestrator := dispatch.NewOrchestrator(
		rules.NewResolver(settingsStore),
		conditions.NewEvaluator(contentStore),
		schedule.NewResolver(contentStore, location),
		renderer,
		dispatch.NewFieldImageResolver(contentStore),
		directory,
		contentStore,
		markerStore,
		auditLog,
		logger,
		dispatch.DefaultConfig(directoryKey),
	)

	metricsCollector := monitoring.NewMetricsCollector("herald", version.Version, version.GitCommit)
	dispatches, durations, payloads := metricsCollector.CreateDispatchMetrics()
	orchestrator.SetMetrics(dispatch.Metrics{
		Dispatches: func(action models.Action, status string) {
			dispatches.WithLabelValues(string(action), status).Inc()
		},
		Payloads: func(service, result string) {
			payloads.WithLabelValues(service, result).Inc()
		},
		Duration: func(action models.Action, seconds float64) {
			durations.WithLabelValues(string(action)).Observe(seconds)
		},
	})

	scheduler := sched.NewScheduler(sched.Config{
		Runner: func(ctx context.Context, task models.DeferredTask) error {
			_, err := orchestrator.Dispatch(ctx, task.ContentID, task.Action, dispatch.Options{})
			return err
		},
		Logger: logger,
	})
	defer scheduler.Stop()

	triggerConfig := trigger.DefaultConfig()
	triggerConfig.AsyncDispatch = config.GetEnvBool("ASYNC_DISPATCH", false)
	if types := config.GetEnv("SUPPORTED_CONTENT_TYPES", ""); types != "" {
		triggerConfig.SupportedTypes = strings.Split(types, ",")
	}
	triggerResolver := trigger.NewResolver(markerStore, scheduler, orchestrator, logger, triggerConfig)

	healthChecker := monitoring.NewHealthChecker("herald", version.Version)
	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	if directoryURL != "" {
		healthChecker.AddCheck("profile_directory", monitoring.HTTPServiceHealthCheck("profile_directory", directoryURL+"/health"))
	}
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"PROFILE_DIRECTORY_URL":     directoryURL,
		"PROFILE_DIRECTORY_API_KEY": directoryKey,
	}))

	app := server.SetupServiceRouter(logger, "herald", healthChecker, metricsCollector)

	lifecycleHandler := handlers.NewLifecycleHandler(triggerResolver, contentStore, logger)
	dispatchHandler := handlers.NewDispatchHandler(orchestrator, logger)

	api := app.Group("/api")
	if token := config.GetEnv("SERVICE_TOKEN", ""); token != "" {
		api.Use(middleware.ServiceAuthMiddleware(token))
	}
	api.POST("/lifecycle", lifecycleHandler.Handle)
	api.POST("/lifecycle/persisted", lifecycleHandler.HandleMetadataPersisted)
	api.POST("/dispatch", dispatchHandler.Handle)

	serverConfig := server.DefaultConfig("herald", port)
	if err := server.Start(serverConfig, app, logger); err != nil {
		logger.Fatal(err.Error())
	}
}
