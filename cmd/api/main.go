package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/solar-lifecycle-api/config"
	"github.com/jwalitptl/solar-lifecycle-api/internal/email"
	"github.com/jwalitptl/solar-lifecycle-api/internal/handler/health"
	installationHandler "github.com/jwalitptl/solar-lifecycle-api/internal/handler/installation"
	milestoneHandler "github.com/jwalitptl/solar-lifecycle-api/internal/handler/milestone"
	permitHandler "github.com/jwalitptl/solar-lifecycle-api/internal/handler/permit"
	"github.com/jwalitptl/solar-lifecycle-api/internal/repository"
	"github.com/jwalitptl/solar-lifecycle-api/internal/repository/memory"
	"github.com/jwalitptl/solar-lifecycle-api/internal/repository/postgres"
	"github.com/jwalitptl/solar-lifecycle-api/internal/router"
	customerService "github.com/jwalitptl/solar-lifecycle-api/internal/service/customer"
	eventService "github.com/jwalitptl/solar-lifecycle-api/internal/service/event"
	installationService "github.com/jwalitptl/solar-lifecycle-api/internal/service/installation"
	"github.com/jwalitptl/solar-lifecycle-api/internal/service/lifecycle"
	milestoneService "github.com/jwalitptl/solar-lifecycle-api/internal/service/milestone"
	notificationService "github.com/jwalitptl/solar-lifecycle-api/internal/service/notification"
	permitService "github.com/jwalitptl/solar-lifecycle-api/internal/service/permit"
	"github.com/jwalitptl/solar-lifecycle-api/pkg/logger"
	"github.com/jwalitptl/solar-lifecycle-api/pkg/messaging"
	"github.com/jwalitptl/solar-lifecycle-api/pkg/messaging/redis"
	"github.com/jwalitptl/solar-lifecycle-api/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(&logger.Config{
		Level:   logger.ParseLevel(cfg.Log.Level),
		Output:  os.Stdout,
		Console: cfg.Log.Format == "console",
	})

	m := metrics.NewMetrics(prometheus.DefaultRegisterer, "solar")

	ctx := context.Background()

	// Initialize storage
	var (
		repos *repository.Store
		db    *sqlx.DB
	)
	switch cfg.Database.Driver {
	case "memory":
		log.Warn("using in-memory store, data is lost on restart")
		repos = memory.NewStore().Repositories()
	default:
		db, err = postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			log.Fatal(err, "failed to connect to database")
		}
		defer db.Close()
		repos = postgres.NewStore(db)
	}

	// Initialize Redis message broker
	var broker messaging.Broker = messaging.NopBroker{}
	if cfg.Redis.URL != "" {
		broker, err = redis.NewRedisBroker(ctx, cfg.Redis.ToBrokerConfig(), log, m)
		if err != nil {
			log.Fatal(err, "failed to connect to Redis")
		}
	}
	defer broker.Close()

	// Initialize services
	milestoneSvc := milestoneService.NewService(repos.Milestones, repos.Installations)
	permitSvc := permitService.NewService(repos.Permits, repos.Installations)
	installationSvc := installationService.NewService(repos.Installations, repos.Customers)
	notificationSvc := notificationService.NewService(notificationService.Config{
		Enabled:      cfg.Notification.Enabled,
		CompanyName:  cfg.Notification.CompanyName,
		SupportEmail: cfg.Notification.SupportEmail,
	}, email.NewSMTPService(cfg.SMTP, log))

	controller := lifecycle.NewController(lifecycle.Options{
		Installations: installationSvc,
		Milestones:    milestoneSvc,
		Permits:       permitSvc,
		Transitions:   repos.Transitions,
		Contacts:      customerService.NewService(repos.Customers, cfg.Notification.ContactTTL),
		Notifier:      notificationSvc,
		Events:        eventService.NewEventService(broker, cfg.Redis.Channel),
		Metrics:       m,
		Logger:        log,
	})

	// Setup router
	var pinger health.Pinger
	if db != nil {
		pinger = db
	}

	routerConfig := router.DefaultRouterConfig()
	routerConfig.RateLimitEnabled = cfg.RateLimit.Enabled
	routerConfig.RateLimit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
	routerConfig.RateBurst = cfg.RateLimit.Burst
	routerConfig.RequestTimeout = cfg.Server.RequestTimeout
	routerConfig.Gatherer = prometheus.DefaultGatherer

	r := router.NewRouter(log, m, routerConfig,
		health.NewHandler(pinger),
		installationHandler.NewHandler(installationSvc, controller),
		milestoneHandler.NewHandler(milestoneSvc, controller),
		permitHandler.NewHandler(permitSvc, controller),
	)
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info("starting server", "port", cfg.Server.Port, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "server forced to shutdown")
	}

	log.Info("server exited properly")
}
