package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/thedilution/dilution-backend/api/routes"
	"github.com/thedilution/dilution-backend/internal/auth"
	"github.com/thedilution/dilution-backend/internal/consumption"
	"github.com/thedilution/dilution-backend/internal/dashboard"
	"github.com/thedilution/dilution-backend/internal/dilutions"
	"github.com/thedilution/dilution-backend/internal/formulas"
	"github.com/thedilution/dilution-backend/internal/hardware"
	"github.com/thedilution/dilution-backend/internal/inventory"
	"github.com/thedilution/dilution-backend/internal/jobcards"
	"github.com/thedilution/dilution-backend/internal/notifications"
	"github.com/thedilution/dilution-backend/internal/users"
	"github.com/thedilution/dilution-backend/pkg/config"
	"github.com/thedilution/dilution-backend/pkg/db"
	"github.com/thedilution/dilution-backend/pkg/logger"
	"github.com/thedilution/dilution-backend/pkg/metrics"
	"github.com/thedilution/dilution-backend/pkg/migrate"
	pkgredis "github.com/thedilution/dilution-backend/pkg/redis"
	"github.com/thedilution/dilution-backend/pkg/robot"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := pkgredis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	jobMetrics := metrics.NewJobcardMetrics(registry)
	robotMetrics := metrics.NewRobotMetrics(registry)

	dispenser, err := robot.NewClient(cfg.Robot.BaseURL, robot.WithTimeout(cfg.Robot.Timeout))
	if err != nil {
		logg.Error(context.Background(), "failed to create robot client", err)
		os.Exit(1)
	}

	gdb := dbClient.DB()
	userRepo := users.NewRepository(gdb)
	inventoryRepo := inventory.NewRepository(gdb)
	formulaRepo := formulas.NewRepository(gdb)
	dilutionRepo := dilutions.NewRepository(gdb)
	jobcardRepo := jobcards.NewRepository(gdb)
	consumptionRepo := consumption.NewRepository(gdb)
	notificationRepo := notifications.NewRepository(gdb)
	hardwareRepo := hardware.NewRepository(gdb)

	authService, err := auth.NewService(userRepo, cfg.JWT)
	if err != nil {
		fatal(logg, "failed to create auth service", err)
	}
	usersService, err := users.NewService(userRepo, cfg.Password)
	if err != nil {
		fatal(logg, "failed to create users service", err)
	}
	registerService, err := auth.NewRegisterService(usersService, cfg.JWT)
	if err != nil {
		fatal(logg, "failed to create register service", err)
	}
	inventoryService, err := inventory.NewService(dbClient, inventoryRepo)
	if err != nil {
		fatal(logg, "failed to create inventory service", err)
	}
	formulaService, err := formulas.NewService(dbClient, formulaRepo)
	if err != nil {
		fatal(logg, "failed to create formulas service", err)
	}
	dilutionService, err := dilutions.NewService(dilutionRepo, formulaService)
	if err != nil {
		fatal(logg, "failed to create dilutions service", err)
	}
	notificationService, err := notifications.NewService(notificationRepo)
	if err != nil {
		fatal(logg, "failed to create notifications service", err)
	}
	hardwareService, err := hardware.NewService(hardwareRepo)
	if err != nil {
		fatal(logg, "failed to create hardware service", err)
	}
	consumptionService, err := consumption.NewService(consumptionRepo)
	if err != nil {
		fatal(logg, "failed to create consumption service", err)
	}
	dashboardService, err := dashboard.NewService(gdb)
	if err != nil {
		fatal(logg, "failed to create dashboard service", err)
	}
	jobcardService, err := jobcards.NewService(jobcards.Deps{
		Tx:            dbClient,
		Repo:          jobcardRepo,
		DilutionRepo:  dilutionRepo,
		FormulaRepo:   formulaRepo,
		InventoryRepo: inventoryRepo,
		ConsRepo:      consumptionRepo,
		NotifRepo:     notificationRepo,
		UserRepo:      userRepo,
		Dispenser:     dispenser,
		Logger:        logg,
		JobMetrics:    jobMetrics,
		RobotMetrics:  robotMetrics,
	})
	if err != nil {
		fatal(logg, "failed to create jobcards service", err)
	}

	handler := routes.NewRouter(routes.Deps{
		Config:        cfg,
		Logger:        logg,
		DBPinger:      dbClient,
		RedisPinger:   redisClient,
		Idempotency:   redisClient,
		RateLimiter:   redisClient,
		Registry:      registry,
		AuthService:   authService,
		RegisterSvc:   registerService,
		JobcardSvc:    jobcardService,
		InventorySvc:  inventoryService,
		FormulaSvc:    formulaService,
		DilutionSvc:   dilutionService,
		Notifications: notificationService,
		HardwareSvc:   hardwareService,
		UsersSvc:      usersService,
		ConsumptionSv: consumptionService,
		DashboardSvc:  dashboardService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stop:
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func fatal(logg *logger.Logger, msg string, err error) {
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
