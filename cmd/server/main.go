package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomdro61/shop-pilot-sub000/config"
	"github.com/tomdro61/shop-pilot-sub000/db"
	"github.com/tomdro61/shop-pilot-sub000/handlers"
	"github.com/tomdro61/shop-pilot-sub000/services"
	"github.com/tomdro61/shop-pilot-sub000/services/agent"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(newServerLogger(os.Stderr, cfg.LogLevel, cfg.NoColor))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	customerRepo := db.NewPostgresCustomerRepository(conn)
	vehicleRepo := db.NewPostgresVehicleRepository(conn)
	jobRepo := db.NewPostgresJobRepository(conn)
	teamRepo := db.NewPostgresTeamRepository(conn)

	customerService := services.NewCustomerService(customerRepo, jobRepo)
	vehicleService := services.NewVehicleService(vehicleRepo, customerRepo)
	jobService := services.NewJobService(jobRepo, customerRepo, vehicleRepo, teamRepo)
	estimateService := services.NewEstimateService(db.NewPostgresEstimateRepository(conn), jobRepo, customerRepo, services.LogNotifier{}, cfg.Shop)
	invoiceService := services.NewInvoiceService(db.NewPostgresInvoiceRepository(conn), jobRepo, cfg.Shop)
	teamService := services.NewTeamService(teamRepo)
	reportService := services.NewReportService(db.NewPostgresReportRepository(conn))

	if err := agent.CheckSchemas(); err != nil {
		return err
	}
	dispatcher, err := agent.NewDispatcher(agent.Stores{
		Customers: customerService,
		Vehicles:  vehicleService,
		Jobs:      jobService,
		Estimates: estimateService,
		Invoices:  invoiceService,
		Team:      teamService,
		Reports:   reportService,
	}, cfg.Shop)
	if err != nil {
		return err
	}

	model, err := newModel(cfg)
	if err != nil {
		return err
	}

	orchestrator := agent.NewOrchestrator(model, dispatcher,
		agent.WithMaxIterations(cfg.MaxToolIterations),
		agent.WithSystemPrompt(func() string {
			return agent.BuildSystemPrompt(cfg.Shop, time.Now())
		}),
	)

	router := handlers.NewRouter(handlers.RouterConfig{
		APIToken:    cfg.APIToken,
		RateLimiter: handlers.NewRateLimiter(cfg.RateLimitPerMinute),
		Agent:       handlers.NewAgentHandler(orchestrator, cfg.InboundRejectPolicy),
		Customers:   handlers.NewCustomerHandler(customerService),
		Health:      handlers.NewHealthHandler(conn),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port, "provider", cfg.ModelProvider, "model", cfg.Model, "shop", cfg.Shop.Name)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newModel(cfg *config.Config) (agent.Model, error) {
	if cfg.ModelProvider == config.ProviderOpenAI {
		model, err := agent.NewOpenAIModel(cfg.OpenAIAPIKey, cfg.Model, cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		return model, nil
	}
	return agent.NewAnthropicModel(cfg.AnthropicAPIKey, cfg.Model, cfg.MaxTokens), nil
}
