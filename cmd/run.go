package cmd

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"time"

	"accrue/api"
	"accrue/config"
	"accrue/database"
	"accrue/events"
	"accrue/metrics"
	"accrue/repository"
	"accrue/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting accrual ledger...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Println("Database connection established successfully")

	// Seed the global state row; the genesis rate is the ceiling for the
	// system's lifetime
	stateRepo := repository.NewLedgerStateRepository(db)
	if err := stateRepo.Init(ctx, cfg.InitialRate); err != nil {
		return fmt.Errorf("failed to initialize ledger state: %w", err)
	}

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	log.Println("Initializing services...")
	authorizer := service.NewStaticAuthorizer(cfg.MinterAddresses, cfg.RateAdminAddresses)
	clock := service.NewSystemClock()
	ledgerService := service.NewLedgerService(uowFactory, clock, authorizer)
	rateService := service.NewRateService(uowFactory, authorizer)
	log.Println("Services initialized successfully")

	// Initialize metrics and subscribe them to ledger events
	collector := metrics.NewCollector()
	subscribeMetrics(eventBus, collector)
	if supply, err := stateRepo.GetTotalSupply(ctx); err == nil {
		collector.SetSupply(supply)
	}
	if rate, err := stateRepo.GetGlobalRate(ctx); err == nil {
		collector.SetGlobalRate(rate)
	}

	// Start the HTTP API
	server := api.NewServer(cfg.ListenAddr, ledgerService, rateService, collector)
	serverErr := make(chan error, 1)
	go func() {
		log.Printf("HTTP API listening on %s", cfg.ListenAddr)
		serverErr <- server.Start()
	}()

	log.Printf("Ledger is running in %s mode...", cfg.Environment)

	select {
	case err := <-serverErr:
		return fmt.Errorf("HTTP server stopped: %w", err)
	case <-ctx.Done():
	}

	// Cleanup resources
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}

	return nil
}

// subscribeMetrics keeps the prometheus gauges in step with committed
// ledger events.
func subscribeMetrics(bus *events.Bus, collector *metrics.Collector) {
	bus.Subscribe(events.EventTypeInterestSettled, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.InterestSettledEvent); ok {
			collector.AddInterestSettled(e.Interest)
			collector.AddSupply(e.Interest)
		}
	})
	bus.Subscribe(events.EventTypeMinted, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.MintedEvent); ok {
			collector.AddSupply(e.Amount)
		}
	})
	bus.Subscribe(events.EventTypeBurned, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.BurnedEvent); ok {
			collector.AddSupply(new(big.Int).Neg(e.Amount))
		}
	})
	bus.Subscribe(events.EventTypeRateChanged, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.RateChangedEvent); ok {
			collector.SetGlobalRate(e.NewRate)
		}
	})
}
