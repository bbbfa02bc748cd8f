package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"pricewatch/config"
	"pricewatch/database"
	"pricewatch/handlers"
	"pricewatch/logging"
	"pricewatch/metrics"
	"pricewatch/middleware"
	"pricewatch/notify"
	"pricewatch/pipeline"
	"pricewatch/repository"
	"pricewatch/scheduler"
	"pricewatch/scraper"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	log.Info("🗄️ Connected to database")

	if err := database.CreateTables(ctx, db); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	fetcher, closeFetcher, err := newFetcher(cfg.Scraper, log)
	if err != nil {
		log.Fatalf("Failed to create fetcher: %v", err)
	}
	defer closeFetcher()

	policy := notify.Policy{DiscountThreshold: decimal.NewFromFloat(cfg.Pipeline.DiscountThreshold)}
	snapshotter := scraper.NewSnapshotter(scraper.SummaryOptions{
		MaxLength:  cfg.Pipeline.DescriptionMaxLength,
		MaxBullets: cfg.Pipeline.DescriptionMaxBullets,
	})
	store := repository.NewProductRepository(db)
	renderer := notify.NewTemplateRenderer(policy)
	mailer := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, log)

	orchestrator := pipeline.NewOrchestrator(fetcher, snapshotter, store, renderer, mailer, pipeline.Options{
		Concurrency: cfg.Pipeline.Concurrency,
		Policy:      policy,
	}, log)
	tracker := pipeline.NewTracker(fetcher, snapshotter, store, renderer, mailer, log)

	priceChecker := scheduler.NewPriceChecker(orchestrator, cfg.Pipeline.Schedule, 0, log)
	if err := priceChecker.Start(); err != nil {
		log.Fatalf("Failed to schedule price checker: %v", err)
	}
	defer priceChecker.Stop()

	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware(log))
	r.Use(middleware.RateLimitMiddleware(cfg.Server.RateLimit))
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	h := handlers.NewHandlers(tracker, priceChecker, log)
	h.Register(r)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      c.Handler(r),
		ReadTimeout:  cfg.Server.RequestTimeout,
		WriteTimeout: 0, // POST /api/v1/runs is synchronous
	}

	go func() {
		log.WithField("addr", server.Addr).Info("🌐 Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("🛑 Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Server shutdown failed")
	}
}

// newFetcher builds the configured page fetcher and its cleanup function
func newFetcher(cfg config.ScraperConfig, log logrus.FieldLogger) (pipeline.Fetcher, func(), error) {
	switch cfg.Driver {
	case "rod":
		f, err := scraper.NewRodFetcher(scraper.RodConfig{
			BrowserBin:  cfg.BrowserBin,
			Timeout:     cfg.Timeout,
			SettleDelay: cfg.SettleDelay,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return f, func() {
			if err := f.Close(); err != nil {
				log.WithError(err).Warn("Failed to close browser")
			}
		}, nil
	default:
		f := scraper.NewUnlockerFetcher(scraper.UnlockerConfig{
			URL:     cfg.UnlockerURL,
			Zone:    cfg.UnlockerZone,
			APIKey:  cfg.UnlockerAPIKey,
			Timeout: cfg.Timeout,
		}, log)
		return f, func() {}, nil
	}
}
