package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"success-hq/backend/internal/analytics"
	"success-hq/backend/internal/api"
	"success-hq/backend/internal/config"
	"success-hq/backend/internal/dashboard"
	"success-hq/backend/internal/db"
	"success-hq/backend/internal/demodata"
	"success-hq/backend/internal/docstore"
	"success-hq/backend/internal/seedsource"
	"success-hq/backend/internal/telemetry"
	telemetryotel "success-hq/backend/internal/telemetry/otel"
	"success-hq/backend/internal/telemetry/producer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, "successhq-backend", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	kafkaProducer, err := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.KafkaTopic)
	if err != nil {
		log.Fatalf("kafka: %v", err)
	}

	emitters := []telemetry.EventEmitter{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
	if kafkaProducer != nil {
		emitters = append(emitters, kafkaProducer)
	}
	emitter := telemetry.Multi(emitters...)

	store := docstore.NewPostgresStore(conn)
	replacer := docstore.NewReplacer(store, docstore.ReplacerConfig{
		DeleteBatchSize: cfg.DeleteBatchSize,
		Concurrency:     cfg.DeleteConcurrency,
		InsertBatchSize: cfg.InsertBatchSize,
	})
	ingestor := analytics.NewIngestor(analytics.NewPostgresTable(conn), analytics.IngestorConfig{
		ChunkSize:   cfg.IngestChunkSize,
		MaxAttempts: cfg.IngestMaxAttempts,
		RetryBase:   cfg.IngestRetryBaseDuration(),
	})
	seeds := seedsource.NewPostgresSource(conn)

	params := demodata.Params{
		MinProjectsPerCompany: cfg.MinProjectsPerCompany,
		MaxProjectsPerCompany: cfg.MaxProjectsPerCompany,
		ProjectStartDelayDays: cfg.ProjectStartDelayDays,
		TrendingMetricsCount:  cfg.TrendingMetricsCount,
		TrendingIntervalDays:  cfg.TrendingIntervalDays,
		TrendingPeriodDays:    cfg.TrendingPeriodDays,
		MinRenewalDays:        cfg.MinRenewalDays,
		MaxRenewalDays:        cfg.MaxRenewalDays,
		MaxRegDelayMinutes:    cfg.MaxRegDelayMinutes,
		TruncateSettleDelay:   cfg.TruncateSettleDelayDuration(),
	}
	meter := providers.MeterProvider.Meter("successhq.pipeline")
	pipeline := demodata.NewService(seeds, replacer, ingestor, emitter, meter, params)
	dash := dashboard.NewService(conn)

	srv := &http.Server{
		Addr:        cfg.HTTPAddr,
		Handler:     api.New(pipeline, dash),
		ReadTimeout: 10 * time.Second,
		// No write timeout: a dataset regeneration run is synchronous and can
		// legitimately outlast any fixed limit.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("http server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down http server...")
	shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}

	// Let in-flight async telemetry emits finish before tearing providers down.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			log.Printf("kafka close: %v", err)
		}
	}
	if err := providers.Shutdown(shutCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("http server stopped")
}
