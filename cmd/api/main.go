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

	"bezirk_scanner/internal/adapters/storage"
	"bezirk_scanner/internal/events"
	"bezirk_scanner/internal/extraction"
	apphttp "bezirk_scanner/internal/http"
	"bezirk_scanner/internal/http/router"
	"bezirk_scanner/internal/scan"
	"bezirk_scanner/internal/scan/service"
	"bezirk_scanner/internal/session"
	"bezirk_scanner/internal/share"
	"bezirk_scanner/internal/streets"
	"bezirk_scanner/platform/ai/gemini"
	"bezirk_scanner/platform/ai/moonshot"
	"bezirk_scanner/platform/config"
	"bezirk_scanner/platform/logger"
	"bezirk_scanner/platform/metrics"
	"bezirk_scanner/platform/validator"

	"golang.org/x/sync/errgroup"
	"google.golang.org/adk/model"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	rules, err := loadRules(cfg)
	if err != nil {
		log.Error("failed to load street rules", "error", err)
		panic("failed to load street rules: " + err.Error())
	}
	log.Info("street rules loaded", "rules", len(rules), "file", cfg.GetStreetRulesFile())

	llm, err := newVisionModel(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize vision model", "error", err)
		panic("failed to initialize vision model: " + err.Error())
	}
	if llm == nil {
		log.Warn("no API key configured; scanning disabled", "provider", cfg.GetVisionProvider())
	}
	extractor := extraction.NewClient(llm, cfg.GetVisionProvider(), log)

	sessions := session.NewStore(cfg.GetSessionTTL())
	m := metrics.New(func() float64 { return float64(sessions.Len()) })

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	registerEventLogging(eventBus, log)

	archive, archiveBucket := initArchive(ctx, cfg, log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	scanModule := scan.NewModule(service.Deps{
		Sessions:  sessions,
		Extractor: extractor,
		Provider:  cfg.GetVisionProvider(),
		Resolver:  streets.NewResolver(rules),
		EventBus:  eventBus,
		Archive:   archive,
		Metrics:   m,
		Log:       log,
		Config: service.Config{
			MaxImageSize:  cfg.GetMaxImageSize(),
			MaxTableSize:  cfg.GetMaxTableSize(),
			ArchiveBucket: archiveBucket,
		},
	}, val)
	shareModule := share.NewModule(cfg.GetAppBaseURL())

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Metrics:  m.Handler(),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			scanModule,
			shareModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
	eventBus.Wait()
	log.Info("server stopped")
}

func loadRules(cfg config.StreetRulesConfig) ([]streets.Rule, error) {
	if path := cfg.GetStreetRulesFile(); path != "" {
		return streets.LoadRulesFile(path)
	}
	return streets.DefaultRules(), nil
}

// newVisionModel returns nil without error when the selected provider has no key.
func newVisionModel(ctx context.Context, cfg config.VisionConfig) (model.LLM, error) {
	if !cfg.HasVisionCredential() {
		return nil, nil
	}
	switch cfg.GetVisionProvider() {
	case config.ProviderMoonshot:
		return moonshot.NewModel(moonshot.Config{
			APIKey: cfg.GetMoonshotAPIKey(),
			Model:  cfg.GetMoonshotModel(),
		}), nil
	default:
		return gemini.NewModel(ctx, gemini.Config{
			APIKey: cfg.GetGeminiAPIKey(),
			Model:  cfg.GetGeminiModel(),
		})
	}
}

type archiveConfig interface {
	storage.Config
	GetMinioBucketScans() string
}

// initArchive connects to MinIO when configured. Without it captures are not kept.
func initArchive(ctx context.Context, cfg archiveConfig, log *logger.Logger) (storage.StorageService, string) {
	if !cfg.IsMinIOEnabled() {
		log.Info("MINIO_ENDPOINT not configured; capture archive disabled")
		return nil, ""
	}

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	bucket := cfg.GetMinioBucketScans()
	if err := withRetry(ctx, log, "ensure scans bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "scansBucket", bucket)

	return storageSvc, bucket
}

func registerEventLogging(bus events.Bus, log *logger.Logger) {
	bus.Subscribe(events.ScanCompleted{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.ScanCompleted)
		if !ok {
			return nil
		}
		log.WithSessionID(e.SessionID).Info("scan completed", "street", e.Street, "number", e.Number, "district", e.District, "source", e.Source)
		return nil
	}))
	bus.Subscribe(events.LookupTableImported{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.LookupTableImported)
		if !ok {
			return nil
		}
		log.WithSessionID(e.SessionID).Info("lookup table imported", "entries", e.Entries, "file", e.Filename)
		return nil
	}))
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
