package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	config "github.com/davicafu/skidash/internal/config"
	infraEvents "github.com/davicafu/skidash/internal/shared/infra/events"
	sharedBus "github.com/davicafu/skidash/internal/shared/infra/platform/bus"
	"github.com/davicafu/skidash/internal/shared/infra/platform/httpserver"
	skiApp "github.com/davicafu/skidash/internal/skipass/application"
	skiDomain "github.com/davicafu/skidash/internal/skipass/domain"
	skiEvents "github.com/davicafu/skidash/internal/skipass/infra/inbound/events"
	skiHttp "github.com/davicafu/skidash/internal/skipass/infra/inbound/http"
	skiCache "github.com/davicafu/skidash/internal/skipass/infra/outbound/cache"
	"github.com/davicafu/skidash/pkg/logger"
)

// ---------------- Main ----------------
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "invalid LOG_LEVEL:", err)
		os.Exit(1)
	}
	log := logger.Logger()
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("❌ skidash stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------------- Dataset ----------------
	source, closeSource, err := buildSource(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSource()

	// ---------------- Cache ----------------
	cacheInstance, closeCache := buildCache(ctx, cfg, log)
	defer closeCache()
	sessions := skiCache.NewSessionRepo(cacheInstance, cfg.SessionTTL)

	// ---------------- Events ---------------
	localBus := infraEvents.NewInMemoryEventBus(skiDomain.SessionTopic)
	defer localBus.Close()

	analytics, closeAnalytics := buildAnalytics(ctx, cfg, log)
	defer closeAnalytics()
	consumer := skiEvents.NewSessionConsumer(analytics, cfg.AnalyticsFlushPeriod, cfg.AnalyticsBatchSize, log)

	g, gctx := errgroup.WithContext(ctx)

	var bus sharedBus.EventBus = localBus
	if cfg.UseKafka {
		log.Info("🚀 Usando Kafka como bus de eventos", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))

		writer := infraEvents.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer writer.Close()
		// El bus local sigue alimentando los streams SSE de esta instancia.
		bus = sharedBus.Fanout{localBus, infraEvents.NewKafkaPublisher(writer, log)}

		reader := infraEvents.NewKafkaReader(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID)
		defer reader.Close()
		adapter := infraEvents.NewConsumerAdapter(reader, consumer, log)
		g.Go(func() error {
			adapter.Run(gctx)
			return nil
		})
	} else {
		log.Info("⚡️Usando bus de eventos en memoria (canales de Go)")
		skiEvents.BackgroundConsumerChan(gctx, localBus.Subscribe(256), consumer)
	}

	g.Go(func() error {
		consumer.Start(gctx)
		return nil
	})

	// --------------- Servicio --------------
	service := skiApp.NewDashboardService(source, sessions, cacheInstance, bus, log, skiApp.Options{
		PageSize:     cfg.PageSize,
		LoadAttempts: cfg.LoadAttempts,
		RetryDelay:   cfg.LoadRetryDelay,
		ViewCacheTTL: cfg.ViewCacheTTL,
	})

	// La carga corre en paralelo al servidor; un fallo queda expuesto como status "failed".
	g.Go(func() error {
		if err := service.Load(gctx); err != nil {
			log.Error("❌ Dataset load failed", zap.String("source", cfg.DatasetSource), zap.Error(err))
		}
		return nil
	})

	// ---------------- HTTP ----------------
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpserver.NewRouter(log)
	skiHttp.RegisterDashboardRoutes(router, skiHttp.NewDashboardHandler(service, localBus, log))

	srv := httpserver.New(":"+cfg.HTTPPort, router, cfg.RateLimitPerMinute)
	g.Go(func() error {
		return httpserver.Run(gctx, srv, log)
	})

	return g.Wait()
}
