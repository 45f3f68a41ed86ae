package di

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"MarketTiming/internal/domain/models"
	"MarketTiming/internal/domain/repository"
	"MarketTiming/internal/handler/api"
	"MarketTiming/internal/handler/ws"
	internalrepo "MarketTiming/internal/repository"
	"MarketTiming/internal/service/ratelimit"
	"MarketTiming/internal/services/series"
	"MarketTiming/internal/services/signals"
	"MarketTiming/internal/services/valuation"
	"MarketTiming/internal/usecase"
	"MarketTiming/pkg/cache"
	pkgch "MarketTiming/pkg/clickhouse"
	"MarketTiming/pkg/config"
	xhttp "MarketTiming/pkg/http"
	pkgkafka "MarketTiming/pkg/kafka"
	"MarketTiming/pkg/logger"
	"MarketTiming/pkg/metrics"
	"MarketTiming/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(logger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the Prometheus registry shared by the pipeline
// recorder and the HTTP middleware. Go, process and Kafka producer metrics
// stay on the default registry and are served alongside it.
func ProvideRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// ProvideMetrics creates the pipeline metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.New(reg)
}

// ProvideCacheStore creates the raw table cache: in-memory only, or a memory
// layer in front of Redis when Redis is enabled.
func ProvideCacheStore(cfg *config.Config, l *logger.Logger) (cache.Store, func(), error) {
	rc := cfg.Cache.Redis
	if !rc.Enabled {
		mem := cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize),
			cache.WithMemoryCleanup(cfg.Sources.CacheTTL),
		)
		return mem, func() { _ = mem.Close() }, nil
	}

	remote, err := cache.NewRedisCache(
		cache.WithRedisAddr(rc.Host, rc.Port),
		cache.WithRedisAuth(rc.Password, rc.DB),
		cache.WithRedisPool(rc.PoolSize, rc.MinIdleConns),
		cache.WithRedisPrefix(rc.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("redis cache connected", logger.String("host", rc.Host), logger.Int("port", rc.Port))

	layered := cache.NewLayeredCache(remote,
		cache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize),
		cache.WithLayeredMemoryTTL(cfg.Sources.CacheTTL),
	)
	return layered, func() { _ = layered.Close() }, nil
}

// ProvideClickHouseClient connects to ClickHouse when it is enabled as a
// source and returns nil otherwise.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if !cfg.Sources.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithPool(4, 2, 0),
		pkgch.WithReadOnly(true),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideSource builds the loader chain: local files, then ClickHouse when
// enabled, then the remote mirror, all behind the raw table cache.
func ProvideSource(cfg *config.Config, store cache.Store, chClient *pkgch.Client, l *logger.Logger) *internalrepo.CachedSource {
	sc := cfg.Sources
	chain := []repository.Source{
		internalrepo.NewFileSource(sc.DataDirs, sc.Files, sc.Sheet, l),
	}
	if chClient != nil {
		chain = append(chain, internalrepo.NewClickHouseSource(chClient, cfg.ClickHouse.Database, sc.ClickHouse.TablePrefix, sc.ClickHouse.OrderBy))
	}
	if sc.RemoteBaseURL != "" {
		client := xhttp.NewClient(xhttp.WithTimeout(sc.RemoteTimeout), xhttp.WithMaxBodyBytes(sc.RemoteMaxBytes))
		chain = append(chain, internalrepo.NewRemoteSource(client, sc.RemoteBaseURL, sc.Files, sc.Sheet,
			internalrepo.BreakerSettings{MaxFailures: sc.Breaker.MaxFailures, OpenTimeout: sc.Breaker.OpenTimeout}, l))
	}
	return internalrepo.NewCachedSource(internalrepo.NewFallbackSource(chain...), store, sc.CacheTTL, l)
}

// ProvideKafkaProducer creates a Kafka producer when snapshot events are
// enabled and returns nil otherwise.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideSnapshotPublisher publishes snapshot events to Kafka, or nowhere.
func ProvideSnapshotPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SnapshotPublisher {
	if producer == nil {
		return internalrepo.NopPublisher{}
	}
	return internalrepo.NewKafkaSnapshotPublisher(producer, cfg.Kafka.Topic)
}

// ProvideSignalEngine validates the signal rules and builds the engine.
func ProvideSignalEngine(cfg *config.Config) (*signals.Engine, error) {
	e, err := signals.NewEngine(cfg.Signals)
	if err != nil {
		return nil, fmt.Errorf("signal rules: %w", err)
	}
	return e, nil
}

// ProvidePipeline creates the pipeline use case.
func ProvidePipeline(
	cfg *config.Config,
	src repository.Source,
	sig *signals.Engine,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.Pipeline {
	pc := cfg.Pipeline
	return usecase.NewPipeline(usecase.PipelineConfig{
		Series:          cfg.Series,
		Indicators:      pc.Indicators,
		HistorySize:     pc.HistorySize,
		DropWarmup:      pc.DropWarmup,
		BondYield:       series.BondYield{Anchor: pc.BondYield.Anchor, Slope: pc.BondYield.Slope},
		ValuationSource: cfg.Valuation.Source,
		Valuation: valuation.Columns{
			Index:      cfg.Valuation.IndexColumn,
			Date:       cfg.Valuation.DateColumn,
			PE:         cfg.Valuation.PEColumn,
			PB:         cfg.Valuation.PBColumn,
			DivYield:   cfg.Valuation.DivYieldColumn,
			MinHistory: cfg.Valuation.MinHistory,
		},
	}, src, sig, m, l.With(logger.String("component", "pipeline")))
}

// ProvideRefresher creates the scheduled refresher. A manual reload drops
// the raw table cache first.
func ProvideRefresher(
	cfg *config.Config,
	p *usecase.Pipeline,
	pub repository.SnapshotPublisher,
	src *internalrepo.CachedSource,
	l *logger.Logger,
) (*usecase.Refresher, error) {
	r, err := usecase.NewRefresher(p, pub, cfg.Pipeline.Schedule, l.With(logger.String("component", "refresher")))
	if err != nil {
		return nil, err
	}
	return r.WithInvalidator(func(ctx context.Context) error { return src.Invalidate(ctx) }), nil
}

// ProvideHub creates the websocket snapshot hub.
func ProvideHub(l *logger.Logger) *ws.Hub {
	return ws.NewHub(l.With(logger.String("component", "ws")))
}

// ProvideMarketHandler creates the HTTP handler.
func ProvideMarketHandler(cfg *config.Config, l *logger.Logger, r *usecase.Refresher, sig *signals.Engine, hub *ws.Hub) *api.MarketHandler {
	h := api.NewMarketHandler(l, r, sig, hub.Handle)
	if rl := cfg.Server.RefreshLimit; rl.Burst > 0 && rl.Interval > 0 {
		h.WithRefreshLimiter(ratelimit.New(rl.Burst, rl.Interval))
	}
	return h
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, h *api.MarketHandler, reg *prometheus.Registry, l *logger.Logger) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS.Enabled, cfg.Server.CORS.AllowOrigins...),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, reg, prometheus.Gatherers{reg, prometheus.DefaultGatherer}))
	}
	return xhttp.NewServer(h, l.With(logger.String("component", "http")), opts...)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, r *usecase.Refresher, hub *ws.Hub, srv *xhttp.Server, l *logger.Logger) *server.App {
	return server.New(cfg, r, hub, srv, l)
}

// ProvideRunner creates the one-shot runner used by the CLI.
func ProvideRunner(p *usecase.Pipeline, pub repository.SnapshotPublisher) *Runner {
	return &Runner{pipeline: p, publisher: pub}
}

// Runner executes a single pipeline pass outside the service.
type Runner struct {
	pipeline  *usecase.Pipeline
	publisher repository.SnapshotPublisher
}

// Run computes one snapshot and publishes it when a publisher is configured.
func (r *Runner) Run(ctx context.Context) (*models.Snapshot, error) {
	snap, err := r.pipeline.Run(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.publisher.Publish(ctx, snap); err != nil {
		return nil, fmt.Errorf("publish snapshot: %w", err)
	}
	return snap, nil
}

// Close releases the publisher.
func (r *Runner) Close() error { return r.publisher.Close() }
