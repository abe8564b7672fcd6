package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/resume-insight/internal/config"
	"github.com/kirillkom/resume-insight/internal/core/domain"
	"github.com/kirillkom/resume-insight/internal/core/ports"
	"github.com/kirillkom/resume-insight/internal/core/usecase"
	"github.com/kirillkom/resume-insight/internal/infrastructure/llm/gateway"
	natsqueue "github.com/kirillkom/resume-insight/internal/infrastructure/queue/nats"
	"github.com/kirillkom/resume-insight/internal/infrastructure/raster/pdfpreview"
	"github.com/kirillkom/resume-insight/internal/infrastructure/record/postgres"
	"github.com/kirillkom/resume-insight/internal/infrastructure/record/redis"
	"github.com/kirillkom/resume-insight/internal/infrastructure/resilience"
	"github.com/kirillkom/resume-insight/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/resume-insight/internal/observability/metrics"
)

type App struct {
	Config    config.Config
	Providers []string

	Queue   *natsqueue.Queue
	Records ports.RecordStore
	Metrics *metrics.PipelineMetrics

	AnalyzeUC ports.ResumeAnalyzer
	ChatUC    ports.ChatAssistant

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	providers, err := config.LoadProviders(cfg.ProvidersFile)
	if err != nil {
		return nil, fmt.Errorf("load providers: %w", err)
	}

	persistenceExecutor := resilience.NewExecutor(resilience.DefaultConfig())

	records, closeRecords, err := openRecordStore(ctx, cfg, persistenceExecutor)
	if err != nil {
		return nil, err
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		closeRecords()
		return nil, fmt.Errorf("init blob storage: %w", err)
	}

	queue, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSRequestSubject, cfg.NATSCompletedSubject, natsqueue.Options{
		ResilienceExecutor: persistenceExecutor,
	})
	if err != nil {
		closeRecords()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	// The gateway executor keeps the circuit breaker but never retries:
	// moving on after a failure is the resolver's job.
	gatewayExecutor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts: 1,
		BreakerEnabled:   true,
	})
	aiGateway := gateway.New(cfg.GatewayURL, cfg.GatewayAPIKey, gateway.Options{
		RequestTimeout:    time.Duration(cfg.GatewayTimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.GatewayRequestsPerSecond,
		Executor:          gatewayExecutor,
	})

	pipelineMetrics := metrics.NewPipelineMetrics(metricsService)
	observedGateway := &instrumentedGateway{next: aiGateway, observer: pipelineMetrics, service: metricsService}

	analyzeUC := usecase.NewAnalyzeUseCase(storage, pdfpreview.New(), records, observedGateway, queue, usecase.AnalyzeConfig{
		Providers:     providers,
		UploadTimeout: time.Duration(cfg.UploadTimeoutSeconds) * time.Second,
		Status: func(stage domain.Stage, text string) {
			logger.Info("pipeline_status", "stage", string(stage), "text", text)
		},
	})
	chatUC := &instrumentedChat{
		next:     usecase.NewChatUseCase(observedGateway, allowAllGate{}, providers),
		observer: pipelineMetrics,
		service:  metricsService,
	}

	return &App{
		Config:    cfg,
		Providers: providers,
		Queue:     queue,
		Records:   records,
		Metrics:   pipelineMetrics,
		AnalyzeUC: analyzeUC,
		ChatUC:    chatUC,
		closeFn: func() {
			queue.Close()
			closeRecords()
		},
	}, nil
}

func openRecordStore(ctx context.Context, cfg config.Config, executor *resilience.Executor) (ports.RecordStore, func(), error) {
	switch cfg.RecordBackend {
	case "postgres":
		store, err := postgres.New(cfg.PostgresDSN, postgres.Options{Executor: executor})
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres record store: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("ensure record schema: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	case "redis", "":
		store := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redis.Options{Executor: executor})
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("ping redis record store: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown record backend %q", cfg.RecordBackend)
	}
}

// allowAllGate stands in for the session layer, which authenticates
// callers before requests ever reach the worker.
type allowAllGate struct{}

func (allowAllGate) IsAuthenticated(context.Context) bool { return true }

const metricsService = "worker"

type attemptObserver interface {
	ObserveProviderAttempt(service, provider, result string)
}

// instrumentedGateway counts every provider invocation. One Invoke is
// one attempt; the resolver never re-invokes a provider, so attempt
// counts per resolution equal the number of providers tried.
type instrumentedGateway struct {
	next     ports.AIGateway
	observer attemptObserver
	service  string
}

func (g *instrumentedGateway) Invoke(ctx context.Context, req domain.ProviderRequest, opts *domain.InvokeOptions) (*domain.ProviderResponse, error) {
	resp, err := g.next.Invoke(ctx, req, opts)

	provider := "default"
	if opts != nil {
		provider = opts.Model
	}
	result := "success"
	switch {
	case err != nil:
		result = "hard_failure"
	case resp == nil:
		result = "hard_failure"
	case resp.Kind == domain.ResponseSoftFailure:
		result = "soft_failure"
	}
	g.observer.ObserveProviderAttempt(g.service, provider, result)

	return resp, err
}

type turnObserver interface {
	ObserveChatTurn(service, result string)
}

// instrumentedChat counts chat turns. An empty reply means the turn
// was silently rejected; anything else, canned replies included, was
// answered.
type instrumentedChat struct {
	next     ports.ChatAssistant
	observer turnObserver
	service  string
}

func (c *instrumentedChat) Send(ctx context.Context, input string) string {
	reply := c.next.Send(ctx, input)
	result := "answered"
	if reply == "" {
		result = "rejected"
	}
	c.observer.ObserveChatTurn(c.service, result)
	return reply
}

func (c *instrumentedChat) Transcript() []domain.ChatTurn {
	return c.next.Transcript()
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
