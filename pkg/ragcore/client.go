package ragcore

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/app"
	"github.com/kailas-cloud/ragcore/internal/config"
	"github.com/kailas-cloud/ragcore/internal/domain/answer"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
	askuc "github.com/kailas-cloud/ragcore/internal/usecase/ask"
	documentuc "github.com/kailas-cloud/ragcore/internal/usecase/document"
)

var errUnhealthy = errors.New("database unreachable")

// Internal interfaces, replaced in tests.
type askUseCase interface {
	Ask(ctx context.Context, req askuc.Request) (answer.Answer, error)
}

type documentUseCase interface {
	Register(ctx context.Context, req documentuc.RegisterRequest) (domdoc.Document, error)
	Get(ctx context.Context, projectID, id string) (domdoc.Document, error)
	List(ctx context.Context, projectID string) ([]domdoc.Document, error)
	Ingest(ctx context.Context, projectID, id string) error
}

// Client is the ragcore SDK entry point.
type Client struct {
	askSvc    askUseCase
	docSvc    documentUseCase
	healthSvc healthUseCase
	obs       *observer

	stop    func(ctx context.Context) error
	release func()
}

// New connects to storage, wires the pipeline and starts the ingestion workers.
// The provided context bounds the initial connection only.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cc := &clientConfig{}
	for _, o := range opts {
		o.apply(cc)
	}
	if cc.driver == "" {
		return nil, errors.New("ragcore: storage required (use WithValkey, WithRedis or WithPostgres)")
	}
	if cc.apiKey == "" {
		return nil, errors.New("ragcore: provider API key required (use WithOpenAI)")
	}
	cfg := cc.toConfig()
	if err := validate(cfg); err != nil {
		return nil, err
	}

	logger := cc.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	obs, err := newObserver(cc.logger, cc.metricsReg)
	if err != nil {
		return nil, err
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("ragcore: %w", err)
	}

	// Workers outlive ctx; Close stops them.
	workers, cancel := context.WithCancel(context.Background())
	a.Queue.Start(workers)

	return &Client{
		askSvc:    a.Ask,
		docSvc:    a.Registry,
		healthSvc: a.Health,
		obs:       obs,
		stop: func(ctx context.Context) error {
			defer cancel()
			return a.Queue.Stop(ctx)
		},
		release: a.Close,
	}, nil
}

func validate(cfg config.Config) error {
	t := cfg.RAG.Threshold()
	if t < -1 || t > 1 {
		return fmt.Errorf("ragcore: relevance threshold must be within [-1, 1], got %v", t)
	}
	if cfg.RAG.TopK > cfg.RAG.MaxTopK {
		return fmt.Errorf("ragcore: top k must not exceed %d, got %d", cfg.RAG.MaxTopK, cfg.RAG.TopK)
	}
	return nil
}

// Close drains queued ingestion jobs and releases storage connections.
// When ctx expires first, in-flight jobs are cancelled and ctx.Err() is returned.
func (c *Client) Close(ctx context.Context) error {
	var err error
	if c.stop != nil {
		err = c.stop(ctx)
	}
	if c.release != nil {
		c.release()
	}
	return err
}

// Project returns the operations scoped to one project.
func (c *Client) Project(id string) *ProjectService {
	return &ProjectService{
		projectID: id,
		askSvc:    c.askSvc,
		docSvc:    c.docSvc,
		obs:       c.obs,
	}
}
