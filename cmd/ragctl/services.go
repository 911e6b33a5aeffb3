package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/app"
	"github.com/kailas-cloud/ragcore/internal/config"
	"github.com/kailas-cloud/ragcore/internal/domain/answer"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
	logpkg "github.com/kailas-cloud/ragcore/internal/logger"
	askuc "github.com/kailas-cloud/ragcore/internal/usecase/ask"
	documentuc "github.com/kailas-cloud/ragcore/internal/usecase/document"
)

// services is what the commands need from the assembled application.
type services interface {
	Register(ctx context.Context, req documentuc.RegisterRequest) (domdoc.Document, error)
	Get(ctx context.Context, projectID, id string) (domdoc.Document, error)
	List(ctx context.Context, projectID string) ([]domdoc.Document, error)
	Ask(ctx context.Context, req askuc.Request) (answer.Answer, error)
	// Drain waits until every enqueued ingestion has finished.
	Drain(ctx context.Context) error
	Close()
}

// opener builds services from the global flags.
type opener func(ctx context.Context, flags *globalFlags) (services, error)

type appServices struct {
	app    *app.App
	logger *zap.Logger
}

func openApp(ctx context.Context, flags *globalFlags) (services, error) {
	var (
		cfg config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.LoadFile(flags.configPath)
	} else {
		cfg, err = config.Load(flags.env)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := "warn"
	if flags.verbose {
		level = "debug"
	}
	logger, err := logpkg.NewLogger(flags.env, level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build application: %w", err)
	}
	a.Queue.Start(ctx)
	return &appServices{app: a, logger: logger}, nil
}

func (s *appServices) Register(ctx context.Context, req documentuc.RegisterRequest) (domdoc.Document, error) {
	return s.app.Registry.Register(ctx, req)
}

func (s *appServices) Get(ctx context.Context, projectID, id string) (domdoc.Document, error) {
	return s.app.Registry.Get(ctx, projectID, id)
}

func (s *appServices) List(ctx context.Context, projectID string) ([]domdoc.Document, error) {
	return s.app.Registry.List(ctx, projectID)
}

func (s *appServices) Ask(ctx context.Context, req askuc.Request) (answer.Answer, error) {
	return s.app.Ask.Ask(ctx, req)
}

func (s *appServices) Drain(ctx context.Context) error {
	return s.app.Queue.Stop(ctx)
}

func (s *appServices) Close() {
	_ = s.app.Queue.Stop(context.Background())
	s.app.Close()
	_ = s.logger.Sync()
}

// withServices opens the application for the duration of one command.
func withServices(cmd *cobra.Command, open opener, flags *globalFlags, fn func(services) error) error {
	svc, err := open(cmd.Context(), flags)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(svc)
}
