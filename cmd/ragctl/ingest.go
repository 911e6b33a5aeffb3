package main

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/ragcore/internal/domain"
	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
	documentuc "github.com/kailas-cloud/ragcore/internal/usecase/document"
)

type ingestOptions struct {
	Project string        `flag:"project" validate:"required"`
	Tenant  string        `flag:"tenant" validate:"omitempty,max=128"`
	Mime    string        `flag:"mime" validate:"omitempty,max=127"`
	Timeout time.Duration `flag:"timeout" validate:"gte=0"`
}

func newIngestCmd(open opener, flags *globalFlags) *cobra.Command {
	opts := &ingestOptions{}
	cmd := &cobra.Command{
		Use:   "ingest [file...]",
		Short: "Register files and ingest them synchronously",
		Long: `Stores each file in the blob store, registers it as a pending document
and waits until ingestion finishes. The final status of every document is printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := check(opts); err != nil {
				return err
			}
			return withServices(cmd, open, flags, func(svc services) error {
				return runIngest(cmd, svc, opts, args)
			})
		},
	}
	cmd.Flags().StringVarP(&opts.Project, "project", "p", "", "project ID")
	cmd.Flags().StringVar(&opts.Tenant, "tenant", "", "tenant ID")
	cmd.Flags().StringVar(&opts.Mime, "mime", "", "MIME type (default: from file extension)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 10*time.Minute, "maximum time to wait for ingestion")
	return cmd
}

func runIngest(cmd *cobra.Command, svc services, opts *ingestOptions, files []string) error {
	ctx := cmd.Context()
	ids := make([]string, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		mimeType := opts.Mime
		if mimeType == "" {
			mimeType = detectMime(path)
		}
		doc, err := svc.Register(ctx, documentuc.RegisterRequest{
			ProjectID:    opts.Project,
			TenantID:     opts.Tenant,
			OriginalName: filepath.Base(path),
			MimeType:     mimeType,
			Content:      data,
		})
		if err != nil && !errors.Is(err, domain.ErrQueueFull) {
			return fmt.Errorf("register %s: %w", path, err)
		}
		if err != nil {
			cmd.PrintErrf("%s: queue full, left pending as %s\n", path, doc.ID())
		}
		ids = append(ids, doc.ID())
	}

	drainCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		drainCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	if err := svc.Drain(drainCtx); err != nil {
		return fmt.Errorf("wait for ingestion: %w", err)
	}

	var failed int
	for _, id := range ids {
		doc, err := svc.Get(ctx, opts.Project, id)
		if err != nil {
			return fmt.Errorf("read status of %s: %w", id, err)
		}
		printDocumentLine(cmd, &doc)
		if doc.Status() == domdoc.StatusFailed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(ids))
	}
	return nil
}

func detectMime(path string) string {
	switch filepath.Ext(path) {
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt", "":
		return "text/plain"
	}
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}
