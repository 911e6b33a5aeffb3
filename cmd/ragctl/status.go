package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
)

type statusOptions struct {
	Project string `flag:"project" validate:"required"`
	JSON    bool
}

func newStatusCmd(open opener, flags *globalFlags) *cobra.Command {
	opts := &statusOptions{}
	cmd := &cobra.Command{
		Use:   "status [document-id]",
		Short: "Show ingestion status of one or all documents in a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := check(opts); err != nil {
				return err
			}
			return withServices(cmd, open, flags, func(svc services) error {
				return runStatus(cmd, svc, opts, args)
			})
		},
	}
	cmd.Flags().StringVarP(&opts.Project, "project", "p", "", "project ID")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "output as JSON")
	return cmd
}

type documentView struct {
	ID        string         `json:"id"`
	Name      string         `json:"original_name"`
	Status    string         `json:"status"`
	Metadata  map[string]any `json:"metadata"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func viewOf(doc *domdoc.Document) documentView {
	return documentView{
		ID:        doc.ID(),
		Name:      doc.OriginalName(),
		Status:    string(doc.Status()),
		Metadata:  doc.Metadata(),
		UpdatedAt: doc.UpdatedAt(),
	}
}

func runStatus(cmd *cobra.Command, svc services, opts *statusOptions, args []string) error {
	ctx := cmd.Context()
	var docs []domdoc.Document
	if len(args) == 1 {
		doc, err := svc.Get(ctx, opts.Project, args[0])
		if err != nil {
			return err
		}
		docs = []domdoc.Document{doc}
	} else {
		list, err := svc.List(ctx, opts.Project)
		if err != nil {
			return err
		}
		docs = list
	}

	if opts.JSON {
		views := make([]documentView, len(docs))
		for i := range docs {
			views[i] = viewOf(&docs[i])
		}
		return printJSON(cmd, views)
	}
	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}
	for i := range docs {
		printDocumentLine(cmd, &docs[i])
	}
	return nil
}

func printDocumentLine(cmd *cobra.Command, doc *domdoc.Document) {
	md := doc.Metadata()
	line := fmt.Sprintf("%s  %-10s  %s", doc.ID(), doc.Status(), doc.OriginalName())
	switch doc.Status() {
	case domdoc.StatusCompleted:
		line += fmt.Sprintf("  chunks=%v tokens=%v", md[domdoc.MetaChunkCount], md[domdoc.MetaTotalTokens])
	case domdoc.StatusFailed:
		line += fmt.Sprintf("  error=%q", md[domdoc.MetaError])
	}
	cmd.Println(line)
}
