package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/ragcore/internal/domain/answer"
	askuc "github.com/kailas-cloud/ragcore/internal/usecase/ask"
)

type askOptions struct {
	Project string `flag:"project" validate:"required"`
	TopK    int    `flag:"top-k" validate:"gte=0,lte=100"`
	JSON    bool
}

func newAskCmd(open opener, flags *globalFlags) *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question from a project's documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := check(opts); err != nil {
				return err
			}
			return withServices(cmd, open, flags, func(svc services) error {
				res, err := svc.Ask(cmd.Context(), askuc.Request{
					ProjectID: opts.Project,
					Question:  strings.Join(args, " "),
					TopK:      opts.TopK,
				})
				if err != nil {
					return err
				}
				if opts.JSON {
					return printJSON(cmd, res)
				}
				printAnswer(cmd, res)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&opts.Project, "project", "p", "", "project ID")
	cmd.Flags().IntVarP(&opts.TopK, "top-k", "k", 0, "number of chunks to retrieve (default: configured)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "output the answer as JSON")
	return cmd
}

func printAnswer(cmd *cobra.Command, res answer.Answer) {
	cmd.Println(res.Text)
	if res.Outcome != answer.Answered {
		return
	}
	cmd.Println()
	cmd.Printf("Confidence: %.1f%%\n", res.Confidence)
	if len(res.Citations) == 0 {
		return
	}
	cmd.Println("Sources:")
	for i, c := range res.Citations {
		cmd.Printf("  [%d] %s #%d (%.3f) %s\n", i+1, c.DocumentName, c.ChunkIndex, c.Similarity, c.Snippet)
	}
}
