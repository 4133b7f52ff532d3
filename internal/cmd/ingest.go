package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stateful/slidedeck/internal/document"
	"github.com/stateful/slidedeck/internal/ingest"
	"github.com/stateful/slidedeck/internal/store"
)

func ingestCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "ingest [file]",
		Short: "Stream Markdown into slides.",
		Long: "Ingest reads Markdown from a file or stdin and prints every slide " +
			"as soon as it is committed to the document.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := inputArg(args)

			builder, err := newBuilder(input)
			if err != nil {
				return err
			}

			return builder.Invoke(func(in *ingest.Ingester, s *store.Store, logger *zap.Logger) error {
				r, err := openInput(cmd, input)
				if err != nil {
					return err
				}
				defer func() { _ = r.Close() }()

				printed := 0
				unsubscribe := s.Subscribe(func(doc document.Document) {
					for ; printed < len(doc.Slides); printed++ {
						printSlide(cmd, printed, doc.Slides[printed])
					}
				})
				defer unsubscribe()

				ctx, cancel := signalContext(cmd)
				defer cancel()

				result, err := in.Ingest(ctx, r)
				logger.Debug("ingest finished", zap.Int("slides", result.Slides), zap.Error(err))
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.ErrOrStderr(), "ingested %d slides from %d bytes\n", result.Slides, result.Bytes)
				return err
			})
		},
	}

	return &cmd
}

func printSlide(cmd *cobra.Command, idx int, s document.Slide) {
	title := s.Title
	if title == "" {
		title = "(untitled)"
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%d\n", idx+1, title, len(s.Content))
}
