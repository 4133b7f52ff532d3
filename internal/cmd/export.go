package cmd

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/stateful/slidedeck/internal/config"
	"github.com/stateful/slidedeck/internal/export"
	"github.com/stateful/slidedeck/internal/ingest"
	"github.com/stateful/slidedeck/internal/reconcile"
	"github.com/stateful/slidedeck/internal/store"
)

func exportCmd() *cobra.Command {
	var (
		format  formatValue = export.FormatMarkdown
		themeID string
		output  string
		snap    bool
	)

	cmd := cobra.Command{
		Use:   "export [file]",
		Short: "Convert Markdown into an exported deck.",
		Long: "Export ingests Markdown from a file or stdin and writes the resulting deck " +
			"in the selected format. Unknown themes fall back to the default theme.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := inputArg(args)

			builder, err := newBuilder(input)
			if err != nil {
				return err
			}

			return builder.Invoke(func(
				c *config.Config,
				in *ingest.Ingester,
				s *store.Store,
				svc *export.Service,
				r *reconcile.Reconciler,
				logger *zap.Logger,
			) error {
				if snap {
					svc = export.NewService(
						s,
						export.WithReconciler(r),
						export.WithFilters(c.Export.Filters...),
						export.WithLogger(logger),
					)
				}

				src, err := openInput(cmd, input)
				if err != nil {
					return err
				}
				defer func() { _ = src.Close() }()

				ctx, cancel := signalContext(cmd)
				defer cancel()

				if _, err := in.Ingest(ctx, src); err != nil {
					return err
				}

				write := func(w io.Writer) error {
					return svc.Export(ctx, w, format.String(), themeID)
				}

				if output == "" {
					return write(cmd.OutOrStdout())
				}

				f, err := os.Create(output)
				if err != nil {
					return errors.WithStack(err)
				}
				return writeAndClose(f, write)
			})
		},
	}

	cmd.Flags().Var(&format, "format", "Output format, json or markdown.")
	cmd.Flags().StringVar(&themeID, "theme", "", "Theme to export with. Defaults to the document theme.")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout.")
	cmd.Flags().BoolVar(&snap, "snap", false, "Snap block geometry to the pixel grid before exporting.")

	return &cmd
}

// writeAndClose runs write against wc and closes it. A failed close is
// reported since buffered data may not have reached the file.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) (err error) {
	defer func() {
		err = multierr.Append(err, errors.WithStack(wc.Close()))
	}()
	return write(wc)
}

// formatValue accepts the built-in export formats.
type formatValue string

var _ pflag.Value = (*formatValue)(nil)

func (f *formatValue) String() string { return string(*f) }

func (f *formatValue) Set(v string) error {
	if v != export.FormatJSON && v != export.FormatMarkdown {
		return errors.Wrapf(export.ErrUnknownFormat, "format %q", v)
	}
	*f = formatValue(v)
	return nil
}

func (*formatValue) Type() string { return "format" }
