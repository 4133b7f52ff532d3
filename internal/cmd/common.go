package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/muesli/cancelreader"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stateful/slidedeck/internal/config"
	"github.com/stateful/slidedeck/internal/config/autoconfig"
	"github.com/stateful/slidedeck/internal/log"
)

const stdinName = "-"

// newBuilder returns a builder whose configuration includes the deck.yaml
// files found between the working directory and the input file.
func newBuilder(input string) (*autoconfig.Builder, error) {
	builder := autoconfig.NewBuilder()

	if fDebug {
		err := builder.Decorate(func(*zap.Logger) *zap.Logger { return log.Get() })
		if err != nil {
			return nil, errors.WithStack(err)
		}
	}

	if name, ok := projectPath(input); ok {
		err := builder.Decorate(func(c *config.Config, loader *config.Loader) (*config.Config, error) {
			return loader.Load(c, name)
		})
		if err != nil {
			return nil, errors.WithStack(err)
		}
	}

	return builder, nil
}

// projectPath returns input relative to the working directory if it is
// a file inside of it.
func projectPath(input string) (string, bool) {
	if input == "" || input == stdinName {
		return "", false
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	abs, err := filepath.Abs(input)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(cwd, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// openInput opens the named file. Stdin is wrapped so that reading
// can be interrupted, unless it is redirected from a regular file which
// never blocks and cannot be polled.
func openInput(cmd *cobra.Command, name string) (io.ReadCloser, error) {
	if name == "" || name == stdinName {
		if f, ok := cmd.InOrStdin().(*os.File); ok {
			if info, err := f.Stat(); err == nil && info.Mode().IsRegular() {
				return io.NopCloser(f), nil
			}
			if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Reading Markdown from stdin, press Ctrl+D to finish.")
			}
		}

		r, err := cancelreader.NewReader(cmd.InOrStdin())
		return r, errors.Wrap(err, "failed to allocate stdin")
	}

	f, err := os.Open(name)
	return f, errors.WithStack(err)
}

func inputArg(args []string) string {
	if len(args) == 0 {
		return stdinName
	}
	return args[0]
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
