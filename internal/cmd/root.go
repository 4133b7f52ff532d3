package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stateful/slidedeck/internal/log"
)

var (
	fChdir string
	fDebug bool
)

func Root() *cobra.Command {
	cmd := cobra.Command{
		Use:           "deck",
		Short:         "Build slide decks from Markdown streams",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if fDebug {
				log.Set(zap.DebugLevel)
			}
			if fChdir != "" && fChdir != "." {
				return errors.Wrap(os.Chdir(fChdir), "failed to change working directory")
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Flush()
		},
	}

	pflags := cmd.PersistentFlags()

	pflags.StringVar(&fChdir, "chdir", ".", "Switch to a different working directory before executing the command.")
	pflags.BoolVar(&fDebug, "debug", false, "Write debug logs to stderr.")

	cmd.AddCommand(ingestCmd())
	cmd.AddCommand(exportCmd())
	cmd.AddCommand(themesCmd())

	return &cmd
}
