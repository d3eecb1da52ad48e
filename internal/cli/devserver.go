package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/skshohagmiah/flinbase/internal/devserver"
	"github.com/skshohagmiah/flinbase/internal/logger"
)

// DevserverOptions holds flags for the devserver command
type DevserverOptions struct {
	*RootOptions
	Addr string
}

// NewDevserverCommand creates the devserver command
func NewDevserverCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DevserverOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Start a local stand-in backend",
		Long: `Start a backend that records every query it receives and answers with
a canned response. Recorded requests are listed at GET /_requests.

Examples:
  flin devserver --addr :8080
  flin query users --url http://localhost:8080 --limit 5`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevserver(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Addr, "addr", "a", ":8080", "listen address")

	return cmd
}

func runDevserver(cmd *cobra.Command, opts *DevserverOptions) error {
	level := "info"
	if opts.Verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, Format: "text"}, os.Stderr)

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	if err := devserver.New(log).ListenAndServe(ctx, opts.Addr); err != nil {
		return WrapExitError(ExitCommandError, "devserver failed", err)
	}
	return nil
}
