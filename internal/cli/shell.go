package cli

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/skshohagmiah/flinbase/internal/shell"
)

// NewShellCommand creates the shell command
func NewShellCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive query shell",
		Long: `Build and send queries one line at a time.

Commands start with "."; type .help inside the shell for the list.
When stdin is not a terminal the commands are read from it, one per line.

Examples:
  flin shell
  echo -e ".model users\n.limit 5\n.get" | flin shell`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, rootOpts)
		},
	}
}

func runShell(cmd *cobra.Command, opts *RootOptions) error {
	c, err := opts.connect()
	if err != nil {
		return err
	}
	defer c.Close()

	var r *shell.Reader
	if f, ok := cmd.InOrStdin().(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		r = shell.NewInteractive()
	} else {
		r = shell.NewNonInteractive(cmd.InOrStdin())
	}
	defer r.Close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	sh := shell.New(c.db, cmd.OutOrStdout())
	if err := sh.Run(ctx, r); err != nil {
		return err
	}
	if c.recorder != nil {
		p := &printer{format: opts.Format, w: cmd.OutOrStdout()}
		return p.Calls(c.recorder.Calls())
	}
	return nil
}
