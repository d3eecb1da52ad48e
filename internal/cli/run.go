package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skshohagmiah/flinbase/internal/queryfile"
)

// RunOptions holds flags for the run command
type RunOptions struct {
	*RootOptions
	KeepGoing bool
}

// NewRunCommand creates the run command
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <file.yaml>",
		Short: "Execute the queries of a YAML file",
		Long: `Execute every query document of a YAML file in order.

Documents are separated by "---". Each names a model and an operation
plus the modifiers and arguments that operation needs.

Examples:
  flin run queries.yaml
  flin run queries.yaml --keep-going --format json
  flin run queries.yaml --dry-run`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVarP(&opts.KeepGoing, "keep-going", "k", false, "continue after a query fails")

	return cmd
}

func runFile(cmd *cobra.Command, opts *RunOptions, path string) error {
	docs, err := queryfile.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load queries", err)
	}

	c, err := opts.connect()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	p := &printer{format: opts.Format, w: cmd.OutOrStdout()}
	var failed int
	for i, doc := range docs {
		if opts.Format == "text" {
			fmt.Fprintf(p.w, "# %d: %s %s\n", i+1, doc.Operation, doc.Model)
		}

		out, err := doc.Execute(ctx, c.db)
		if err == nil && c.recorder == nil {
			if out.Delete != nil {
				err = p.Delete(*out.Delete)
			} else {
				err = p.Result(out.Result)
			}
		}
		if err != nil {
			failed++
			if !opts.KeepGoing {
				return fmt.Errorf("query %d: %w", i+1, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "query %d: %v\n", i+1, err)
		}
	}

	if c.recorder != nil {
		if err := p.Calls(c.recorder.Calls()); err != nil {
			return err
		}
	}
	if failed > 0 {
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d of %d queries failed", failed, len(docs))}
	}
	return nil
}
