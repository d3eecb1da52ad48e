package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skshohagmiah/flinbase/pkg/flin"
)

// ObjectOptions holds flags for the object command
type ObjectOptions struct {
	*RootOptions
	Op     string
	Lookup []string
	Cache  int
}

// NewObjectCommand creates the object command
func NewObjectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ObjectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "object <model> <id>",
		Short: "Fetch or delete a single object by id",
		Long: `Address one object of a model by its id.

Examples:
  flin object users u1
  flin object users u1 --lookup profile --lookup orders
  flin object users u1 --cache 60
  flin object users u1 --op delete`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runObject(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.Op, "op", flin.OpGet, "operation: get|delete")
	cmd.Flags().StringArrayVar(&opts.Lookup, "lookup", nil, "field to join (repeatable)")
	cmd.Flags().IntVar(&opts.Cache, "cache", 0, "cache the response for this many seconds")

	return cmd
}

func runObject(cmd *cobra.Command, opts *ObjectOptions, model, id string) error {
	if opts.Op != flin.OpGet && opts.Op != flin.OpDelete {
		return WrapExitError(ExitCommandError, "invalid --op", fmt.Errorf("%q is not one of get|delete", opts.Op))
	}

	c, err := opts.connect()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	obj := c.db.Object(model, id)
	p := &printer{format: opts.Format, w: cmd.OutOrStdout()}

	if opts.Op == flin.OpDelete {
		res, err := obj.Delete(ctx)
		if err != nil {
			return err
		}
		if c.recorder != nil {
			return p.Calls(c.recorder.Calls())
		}
		return p.Delete(res)
	}

	var lookups flin.Lookups
	for _, l := range opts.Lookup {
		lookups = append(lookups, flin.FieldLookup(l))
	}
	options := flin.DefaultObjectOptions()
	if opts.Cache > 0 {
		options[flin.OptionCache] = opts.Cache
	}
	res, err := obj.Get(ctx, lookups, options)
	if err != nil {
		return err
	}
	if c.recorder != nil {
		return p.Calls(c.recorder.Calls())
	}
	return p.Result(res)
}
