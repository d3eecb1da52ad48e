package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skshohagmiah/flinbase/pkg/flin"
)

// queryOps are the operations reachable from the query command
var queryOps = []string{
	flin.OpGet,
	flin.OpGetSingle,
	flin.OpGetRandom,
	flin.OpDelete,
	flin.OpSearchText,
	flin.OpSearchFuzzy,
}

// QueryOptions holds flags for the query command
type QueryOptions struct {
	*RootOptions
	Filter    string
	Sort      []string
	Limit     int
	Page      int
	Omit      []string
	Lookup    []string
	Group     string
	Op        string
	Count     int
	Text      string
	Field     string
	CountInfo bool
}

// NewQueryCommand creates the query command
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <model>",
		Short: "Run a read or delete query against a model",
		Long: `Build a query from flags and send it.

The group flag takes an expression, or a comma separated field list.

Examples:
  flin query users --filter "age > 18" --sort name:asc --sort age:desc --limit 50 --page 2
  flin query users --op getRandom --count 3
  flin query users --op searchText --text "ada lovelace" --count-info
  flin query users --op delete --filter "status == 'gone'"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Filter, "filter", "f", "", "filter expression")
	cmd.Flags().StringArrayVarP(&opts.Sort, "sort", "s", nil, "sort entry as field:asc or field:desc (repeatable)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "l", 0, "page size")
	cmd.Flags().IntVarP(&opts.Page, "page", "p", 0, "page number, starting at 1")
	cmd.Flags().StringSliceVar(&opts.Omit, "omit", nil, "fields to exclude (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Lookup, "lookup", nil, "field to join (repeatable)")
	cmd.Flags().StringVarP(&opts.Group, "group", "g", "", "group expression or field list")
	cmd.Flags().StringVar(&opts.Op, "op", flin.OpGet, "operation: "+strings.Join(queryOps, "|"))
	cmd.Flags().IntVar(&opts.Count, "count", 0, "number of records for getRandom")
	cmd.Flags().StringVar(&opts.Text, "text", "", "search text for searchText and searchFuzzy")
	cmd.Flags().StringVar(&opts.Field, "field", "", "field name for searchFuzzy")
	cmd.Flags().BoolVar(&opts.CountInfo, "count-info", false, "ask for count info with get and searchText")

	return cmd
}

func runQuery(cmd *cobra.Command, opts *QueryOptions, model string) error {
	if !slices.Contains(queryOps, opts.Op) {
		return WrapExitError(ExitCommandError, "invalid --op", fmt.Errorf("%q is not one of %s", opts.Op, strings.Join(queryOps, "|")))
	}

	c, err := opts.connect()
	if err != nil {
		return err
	}
	defer c.Close()

	q := c.db.Model(model)
	if err := opts.apply(cmd, q); err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	p := &printer{format: opts.Format, w: cmd.OutOrStdout()}

	if opts.Op == flin.OpDelete {
		res, err := q.Delete(ctx)
		if err != nil {
			return err
		}
		if c.recorder != nil {
			return p.Calls(c.recorder.Calls())
		}
		return p.Delete(res)
	}

	var res flin.Result
	switch opts.Op {
	case flin.OpGet:
		res, err = q.Get(ctx, opts.CountInfo)
	case flin.OpGetSingle:
		res, err = q.GetSingle(ctx)
	case flin.OpGetRandom:
		res, err = q.GetRandom(ctx, opts.Count)
	case flin.OpSearchText:
		res, err = q.SearchText(ctx, opts.Text, opts.CountInfo)
	case flin.OpSearchFuzzy:
		res, err = q.SearchFuzzy(ctx, opts.Field, opts.Text)
	}
	if err != nil {
		return err
	}
	if c.recorder != nil {
		return p.Calls(c.recorder.Calls())
	}
	return p.Result(res)
}

// apply replays the modifier flags onto qb and returns its error
func (o *QueryOptions) apply(cmd *cobra.Command, qb *flin.QueryBuilder) error {
	if o.Filter != "" {
		qb.Filter(o.Filter)
	}
	for _, l := range o.Lookup {
		qb.Lookup(flin.FieldLookup(l))
	}
	for _, s := range o.Sort {
		field, dir, ok := strings.Cut(s, ":")
		if !ok {
			dir = flin.SortAsc
		}
		qb.Sort(field, dir)
	}
	if cmd.Flags().Changed("page") {
		qb.Page(o.Page)
	}
	if cmd.Flags().Changed("limit") {
		qb.Limit(o.Limit)
	}
	if len(o.Omit) > 0 {
		qb.Omit(o.Omit...)
	}
	if o.Group != "" {
		qb.Group(parseGroup(o.Group))
	}
	return qb.Err()
}

// parseGroup reads "a,b" as a field list and anything else as an expression
func parseGroup(s string) flin.GroupSpec {
	if !strings.Contains(s, ",") {
		return flin.GroupExpr(s)
	}
	var fields flin.GroupFields
	for _, f := range strings.Split(s, ",") {
		fields = append(fields, strings.TrimSpace(f))
	}
	return fields
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
