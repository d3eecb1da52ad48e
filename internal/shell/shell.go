package shell

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/skshohagmiah/flinbase/pkg/flin"
)

// Command is one parsed shell line: ".sort name asc" has Name "sort",
// Args ["name", "asc"] and Rest "name asc".
type Command struct {
	Name string
	Args []string
	Rest string
}

// ErrNotCommand is returned for lines not starting with "."
var ErrNotCommand = errors.New("commands start with '.'; try .help")

// ParseCommand splits a shell line into a command
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, ".") || len(line) == 1 {
		return Command{}, ErrNotCommand
	}
	name, rest, _ := strings.Cut(line[1:], " ")
	rest = strings.TrimSpace(rest)
	return Command{
		Name: strings.ToLower(name),
		Args: strings.Fields(rest),
		Rest: rest,
	}, nil
}

type command struct {
	name  string
	usage string
	help  string
	run   func(s *Shell, ctx context.Context, c Command) error
}

var commands []command

func init() {
	commands = []command{
		{"model", "<name>", "start a new query on a model", (*Shell).cmdModel},
		{"filter", "<expression>", "set the filter expression", (*Shell).cmdFilter},
		{"lookup", "<field>", "join the model referenced by field", (*Shell).cmdLookup},
		{"sort", "<field> <asc|desc>", "append a sort entry", (*Shell).cmdSort},
		{"limit", "<n>", "set the page size", (*Shell).cmdLimit},
		{"page", "<n>", "set the page number", (*Shell).cmdPage},
		{"omit", "<fields...>", "exclude fields from results", (*Shell).cmdOmit},
		{"group", "<expr|f1,f2>", "group by an expression or fields", (*Shell).cmdGroup},
		{"show", "", "print the current query", (*Shell).cmdShow},
		{"reset", "", "clear the query and any error", (*Shell).cmdReset},
		{"get", "[count]", "fetch matching records", (*Shell).cmdGet},
		{"single", "", "fetch the first matching record", (*Shell).cmdSingle},
		{"random", "<n>", "fetch n random matching records", (*Shell).cmdRandom},
		{"delete", "", "delete matching records (filter required)", (*Shell).cmdDelete},
		{"search", "<text...>", "full-text search", (*Shell).cmdSearch},
		{"help", "", "show this help", (*Shell).cmdHelp},
		{"exit", "", "leave the shell", nil},
	}
}

// Shell drives one query builder from line commands. Modifiers persist
// between terminal commands until .reset or .model.
type Shell struct {
	db  *flin.Database
	qb  *flin.QueryBuilder
	out io.Writer
}

// New creates a shell on db writing results to out
func New(db *flin.Database, out io.Writer) *Shell {
	return &Shell{db: db, out: out}
}

// Run reads commands until .exit, end of input or Ctrl-C. Command errors
// are printed and do not stop the loop.
func (s *Shell) Run(ctx context.Context, r *Reader) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := r.ReadLine(s.prompt())
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return nil
		}
		if err != nil {
			return err
		}

		stop, err := s.Exec(ctx, line)
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
		if stop {
			return nil
		}
	}
}

// Exec runs a single line. stop is true after .exit.
func (s *Shell) Exec(ctx context.Context, line string) (stop bool, err error) {
	c, err := ParseCommand(line)
	if err != nil {
		return false, err
	}
	if c.Name == "exit" || c.Name == "quit" {
		return true, nil
	}
	for _, cmd := range commands {
		if cmd.name == c.Name && cmd.run != nil {
			return false, cmd.run(s, ctx, c)
		}
	}
	return false, fmt.Errorf("unknown command .%s; try .help", c.Name)
}

func (s *Shell) prompt() string {
	if s.qb == nil {
		return "flin> "
	}
	return "flin:" + s.qb.Model() + "> "
}

func (s *Shell) builder() (*flin.QueryBuilder, error) {
	if s.qb == nil {
		return nil, errors.New("no model selected; use .model <name>")
	}
	return s.qb, nil
}

// modify applies a modifier and reports the error it recorded, if any
func (s *Shell) modify(apply func(qb *flin.QueryBuilder)) error {
	qb, err := s.builder()
	if err != nil {
		return err
	}
	before := qb.Err()
	apply(qb)
	if err := qb.Err(); err != nil && before == nil {
		return fmt.Errorf("%w (use .reset to clear)", err)
	}
	return nil
}

func (s *Shell) cmdModel(ctx context.Context, c Command) error {
	if len(c.Args) != 1 {
		return errors.New("usage: .model <name>")
	}
	s.qb = s.db.Model(c.Args[0])
	return s.qb.Err()
}

func (s *Shell) cmdFilter(ctx context.Context, c Command) error {
	return s.modify(func(qb *flin.QueryBuilder) { qb.Filter(c.Rest) })
}

func (s *Shell) cmdLookup(ctx context.Context, c Command) error {
	if len(c.Args) != 1 {
		return errors.New("usage: .lookup <field>")
	}
	return s.modify(func(qb *flin.QueryBuilder) { qb.Lookup(flin.FieldLookup(c.Args[0])) })
}

func (s *Shell) cmdSort(ctx context.Context, c Command) error {
	if len(c.Args) != 2 {
		return errors.New("usage: .sort <field> <asc|desc>")
	}
	return s.modify(func(qb *flin.QueryBuilder) { qb.Sort(c.Args[0], c.Args[1]) })
}

func (s *Shell) cmdLimit(ctx context.Context, c Command) error {
	n, err := intArg(c, "limit")
	if err != nil {
		return err
	}
	return s.modify(func(qb *flin.QueryBuilder) { qb.Limit(n) })
}

func (s *Shell) cmdPage(ctx context.Context, c Command) error {
	n, err := intArg(c, "page")
	if err != nil {
		return err
	}
	return s.modify(func(qb *flin.QueryBuilder) { qb.Page(n) })
}

func (s *Shell) cmdOmit(ctx context.Context, c Command) error {
	return s.modify(func(qb *flin.QueryBuilder) { qb.Omit(c.Args...) })
}

func (s *Shell) cmdGroup(ctx context.Context, c Command) error {
	if c.Rest == "" {
		return errors.New("usage: .group <expr|f1,f2>")
	}
	var spec flin.GroupSpec = flin.GroupExpr(c.Rest)
	if strings.Contains(c.Rest, ",") {
		var fields flin.GroupFields
		for _, f := range strings.Split(c.Rest, ",") {
			fields = append(fields, strings.TrimSpace(f))
		}
		spec = fields
	}
	return s.modify(func(qb *flin.QueryBuilder) { qb.Group(spec) })
}

func (s *Shell) cmdShow(ctx context.Context, c Command) error {
	qb, err := s.builder()
	if err != nil {
		return err
	}
	if err := s.print(map[string]interface{}{
		"model": qb.Model(),
		"query": qb.Descriptor(),
	}); err != nil {
		return err
	}
	if err := qb.Err(); err != nil {
		fmt.Fprintf(s.out, "pending error: %v\n", err)
	}
	return nil
}

func (s *Shell) cmdReset(ctx context.Context, c Command) error {
	qb, err := s.builder()
	if err != nil {
		return err
	}
	qb.Reset()
	return nil
}

func (s *Shell) cmdGet(ctx context.Context, c Command) error {
	qb, err := s.builder()
	if err != nil {
		return err
	}
	countInfo := len(c.Args) > 0 && c.Args[0] == "count"
	res, err := qb.Get(ctx, countInfo)
	if err != nil {
		return err
	}
	return s.print(res)
}

func (s *Shell) cmdSingle(ctx context.Context, c Command) error {
	qb, err := s.builder()
	if err != nil {
		return err
	}
	res, err := qb.GetSingle(ctx)
	if err != nil {
		return err
	}
	return s.print(res)
}

func (s *Shell) cmdRandom(ctx context.Context, c Command) error {
	qb, err := s.builder()
	if err != nil {
		return err
	}
	n, err := intArg(c, "random")
	if err != nil {
		return err
	}
	res, err := qb.GetRandom(ctx, n)
	if err != nil {
		return err
	}
	return s.print(res)
}

func (s *Shell) cmdDelete(ctx context.Context, c Command) error {
	qb, err := s.builder()
	if err != nil {
		return err
	}
	res, err := qb.Delete(ctx)
	if err != nil {
		return err
	}
	if res.Errors != nil {
		return s.print(flin.Result{Errors: res.Errors})
	}
	return s.print(map[string]interface{}{"deleted": res.Info})
}

func (s *Shell) cmdSearch(ctx context.Context, c Command) error {
	qb, err := s.builder()
	if err != nil {
		return err
	}
	res, err := qb.SearchText(ctx, c.Rest, false)
	if err != nil {
		return err
	}
	return s.print(res)
}

func (s *Shell) cmdHelp(ctx context.Context, c Command) error {
	for _, cmd := range commands {
		fmt.Fprintf(s.out, "  .%-8s %-20s %s\n", cmd.name, cmd.usage, cmd.help)
	}
	return nil
}

func (s *Shell) print(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, string(data))
	return nil
}

func intArg(c Command, name string) (int, error) {
	if len(c.Args) != 1 {
		return 0, fmt.Errorf("usage: .%s <n>", name)
	}
	n, err := strconv.Atoi(c.Args[0])
	if err != nil {
		return 0, fmt.Errorf(".%s: %q is not an integer", name, c.Args[0])
	}
	return n, nil
}
