package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/skshohagmiah/flinbase/internal/config"
	"github.com/skshohagmiah/flinbase/pkg/fetcher"
	"github.com/skshohagmiah/flinbase/pkg/flin"
)

// ValidFormats lists the accepted --format values
var ValidFormats = []string{"text", "json"}

// RootOptions holds the persistent flags shared by every command
type RootOptions struct {
	URL     string
	DB      string
	APIKey  string
	Config  string
	Format  string
	DryRun  bool
	Verbose bool
}

// NewRootCommand creates the flin command tree
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "flin",
		Short: "Query a flin backend from the command line",
		Long: `flin builds database queries and sends them to a flin backend.

Connection settings come from FLIN_* environment variables, a .env file or
--config; the flags below override them.

Examples:
  flin query users --filter "age > 18" --sort name:asc --limit 50
  flin object users u1 --lookup profile
  flin run queries.yaml
  flin shell`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.URL, "url", "", "backend base URL (overrides FLIN_API_URL)")
	flags.StringVar(&opts.DB, "db", "", "database name (overrides FLIN_DATABASE)")
	flags.StringVar(&opts.APIKey, "api-key", "", "API key (overrides FLIN_API_KEY)")
	flags.StringVarP(&opts.Config, "config", "c", "", "config file (yaml, json or toml)")
	flags.StringVar(&opts.Format, "format", "text", "output format: text or json")
	flags.BoolVar(&opts.DryRun, "dry-run", false, "print requests instead of sending them")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "log requests at debug level")

	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewObjectCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewShellCommand(opts))
	cmd.AddCommand(NewDevserverCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// conn is a connected client plus, in dry-run mode, the recorder standing
// in for the network
type conn struct {
	client   *flin.Client
	db       *flin.Database
	recorder *fetcher.Recorder
}

func (c *conn) Close() error {
	return c.client.Close()
}

// connect loads configuration and applies flag overrides
func (o *RootOptions) connect() (*conn, error) {
	cfg, err := config.LoadClient(o.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.URL != "" {
		cfg.API.URL = o.URL
	}
	if o.DB != "" {
		cfg.Database = o.DB
	}
	if o.APIKey != "" {
		cfg.API.Key = o.APIKey
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}

	clientOpts := flin.OptionsFromConfig(cfg)
	c := &conn{}
	if o.DryRun {
		c.recorder = fetcher.NewRecorder()
		clientOpts.Transport = c.recorder
	}

	client, err := flin.NewClient(clientOpts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create client", err)
	}
	c.client = client
	c.db = client.DB(cfg.Database)
	return c, nil
}
