package command

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/recofeed-go/internal/cli/output"
	"github.com/yndnr/recofeed-go/internal/config"
	"github.com/yndnr/recofeed-go/internal/infra/buildinfo"
	"github.com/yndnr/recofeed-go/internal/infra/confloader"
	"github.com/yndnr/recofeed-go/internal/telemetry/logger"
)

const stateKey = "recofeed.state"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "recofeed",
		Usage:   "Browse recommendation feeds with cached snapshots",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			FeedCommand(),
			SnapshotCommand(),
			RateCommand(),
			UnrateCommand(),
			SetCategoryCommand(),
			MarkUnreadCommand(),
			BrowseCommand(),
			ServeCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		Before: func(c *cli.Context) error {
			flags := ParseGlobalFlags(c)
			if _, err := output.ParseFormat(flags.Output); err != nil {
				return err
			}
			if c.App.Metadata == nil {
				c.App.Metadata = make(map[string]any)
			}
			c.App.Metadata[stateKey] = &appState{flags: flags}
			return nil
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Configuration file (YAML)",
			EnvVars: []string{"RECOFEED_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "base-url",
			Usage: "Recommender API base URL (overrides remote.base_url)",
		},
		&cli.StringFlag{
			Name:  "engine",
			Usage: "Snapshot storage engine: badger, sqlite, memory (overrides storage.engine)",
		},
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "Snapshot storage directory (overrides storage.data_dir)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Config  string
	BaseURL string
	Engine  string
	DataDir string

	// Output format
	Output string // table, json, yaml
	Wide   bool

	Verbose bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Config:  c.String("config"),
		BaseURL: c.String("base-url"),
		Engine:  c.String("engine"),
		DataDir: c.String("data-dir"),
		Output:  c.String("output"),
		Wide:    c.Bool("wide"),
		Verbose: c.Bool("verbose"),
	}
}

// Overrides maps the flags onto configuration keys. Empty flags are
// dropped by the loader.
func (f *GlobalFlags) Overrides() map[string]any {
	m := map[string]any{
		"remote.base_url":  f.BaseURL,
		"storage.engine":   f.Engine,
		"storage.data_dir": f.DataDir,
	}
	if f.Verbose {
		m["log.level"] = "debug"
	}
	return m
}

type appState struct {
	flags  *GlobalFlags
	cfg    *config.Config
	loader *confloader.Loader
	log    logger.Logger
}

func state(c *cli.Context) *appState {
	if s, ok := c.App.Metadata[stateKey].(*appState); ok {
		return s
	}
	s := &appState{flags: ParseGlobalFlags(c)}
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[stateKey] = s
	return s
}

// loadConfig loads and verifies the configuration once per invocation and
// installs the configured logger as the default.
func loadConfig(c *cli.Context) (*config.Config, *confloader.Loader, logger.Logger, error) {
	s := state(c)
	if s.cfg != nil {
		return s.cfg, s.loader, s.log, nil
	}

	cfg, l, err := config.Load(s.flags.Config, s.flags.Overrides())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: errWriter(c),
	})
	if err != nil {
		return nil, nil, nil, err
	}
	logger.SetDefault(log)

	s.cfg, s.loader, s.log = cfg, l, log
	return cfg, l, log, nil
}

// render writes data in the format selected by --output.
func render(c *cli.Context, data any) error {
	flags := state(c).flags
	format, err := output.ParseFormat(flags.Output)
	if err != nil {
		return err
	}
	return output.NewFormatter(format, flags.Wide).Format(writer(c), data)
}

func writer(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

func errWriter(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
