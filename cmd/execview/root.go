package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lk2023060901/execution-console/internal/conf"
	apperrors "github.com/lk2023060901/execution-console/internal/pkg/errors"
	"github.com/lk2023060901/execution-console/internal/pkg/injector"
	"github.com/lk2023060901/execution-console/internal/presentation"
)

// CLI holds the command line state shared by all subcommands
type CLI struct {
	v          *viper.Viper
	configFile string
	noColor    bool

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	config  *conf.Config
	app     *injector.App
	cleanup func()
}

// NewRootCommand creates the root cobra command
func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	cli := &CLI{v: conf.New(), in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "execview",
		Short:         "Inspect model executions from the terminal",
		Long:          "execview signs in to the execution service and renders execution records, conversations and metadata.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cobra.OnFinalize(cli.close)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&cli.configFile, "config", "", "config file (default ~/.execview/config.yaml)")
	flags.String("base-url", "", "execution service base URL")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("storage", "", "token storage backend (file, redis, memory)")
	flags.String("project", "", "project name used for routes")
	flags.BoolVar(&cli.noColor, "no-color", false, "disable colored output")

	_ = cli.v.BindPFlag("api.base_url", flags.Lookup("base-url"))
	_ = cli.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = cli.v.BindPFlag("storage.backend", flags.Lookup("storage"))
	_ = cli.v.BindPFlag("ui.project", flags.Lookup("project"))

	root.AddCommand(
		newSignupCommand(cli),
		newLoginCommand(cli),
		newLogoutCommand(cli),
		newWhoamiCommand(cli),
		newExecutionCommand(cli),
		newRoutesCommand(cli),
		newDevServerCommand(cli),
	)
	return root
}

// loadConfig reads configuration once; flags override file and env values.
func (cli *CLI) loadConfig() (*conf.Config, error) {
	if cli.config != nil {
		return cli.config, nil
	}
	config, err := conf.Load(cli.v, cli.configFile)
	if err != nil {
		return nil, err
	}
	if cli.noColor {
		config.UI.Color = presentation.ColorNever
	}
	cli.config = config
	return config, nil
}

// loadApp builds the application and restores the persisted session.
func (cli *CLI) loadApp(ctx context.Context) (*injector.App, error) {
	if cli.app != nil {
		return cli.app, nil
	}
	config, err := cli.loadConfig()
	if err != nil {
		return nil, err
	}
	app, cleanup, err := injector.InitializeApp(config)
	if err != nil {
		return nil, err
	}
	cli.app, cli.cleanup = app, cleanup

	if err := app.RestoreSession(ctx); err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	return app, nil
}

func (cli *CLI) close() {
	if cli.cleanup != nil {
		cli.cleanup()
		cli.cleanup = nil
	}
}

// renderer builds a page renderer for cli.out from the ui section.
func (cli *CLI) renderer(opts presentation.Options) (*presentation.Renderer, error) {
	config, err := cli.loadConfig()
	if err != nil {
		return nil, err
	}
	opts.Profile = presentation.DetectProfile(cli.out, config.UI.Color)
	opts.Markdown = config.UI.Markdown
	opts.TokenEstimate = opts.TokenEstimate || config.UI.TokenEstimate
	opts.CollapseLines = config.UI.CollapseLines
	opts.Width = config.UI.Width
	if opts.Width <= 0 {
		opts.Width = presentation.TerminalWidth(cli.out)
	}
	return presentation.NewRenderer(cli.out, opts)
}

func (cli *CLI) project(flag string) string {
	if flag != "" {
		return flag
	}
	if config, err := cli.loadConfig(); err == nil {
		return config.UI.Project
	}
	return ""
}

// fail prints the user-facing message for err and returns it.
func (cli *CLI) fail(err error) error {
	fmt.Fprintln(cli.errOut, "Error:", apperrors.UserMessage(err, err.Error()))
	return err
}
