package main

import (
	"fmt"

	"github.com/spf13/cobra"

	execbiz "github.com/lk2023060901/execution-console/internal/execution/biz"
	apperrors "github.com/lk2023060901/execution-console/internal/pkg/errors"
	"github.com/lk2023060901/execution-console/internal/presentation"
	"github.com/lk2023060901/execution-console/internal/router"
	"github.com/lk2023060901/execution-console/internal/tui"
)

func newExecutionCommand(cli *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "execution",
		Aliases: []string{"exec"},
		Short:   "View and re-run executions",
	}
	cmd.AddCommand(
		newExecutionShowCommand(cli),
		newExecutionViewCommand(cli),
		newExecutionReExecuteCommand(cli),
	)
	return cmd
}

type pageFlags struct {
	project      string
	conversation bool
	expand       bool
	metadata     bool
	blocks       bool
	path         string
	tokens       bool
}

func (f *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.project, "project", "", "project name (default ui.project)")
	cmd.Flags().BoolVarP(&f.conversation, "conversation", "c", false, "expand the conversation")
	cmd.Flags().BoolVarP(&f.expand, "expand", "e", false, "show messages in full")
	cmd.Flags().BoolVarP(&f.metadata, "metadata", "m", false, "expand metadata panels")
	cmd.Flags().BoolVar(&f.blocks, "blocks", false, "render structured message content block by block")
	cmd.Flags().StringVar(&f.path, "path", "", "gjson path applied to metadata panels, e.g. usage.total_tokens")
	cmd.Flags().BoolVar(&f.tokens, "tokens", false, "show a token estimate per message")
}

func (f *pageFlags) options(project string) presentation.Options {
	return presentation.Options{
		Project:          project,
		ShowConversation: f.conversation,
		ExpandMessages:   f.expand,
		ExpandMetadata:   f.metadata,
		BlocksMode:       f.blocks,
		MetadataPath:     f.path,
		TokenEstimate:    f.tokens,
	}
}

func newExecutionShowCommand(cli *CLI) *cobra.Command {
	var (
		flags  pageFlags
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print an execution page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.loadApp(cmd.Context())
			if err != nil {
				return cli.fail(err)
			}
			project := cli.project(flags.project)
			renderer, err := cli.renderer(flags.options(project))
			if err != nil {
				return cli.fail(err)
			}

			app.History.Navigate(router.ExecutionPath(project, args[0]), false)
			viewer := app.Executions.NewViewer()
			defer viewer.Close()

			snap := viewer.Load(cmd.Context(), args[0])
			page, renderErr := renderer.RenderSnapshot(snap)
			fmt.Fprint(cli.out, page)

			if snap.State == execbiz.StateError {
				return apperrors.New(apperrors.ErrExecutionFetchFailed, snap.Error)
			}
			if renderErr != nil && strict {
				return cli.fail(renderErr)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when a message cannot be rendered")
	return cmd
}

func newExecutionViewCommand(cli *CLI) *cobra.Command {
	var flags pageFlags

	cmd := &cobra.Command{
		Use:   "view <id>",
		Short: "Open an execution in the interactive viewer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.loadApp(cmd.Context())
			if err != nil {
				return cli.fail(err)
			}
			project := cli.project(flags.project)
			renderer, err := cli.renderer(flags.options(project))
			if err != nil {
				return cli.fail(err)
			}

			app.History.Navigate(router.ExecutionPath(project, args[0]), false)
			model := tui.New(cmd.Context(), app.Executions, renderer, project, args[0])
			if err := tui.Run(model); err != nil {
				return cli.fail(err)
			}
			if status := model.Status(); status != "" {
				fmt.Fprintln(cli.out, status)
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newExecutionReExecuteCommand(cli *CLI) *cobra.Command {
	var (
		project     string
		templateID  string
		model       string
		temperature float64
	)

	cmd := &cobra.Command{
		Use:     "reexecute <id>",
		Aliases: []string{"re-execute", "rerun"},
		Short:   "Run an execution again, optionally with another model or temperature",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.loadApp(cmd.Context())
			if err != nil {
				return cli.fail(err)
			}

			req := execbiz.ReExecuteRequest{
				TemplateID: templateID,
				Model:      model,
			}
			if cmd.Flags().Changed("temperature") {
				req.Temperature = &temperature
			}

			newID, err := app.Executions.ReExecute(cmd.Context(), cli.project(project), args[0], req)
			if err != nil {
				return cli.fail(err)
			}
			fmt.Fprintf(cli.out, "Started execution %s\n→ %s\n", newID, app.History.Current())
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "project name (default ui.project)")
	cmd.Flags().StringVar(&templateID, "template-id", "", "parameter template to use")
	cmd.Flags().StringVar(&model, "model", "", "model override")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "temperature override (0-2)")
	return cmd
}
