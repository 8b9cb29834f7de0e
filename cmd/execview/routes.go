package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lk2023060901/execution-console/internal/router"
)

func newRoutesCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the application routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, pattern := range router.Patterns {
				fmt.Fprintln(cli.out, pattern)
			}
			return nil
		},
	}
}
