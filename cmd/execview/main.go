package main

import (
	"os"

	apperrors "github.com/lk2023060901/execution-console/internal/pkg/errors"
)

func main() {
	cmd := NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		if apperrors.Is(err, apperrors.ErrInvalidParams) || apperrors.Is(err, apperrors.ErrAuthInvalidInput) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
