package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/formrules/pkg/schema"
)

func newLintCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lint <definition>...",
		Short: "Build every field of form definitions and report configuration errors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := false
			for _, path := range args {
				if err := a.lint(cmd, path); err != nil {
					failed = true
					for _, line := range strings.Split(err.Error(), "\n") {
						fmt.Fprintf(out, "%s: %s\n", path, line)
					}
					continue
				}
				fmt.Fprintf(out, "%s: ok\n", path)
			}
			if failed {
				return errLintFailed
			}
			return nil
		},
	}
}

func (a *app) lint(cmd *cobra.Command, path string) error {
	s, err := schema.LoadFile(path)
	if err != nil {
		return err
	}
	opts, cleanup, err := a.formOptions(cmd.Context(), s)
	if err != nil {
		return err
	}
	defer cleanup()

	f, err := s.NewForm(nil, opts...)
	if err != nil {
		return err
	}
	f.Close()
	return nil
}
