package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCompileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compile <spec-file>",
		Short: "Compile a YAML or JSON query spec and print the query",
		Long: `Compile a query spec file into an InfluxQL SELECT statement.

Use "-" to read the spec from stdin. Files ending in .json are read as JSON,
anything else as YAML.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := readSpec(a.fs, args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			gen, err := a.factory().CreateGenerator(a.cfg.Strategy)
			if err != nil {
				return err
			}
			stmt, err := gen.GenerateSelect(spec)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), stmt)
			return err
		},
	}
}
