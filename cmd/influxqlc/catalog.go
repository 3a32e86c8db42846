package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/asaidimu/go-influxql/catalog"
)

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage saved queries",
	}
	cmd.AddCommand(
		newCatalogSaveCmd(a),
		newCatalogGetCmd(a),
		newCatalogListCmd(a),
		newCatalogDeleteCmd(a),
		newCatalogCompileCmd(a),
	)
	return cmd
}

// withCatalog opens the catalog for the duration of fn.
func withCatalog(a *app, cmd *cobra.Command, fn func(c *catalog.Catalog) error) error {
	c, db, err := a.openCatalog(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(c)
}

func newCatalogSaveCmd(a *app) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "save <name> <spec-file>",
		Short: "Validate a spec and save it under a name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := readSpec(a.fs, args[1], cmd.InOrStdin())
			if err != nil {
				return err
			}
			return withCatalog(a, cmd, func(c *catalog.Catalog) error {
				saved, err := c.Save(cmd.Context(), args[0], description, a.cfg.Strategy, *spec)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%s)\n", saved.Name, saved.ID)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "description of the query")
	return cmd
}

func newCatalogGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Print a saved query spec as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(a, cmd, func(c *catalog.Catalog) error {
				saved, err := c.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(saved.Spec); err != nil {
					return fmt.Errorf("failed to encode spec: %w", err)
				}
				return enc.Close()
			})
		},
	}
}

func newCatalogListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(a, cmd, func(c *catalog.Catalog) error {
				list, err := c.List(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tSTRATEGY\tUPDATED\tDESCRIPTION")
				for _, q := range list {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", q.Name, q.Strategy, q.UpdatedAt.Format("2006-01-02 15:04:05"), q.Description)
				}
				return w.Flush()
			})
		},
	}
}

func newCatalogDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(a, cmd, func(c *catalog.Catalog) error {
				return c.Delete(cmd.Context(), args[0])
			})
		},
	}
}

func newCatalogCompileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compile <name>",
		Short: "Compile a saved query with its stored strategy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(a, cmd, func(c *catalog.Catalog) error {
				stmt, err := c.Compile(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), stmt)
				return err
			})
		},
	}
}
