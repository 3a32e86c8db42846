package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/asaidimu/go-influxql/catalog"
	"github.com/asaidimu/go-influxql/core/query"
	"github.com/asaidimu/go-influxql/influxql"
)

// app carries the state shared by all subcommands.
type app struct {
	fs         afero.Fs
	v          *viper.Viper
	configFile string
	cfg        *config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	return newRootCmdWithFs(afero.NewOsFs())
}

// newRootCmdWithFs builds the command tree reading config and spec files
// through fs.
func newRootCmdWithFs(fs afero.Fs) *cobra.Command {
	a := &app{fs: fs, v: newViper(fs)}

	root := &cobra.Command{
		Use:           "influxqlc",
		Short:         "Compile declarative query specs into InfluxQL",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default .influxqlc.yaml)")
	flags.String("strategy", "grouped", "where strategy: grouped or flat")
	flags.String("catalog", "influxqlc.db", "path of the saved query catalog")
	flags.Bool("syntax-check", false, "parse generated queries before printing them")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")

	_ = a.v.BindPFlag("strategy", flags.Lookup("strategy"))
	_ = a.v.BindPFlag("catalog", flags.Lookup("catalog"))
	_ = a.v.BindPFlag("syntax_check", flags.Lookup("syntax-check"))
	_ = a.v.BindPFlag("log_level", flags.Lookup("log-level"))

	root.AddCommand(newCompileCmd(a), newCatalogCmd(a))
	return root
}

func (a *app) init() error {
	cfg, err := loadConfig(a.fs, a.v, a.configFile)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// factory returns a generator factory honoring the syntax check setting.
func (a *app) factory() query.QueryGeneratorFactory {
	return influxql.NewInfluxQLQueryGeneratorFactory(a.logger, &influxql.GeneratorOptions{
		SyntaxCheck: a.cfg.SyntaxCheck,
	})
}

// openCatalog opens the SQLite catalog. The caller closes the returned db.
func (a *app) openCatalog(ctx context.Context) (*catalog.Catalog, *sql.DB, error) {
	db, err := sql.Open("sqlite3", a.cfg.Catalog)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open catalog %s: %w", a.cfg.Catalog, err)
	}
	c, err := catalog.New(ctx, db, a.factory(), a.logger, nil)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return c, db, nil
}
