package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"foodgram/internal/platform/config"
	"foodgram/internal/platform/logger"
	"foodgram/internal/platform/postgres"
)

// commandContext carries settings shared by every subcommand.
type commandContext struct {
	cfg         config.Server
	databaseURL string
	logLevel    string
	log         *slog.Logger
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{cfg: config.FromEnv()}

	root := &cobra.Command{
		Use:           "foodgramctl",
		Short:         "Operator tooling for the foodgram backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ctx.log = logger.NewWithWriter(cmd.ErrOrStderr(), ctx.logLevel)
		},
	}
	root.PersistentFlags().StringVar(&ctx.databaseURL, "database-url", ctx.cfg.Database.DSN, "Postgres connection string (defaults to DATABASE_URL)")
	root.PersistentFlags().StringVar(&ctx.logLevel, "log-level", ctx.cfg.LogLevel, "Log level")

	root.AddCommand(newSchemaCommand(ctx))
	root.AddCommand(newIngredientsCommand(ctx))
	root.AddCommand(newTagsCommand(ctx))
	root.AddCommand(newUsersCommand(ctx))
	return root
}

func (c *commandContext) openDB(ctx context.Context) (*sql.DB, error) {
	if c.databaseURL == "" {
		return nil, errors.New("database URL is required (set DATABASE_URL or --database-url)")
	}
	return postgres.Open(ctx, postgres.Config{DSN: c.databaseURL, MaxOpenConns: 4})
}
