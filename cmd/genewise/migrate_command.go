package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/phrazzld/genewise-api/internal/config"
	"github.com/phrazzld/genewise-api/internal/platform/logger"
	"github.com/phrazzld/genewise-api/internal/platform/postgres"
	"github.com/spf13/cobra"
)

// databaseURLEnv is read when neither --database-url nor a config file is given.
const databaseURLEnv = config.EnvPrefix + "_DIAGNOSTICS_DATABASE_URL"

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:       "migrate <up|down|status|version>",
		Short:     "Manage the diagnostics database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status", "version"},
		// Config is loaded only when --config is given and no URL was passed.
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			url := strings.TrimSpace(databaseURL)
			serverCfg := config.ServerConfig{LogLevel: "info"}
			if url == "" {
				url = strings.TrimSpace(os.Getenv(databaseURLEnv))
			}
			if url == "" && strings.TrimSpace(*ctx.configFlag) != "" {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				url = cfg.Diagnostics.DatabaseURL
				serverCfg = cfg.Server
			}
			if url == "" {
				return errors.New("database URL is required: pass --database-url or set " + databaseURLEnv)
			}

			log, err := logger.SetupWithWriter(serverCfg, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("failed to set up logger: %w", err)
			}

			db, err := postgres.Open(cmd.Context(), url)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = db.Close() }()

			return postgres.Migrate(cmd.Context(), db, args[0], log)
		},
	}

	cmd.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL")
	return cmd
}
