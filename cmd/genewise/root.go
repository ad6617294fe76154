package main

import (
	"strings"
	"sync"

	"github.com/phrazzld/genewise-api/internal/config"
	"github.com/spf13/cobra"
)

type commandContext struct {
	configFlag *string
	appOpts    []appOption

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = config.Load(config.Options{ConfigFile: strings.TrimSpace(*c.configFlag)})
	})
	return c.config, c.configErr
}

func newRootCommand(opts ...appOption) *cobra.Command {
	var configFlag string
	ctx := &commandContext{configFlag: &configFlag, appOpts: opts}

	rootCmd := &cobra.Command{
		Use:           "genewise",
		Short:         "Genetic report simplification service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (YAML)")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newSimplifyCommand(ctx))
	rootCmd.AddCommand(newAnalyzeCommand(ctx))
	rootCmd.AddCommand(newMigrateCommand(ctx))

	return rootCmd
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
