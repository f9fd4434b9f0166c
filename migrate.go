package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wowoyong/voca-app/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the tables of every language database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		for _, lang := range config.Languages {
			h, err := openStore(cmd.Context(), cfg, lang)
			if err != nil {
				return err
			}
			if err := h.close(); err != nil {
				return err
			}
			logger.Info("schema up to date", zap.String("lang", lang), zap.String("driver", cfg.DBDriver))
		}
		return nil
	},
}
