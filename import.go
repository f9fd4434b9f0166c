package main

import (
	"fmt"
	"slices"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wowoyong/voca-app/internal/config"
	"github.com/wowoyong/voca-app/internal/excel"
	"github.com/wowoyong/voca-app/pkg/models"
)

var (
	importLang  string
	importKind  string
	importSheet string
)

func init() {
	importCmd.Flags().StringVar(&importLang, "lang", "en", "language domain to import into (en or jp)")
	importCmd.Flags().StringVar(&importKind, "kind", string(models.KindWord), "item kind for rows without a kind column")
	importCmd.Flags().StringVar(&importSheet, "sheet", "Sheet1", "worksheet to read from .xlsx files")
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import items from an .xlsx or .csv file",
	Long: `Import items into a language domain's catalog.

Columns: kind, term, reading, meaning, example, difficulty. The first row is
treated as a header. Items are matched on (kind, term) and updated in place.

Examples:
  voca-app import words.xlsx --lang en
  voca-app import grammar.csv --lang jp --kind grammar`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	if !slices.Contains(config.Languages, importLang) {
		return errors.Errorf("unknown language %q", importLang)
	}
	kind := models.ItemKind(importKind)
	if !kind.Valid() {
		return errors.Errorf("unknown item kind %q", importKind)
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if cfg.DBDriver == "memory" {
		return errors.New("import needs a persistent DB_DRIVER")
	}

	h, err := openStore(cmd.Context(), cfg, importLang)
	if err != nil {
		return err
	}
	defer h.close()

	importCfg := excel.DefaultImportConfig()
	importCfg.FilePath = args[0]
	importCfg.DefaultKind = kind
	importCfg.SheetName = importSheet

	result, err := excel.NewImporter(h.store).Import(cmd.Context(), importCfg)
	if err != nil {
		return err
	}
	for _, rowErr := range result.Errors {
		logger.Warn("row skipped", zap.String("error", rowErr))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "processed %d rows: %d created, %d updated, %d errors\n",
		result.TotalProcessed, result.Created, result.Updated, len(result.Errors))
	return nil
}
