package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/specscan/internal/cache"
	"github.com/dgallion1/specscan/internal/export"
	"github.com/dgallion1/specscan/internal/pipeline"
)

var structureCmd = &cobra.Command{
	Use:   "structure FILE",
	Short: "Print the division map of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runStructure,
}

var (
	structureXLSX      string
	structureSkipCache bool
)

func init() {
	structureCmd.Flags().StringVar(&structureXLSX, "xlsx", "", "also write the division map to this .xlsx file")
	structureCmd.Flags().BoolVar(&structureSkipCache, "skip-cache", false, "ignore any cached division map")
}

func runStructure(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := newLogger()

	doc, err := readDocument(args[0])
	if err != nil {
		return err
	}
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	c, err := openCache(ctx, log)
	if err != nil {
		return err
	}
	defer c.Close()

	analyzer := pipeline.NewAnalyzer(pipeline.Options{Catalog: cat, Cache: c}, log)
	sr, err := analyzer.Structure(ctx, doc.text, cache.Metadata{
		FileName:   doc.name,
		FileSize:   doc.size,
		TotalPages: doc.totalPages,
	}, structureSkipCache)
	if err != nil {
		return err
	}

	if structureXLSX != "" {
		f, err := os.Create(structureXLSX)
		if err != nil {
			return err
		}
		if err := export.DivisionMapXLSX(f, sr.Structure); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", structureXLSX, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Info("wrote division map", "path", structureXLSX)
	}
	return printJSON(sr)
}
