package main

import (
	"github.com/spf13/cobra"

	"github.com/dgallion1/specscan/internal/tiler"
)

var tilesCmd = &cobra.Command{
	Use:   "tiles FILE",
	Short: "Show how a document splits into classification tiles",
	Args:  cobra.ExactArgs(1),
	RunE:  runTiles,
}

var (
	tileBudget  int
	tileOverlap int
)

func init() {
	tilesCmd.Flags().IntVar(&tileBudget, "budget", tiler.DefaultBudget, "tile size in bytes")
	tilesCmd.Flags().IntVar(&tileOverlap, "overlap", tiler.DefaultOverlap, "bytes repeated from the previous tile")
}

type tileSummary struct {
	tiler.Tile
	Tokens int `json:"est_tokens"`
}

func runTiles(cmd *cobra.Command, args []string) error {
	doc, err := readDocument(args[0])
	if err != nil {
		return err
	}
	tiles := tiler.Split(doc.text, tiler.Config{Budget: tileBudget, Overlap: tileOverlap})
	out := struct {
		File       string        `json:"file"`
		TotalPages int           `json:"total_pages"`
		EstTokens  int           `json:"est_tokens"`
		Tiles      []tileSummary `json:"tiles"`
	}{
		File:       doc.name,
		TotalPages: doc.totalPages,
		EstTokens:  tiler.EstimateTokens(doc.text),
		Tiles:      make([]tileSummary, 0, len(tiles)),
	}
	for _, t := range tiles {
		out.Tiles = append(out.Tiles, tileSummary{Tile: t, Tokens: tiler.EstimateTokens(t.Text)})
	}
	return printJSON(out)
}
