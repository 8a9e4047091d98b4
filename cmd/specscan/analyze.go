package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgallion1/specscan/internal/classify"
	"github.com/dgallion1/specscan/internal/extract"
	"github.com/dgallion1/specscan/internal/pipeline"
	"github.com/dgallion1/specscan/internal/tiler"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE",
	Short: "Extract the text of one division",
	Long: `Analyze locates a division in FILE. When the document's division map
covers the division its pages are printed directly; otherwise every tile is
classified by the configured model and the matching tiles are stitched.

Exit status is 2 when the division is not in the document.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeDivision  string
	analyzeSkipCache bool
	analyzeExtract   bool
	analyzeTextOnly  bool
	analyzeContract  bool
)

func init() {
	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeDivision, "division", "d", "", "division code or name, e.g. 04 or masonry")
	f.BoolVar(&analyzeSkipCache, "skip-cache", false, "recompute the division map")
	f.BoolVar(&analyzeExtract, "extract", false, "run structured extraction on the excerpt")
	f.BoolVar(&analyzeTextOnly, "text", false, "print only the excerpt text")
	f.BoolVar(&analyzeContract, "contract-terms", false, "also excerpt Divisions 00 and 01 for contract terms")
	f.String("provider", extract.ProviderAnthropic, "classifier provider: anthropic or openai")
	f.String("model", "", "model name (provider default when empty)")
	f.Int("batch-size", 5, "tiles classified concurrently")
	f.Duration("batch-delay", time.Second, "pause between batches")
	_ = analyzeCmd.MarkFlagRequired("division")

	_ = viper.BindPFlag("provider", f.Lookup("provider"))
	_ = viper.BindPFlag("model", f.Lookup("model"))
	_ = viper.BindPFlag("scan_batch_size", f.Lookup("batch-size"))
	_ = viper.BindPFlag("scan_batch_delay", f.Lookup("batch-delay"))
}

func llmOptions() extract.Options {
	opts := extract.Options{
		Provider:       viper.GetString("provider"),
		AnthropicKey:   viper.GetString("anthropic_api_key"),
		AnthropicModel: "claude-sonnet-4-5-20250929",
		OpenAIKey:      viper.GetString("openai_api_key"),
		OpenAIModel:    "gpt-4o-mini",
		OpenAIBaseURL:  viper.GetString("openai_base_url"),
		Timeout:        90 * time.Second,
	}
	if m := viper.GetString("model"); m != "" {
		opts.AnthropicModel = m
		opts.OpenAIModel = m
	}
	return opts
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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

	// Without a model key the analysis still works for documents whose
	// division map covers the division.
	opts := pipeline.Options{Catalog: cat, Cache: c, Tiles: tiler.DefaultConfig()}
	llm, err := extract.New(llmOptions())
	if err != nil {
		log.Warn("no classifier configured, tile scan unavailable", "error", err)
	} else {
		defer llm.Close()
		scan := classify.DefaultConfig()
		scan.BatchSize = viper.GetInt("scan_batch_size")
		scan.BatchDelay = viper.GetDuration("scan_batch_delay")
		opts.Scanner = classify.NewScanner(classify.NewClassifier(llm), scan, log)
		opts.Extractor = extract.NewDivisionExtractor(llm, log)
	}

	res, err := pipeline.NewAnalyzer(opts, log).Analyze(ctx, pipeline.Request{
		Document:   doc.text,
		Division:   analyzeDivision,
		FileName:   doc.name,
		FileSize:   doc.size,
		TotalPages: doc.totalPages,
		SkipCache:  analyzeSkipCache,
		Extract:    analyzeExtract,

		IncludeContractTerms: analyzeContract,

		Progress: func(scanned, matched, total int) {
			log.Info("scan progress", "scanned", scanned, "matched", matched, "total", total)
		},
	})
	if errors.Is(err, pipeline.ErrDivisionNotFound) {
		return fmt.Errorf("division %s in %s (%d tiles scanned): %w", res.Division, doc.name, res.TotalTiles, err)
	}
	if err != nil {
		return err
	}
	if analyzeTextOnly {
		_, err := fmt.Fprintln(os.Stdout, res.StitchedText)
		return err
	}
	return printJSON(res)
}
