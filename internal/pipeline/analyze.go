// Package pipeline runs division analysis: structure detection with a
// content-hash cache in front of it, then either a page-range excerpt or a
// classified tile scan, and optional downstream extraction. Jobs wrap the
// same analysis for uploads processed in the background.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/specscan/internal/cache"
	"github.com/dgallion1/specscan/internal/catalog"
	"github.com/dgallion1/specscan/internal/classify"
	"github.com/dgallion1/specscan/internal/pages"
	"github.com/dgallion1/specscan/internal/stitch"
	"github.com/dgallion1/specscan/internal/structure"
	"github.com/dgallion1/specscan/internal/tiler"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrDivisionNotFound = errors.New("division not found")
)

// Source says how the excerpt was produced.
type Source string

const (
	SourceDivisionMap Source = "division-map"
	SourceTileScan    Source = "tile-scan"
)

// Extractor turns an excerpt into structured JSON.
type Extractor interface {
	Extract(ctx context.Context, text, label string) (json.RawMessage, error)
	ExtractContractTerms(ctx context.Context, text string) (json.RawMessage, error)
}

// Request is one analysis. Label and Keywords override the catalog entry
// for the division, which lets callers target divisions the catalog lacks.
type Request struct {
	Document   string
	Division   string
	Label      string
	Keywords   []string
	FileName   string
	FileSize   int64
	TotalPages int
	SkipCache  bool
	Extract    bool
	// IncludeContractTerms also excerpts Divisions 00 and 01, and extracts
	// their commercial terms when Extract is set.
	IncludeContractTerms bool
	Progress             classify.Progress
}

// StructureResult is the cached or freshly computed structure of a document.
type StructureResult struct {
	DocumentHash string           `json:"document_hash"`
	Structure    structure.Result `json:"structure"`
	Cached       bool             `json:"cached"`
	TotalPages   int              `json:"total_pages"`
}

// Result is one division analysis. Matches carries the classifier verdicts
// and division boundaries of scanned tiles; it is empty on the map path.
type Result struct {
	DocumentHash       string                 `json:"document_hash"`
	Division           string                 `json:"division"`
	Label              string                 `json:"label"`
	Structure          structure.Result       `json:"structure"`
	Cached             bool                   `json:"cached"`
	Source             Source                 `json:"source,omitempty"`
	PageRange          *structure.PageRange   `json:"page_range,omitempty"`
	TotalTiles         int                    `json:"total_tiles"`
	MatchedTileCount   int                    `json:"matched_tile_count"`
	MatchedTiles       []int                  `json:"matched_tiles"`
	Matches            []classify.MatchedTile `json:"matches"`
	StitchedText       string                 `json:"stitched_text"`
	CrossReferences    []string               `json:"cross_references"`
	ContractTermsText  string                 `json:"contract_terms_text,omitempty"`
	ProcessingTimeMs   int64                  `json:"processing_time_ms"`
	Extraction         json.RawMessage        `json:"extraction,omitempty"`
	ExtractionError    string                 `json:"extraction_error,omitempty"`
	ContractTerms      json.RawMessage        `json:"contract_terms,omitempty"`
	ContractTermsError string                 `json:"contract_terms_error,omitempty"`
}

// Options wires an Analyzer. Cache and Extractor may be nil.
type Options struct {
	Catalog    *catalog.Catalog
	Cache      *cache.Cache
	Scanner    *classify.Scanner
	Extractor  Extractor
	Tiles      tiler.Config
	HashPrefix int
}

// Analyzer is the public entry point for division analysis.
type Analyzer struct {
	catalog    *catalog.Catalog
	structure  *structure.Analyzer
	cache      *cache.Cache
	scanner    *classify.Scanner
	extractor  Extractor
	tiles      tiler.Config
	hashPrefix int
	log        *slog.Logger
	now        func() time.Time
}

func NewAnalyzer(opts Options, log *slog.Logger) *Analyzer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.HashPrefix <= 0 {
		opts.HashPrefix = cache.DefaultHashPrefix
	}
	return &Analyzer{
		catalog:    opts.Catalog,
		structure:  structure.NewAnalyzer(opts.Catalog, log),
		cache:      opts.Cache,
		scanner:    opts.Scanner,
		extractor:  opts.Extractor,
		tiles:      opts.Tiles,
		hashPrefix: opts.HashPrefix,
		log:        log,
		now:        time.Now,
	}
}

// Catalog returns the division catalog the analyzer resolves against.
func (a *Analyzer) Catalog() *catalog.Catalog { return a.catalog }

// Cache returns the document cache, or nil when caching is off.
func (a *Analyzer) Cache() *cache.Cache { return a.cache }

// Structure returns the division map for document, from the cache when
// possible. Fresh results are written back to the cache.
func (a *Analyzer) Structure(ctx context.Context, document string, meta cache.Metadata, skipCache bool) (*StructureResult, error) {
	if strings.TrimSpace(document) == "" {
		return nil, fmt.Errorf("%w: document is empty", ErrInvalidInput)
	}
	hash := cache.HashDocument(document, a.hashPrefix)

	if a.cache != nil && !skipCache {
		if e, ok := a.cache.Lookup(ctx, hash); ok {
			total := e.TotalPages
			if meta.TotalPages > 0 {
				total = meta.TotalPages
			}
			return &StructureResult{DocumentHash: hash, Structure: e.Structure, Cached: true, TotalPages: total}, nil
		}
	}

	if meta.TotalPages <= 0 {
		meta.TotalPages = pages.NewIndex(document).TotalPages()
	}
	res := a.structure.Analyze(document, meta.TotalPages)
	if a.cache != nil {
		a.cache.Store(ctx, hash, meta, res)
	}
	return &StructureResult{DocumentHash: hash, Structure: res, TotalPages: meta.TotalPages}, nil
}

// Analyze locates the requested division in req.Document.
//
// ErrDivisionNotFound comes back together with a partial Result. A scan in
// which every classification call failed returns an error wrapping
// classify.ErrClassifierUnavailable.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	started := a.now()
	if strings.TrimSpace(req.Document) == "" {
		return nil, fmt.Errorf("%w: document is empty", ErrInvalidInput)
	}
	if strings.TrimSpace(req.Division) == "" {
		return nil, fmt.Errorf("%w: division is required", ErrInvalidInput)
	}
	target, err := a.resolve(req)
	if err != nil {
		return nil, err
	}
	log := a.log.With("division", target.Code)

	sr, err := a.Structure(ctx, req.Document, cache.Metadata{
		FileName:   req.FileName,
		FileSize:   req.FileSize,
		TotalPages: req.TotalPages,
	}, req.SkipCache)
	if err != nil {
		return nil, err
	}
	log = log.With("doc_hash", sr.DocumentHash)

	res := &Result{
		DocumentHash:    sr.DocumentHash,
		Division:        target.Code,
		Label:           target.Label,
		Structure:       sr.Structure,
		Cached:          sr.Cached,
		MatchedTiles:    []int{},
		Matches:         []classify.MatchedTile{},
		CrossReferences: []string{},
	}
	finish := func() { res.ProcessingTimeMs = a.now().Sub(started).Milliseconds() }

	ex, err := a.locate(ctx, req.Document, sr, target, req.Progress, log)
	res.Source = ex.source
	res.PageRange = ex.pageRange
	res.TotalTiles = ex.totalTiles
	res.MatchedTileCount = len(ex.tileIndexes)
	res.MatchedTiles = append(res.MatchedTiles, ex.tileIndexes...)
	res.Matches = append(res.Matches, ex.matches...)
	res.StitchedText = ex.text
	if err != nil {
		finish()
		return res, err
	}
	if res.StitchedText == "" {
		finish()
		log.Info("division not found", "tiles", res.TotalTiles)
		return res, ErrDivisionNotFound
	}

	res.CrossReferences = structure.CrossReferences(res.StitchedText, target.Code, a.catalog)
	if req.IncludeContractTerms {
		a.collectContractTerms(ctx, req.Document, sr, target, res, log)
	}
	a.runExtraction(ctx, req, target, res, log)
	finish()
	log.Info("analysis complete",
		"source", res.Source,
		"matched", res.MatchedTileCount,
		"chars", len(res.StitchedText),
		"cross_refs", len(res.CrossReferences),
		"cached", res.Cached,
	)
	return res, nil
}

// excerpt is the located text of one division and how it was found.
type excerpt struct {
	source      Source
	pageRange   *structure.PageRange
	totalTiles  int
	tileIndexes []int
	matches     []classify.MatchedTile
	text        string
}

// locate finds target in document, from the division map when it resolves
// the division to pages and by a tile scan otherwise. An empty text with a
// nil error means the division was not found.
func (a *Analyzer) locate(ctx context.Context, document string, sr *StructureResult, target classify.Target, progress classify.Progress, log *slog.Logger) (excerpt, error) {
	// Page numbers cannot be mapped onto text whose page count is unknown.
	if pr, ok := sr.Structure.PagesFor(target.Code); ok && sr.TotalPages > 0 {
		text := pages.Extract(document, pr.Start, pr.End, sr.TotalPages)
		if text != "" {
			tiles := tiler.Split(text, a.tiles)
			ex := excerpt{source: SourceDivisionMap, pageRange: &pr, totalTiles: len(tiles), text: text}
			for _, t := range tiles {
				ex.tileIndexes = append(ex.tileIndexes, t.Index)
			}
			log.Info("division resolved from map", "pages", fmt.Sprintf("%d-%d", pr.Start, pr.End), "chars", len(text))
			return ex, nil
		}
		log.Warn("division page range produced no text, scanning tiles", "start", pr.Start, "end", pr.End)
	}

	if a.scanner == nil {
		return excerpt{}, fmt.Errorf("%w: no classifier configured", classify.ErrClassifierUnavailable)
	}

	tiles := tiler.Split(document, a.tiles)
	ex := excerpt{source: SourceTileScan, totalTiles: len(tiles)}
	log.Info("scanning tiles", "tiles", len(tiles), "est_tokens", tiler.EstimateTokens(document))

	matches, err := a.scanner.Scan(ctx, tiles, target, progress)
	if err != nil {
		return ex, fmt.Errorf("scan: %w", err)
	}
	for _, m := range matches {
		ex.tileIndexes = append(ex.tileIndexes, m.Index)
	}
	ex.matches = matches
	ex.text = stitch.Stitch(classify.Tiles(matches))
	return ex, nil
}

// contractDivisions hold the commercial terms of a specification.
var contractDivisions = []string{"00", "01"}

// collectContractTerms locates Divisions 00 and 01 and stores their joined
// text on res. Failures are recorded on res and never fail the analysis.
func (a *Analyzer) collectContractTerms(ctx context.Context, document string, sr *StructureResult, target classify.Target, res *Result, log *slog.Logger) {
	var parts, failures []string
	for _, code := range contractDivisions {
		if code == target.Code {
			parts = append(parts, res.StitchedText)
			continue
		}
		t, ok := a.catalog.Resolve(code)
		if !ok {
			continue
		}
		ex, err := a.locate(ctx, document, sr, t, nil, log.With("contract_division", code))
		if err != nil {
			log.Warn("contract division lookup failed", "contract_division", code, "error", err)
			failures = append(failures, fmt.Sprintf("division %s: %v", code, err))
			continue
		}
		if ex.text != "" {
			parts = append(parts, ex.text)
		}
	}
	res.ContractTermsText = strings.Join(parts, stitch.GapMarker)
	res.ContractTermsError = strings.Join(failures, "; ")
}

func (a *Analyzer) resolve(req Request) (classify.Target, error) {
	target, _ := a.catalog.Resolve(req.Division)
	if target.Code == "" {
		return classify.Target{}, fmt.Errorf("%w: unknown division %q", ErrInvalidInput, req.Division)
	}
	if req.Label != "" {
		target.Label = req.Label
	}
	if len(req.Keywords) > 0 {
		target.Keywords = req.Keywords
	}
	if target.Label == "" {
		target.Label = "Division " + target.Code
	}
	return target, nil
}

func (a *Analyzer) runExtraction(ctx context.Context, req Request, target classify.Target, res *Result, log *slog.Logger) {
	if !req.Extract {
		return
	}
	if a.extractor == nil {
		res.ExtractionError = "extraction is not configured"
		return
	}
	out, err := a.extractor.Extract(ctx, res.StitchedText, target.Label)
	if err != nil {
		log.Warn("extraction failed", "error", err)
		res.ExtractionError = err.Error()
	} else {
		res.Extraction = out
	}

	if res.ContractTermsText == "" {
		return
	}
	terms, err := a.extractor.ExtractContractTerms(ctx, res.ContractTermsText)
	if err != nil {
		log.Warn("contract terms extraction failed", "error", err)
		res.ContractTermsError = joinErrors(res.ContractTermsError, err.Error())
		return
	}
	res.ContractTerms = terms
}

func joinErrors(prev, next string) string {
	if prev == "" {
		return next
	}
	return prev + "; " + next
}
