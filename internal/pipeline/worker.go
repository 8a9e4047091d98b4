package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/specscan/internal/parser"
)

// Worker processes a single analysis job.
type Worker struct {
	analyzer   *Analyzer
	log        *slog.Logger
	parserOpts parser.Options
}

func NewWorker(analyzer *Analyzer, log *slog.Logger, parserOpts parser.Options) *Worker {
	return &Worker{
		analyzer:   analyzer,
		log:        log,
		parserOpts: parserOpts,
	}
}

// Process parses the upload and runs the analysis for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "division", job.Division)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	data := job.FileData()
	text, totalPages, err := parser.ParseFile(bytes.NewReader(data), job.Filename, w.parserOpts)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	log.Info("parsed document", "chars", len(text), "pages", totalPages)

	// Phase 2: Analyze
	job.SetStatus(StatusAnalyzing, "structure")
	scanning := false
	res, err := w.analyzer.Analyze(ctx, Request{
		Document:   text,
		Division:   job.Division,
		FileName:   job.Filename,
		FileSize:   int64(len(data)),
		TotalPages: totalPages,
		SkipCache:  job.skipCache,
		Extract:    job.extract,

		IncludeContractTerms: job.contractTerms,

		Progress: func(scanned, matched, total int) {
			if !scanning {
				scanning = true
				job.SetStatus(StatusScanning, "classifying tiles")
			}
			job.SetProgress(scanned, matched, total)
		},
	})

	switch {
	case errors.Is(err, ErrDivisionNotFound):
		job.SetResult(res)
		job.SetStatus(StatusNotFound, "done")
		log.Info("division not found")
	case err != nil:
		log.Error("analysis failed", "error", err)
		job.AddError(err.Error())
		job.SetResult(res)
		job.SetStatus(StatusFailed, "analyzing")
	default:
		job.SetResult(res)
		if res.ExtractionError != "" {
			job.AddError("extraction: " + res.ExtractionError)
		}
		job.SetStatus(StatusCompleted, "done")
		log.Info("job complete", "source", res.Source, "matched", res.MatchedTileCount, "cached", res.Cached)
	}
}
