// Package classify decides which tiles of a document belong to a target
// division.
package classify

import (
	"context"
	"fmt"

	"github.com/dgallion1/specscan/internal/catalog"
	"github.com/dgallion1/specscan/internal/extract"
	"github.com/dgallion1/specscan/internal/tiler"
)

// Target is the division being looked for.
type Target = catalog.Target

// TileClassifier judges a single tile.
type TileClassifier interface {
	Classify(ctx context.Context, tile tiler.Tile, target Target) (Verdict, error)
}

// Classifier is a TileClassifier backed by a language model.
type Classifier struct {
	llm       extract.Completer
	maxTokens int
}

func NewClassifier(llm extract.Completer) *Classifier {
	return &Classifier{llm: llm, maxTokens: 512}
}

func (c *Classifier) Classify(ctx context.Context, tile tiler.Tile, target Target) (Verdict, error) {
	raw, err := c.llm.Complete(ctx, extract.CompletionRequest{
		System:    systemPrompt,
		Prompt:    buildPrompt(target, tile.Text),
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("classify tile %d: %w", tile.Index, err)
	}
	v, err := ParseLenient(raw)
	if err != nil {
		return Verdict{}, fmt.Errorf("classify tile %d: %w", tile.Index, err)
	}
	return v, nil
}
