package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// MaxContractChars bounds the Division 00/01 text sent for contract terms.
const MaxContractChars = 150000

const ContractTermsPrompt = `The text below is Division 00 (Procurement and Contracting) and Division 01 (General Requirements) of a construction specification. Summarize the business terms a subcontractor must price. Return a JSON object with these fields, each a list of short strings:

- "payment": payment schedule, application procedure, payment conditions
- "retainage": retainage percentage and release conditions
- "bonds": bid, performance and payment bond requirements
- "insurance": required coverages, limits, certificates
- "change_orders": change order procedure, pricing rules, claim deadlines
- "schedule": contract time, milestones, liquidated damages
- "closeout": warranties, record documents, final payment conditions

Rules:
- Report only what the text states; use an empty list otherwise
- Keep each string under 300 characters

Respond with ONLY the JSON object, no other text.`

// ContractTerms are the commercial terms found in Divisions 00 and 01.
type ContractTerms struct {
	Payment      []string `json:"payment"`
	Retainage    []string `json:"retainage"`
	Bonds        []string `json:"bonds"`
	Insurance    []string `json:"insurance"`
	ChangeOrders []string `json:"change_orders"`
	Schedule     []string `json:"schedule"`
	Closeout     []string `json:"closeout"`
}

// Sanitize cleans every list and reports whether any term is left.
func (c *ContractTerms) Sanitize() bool {
	lists := []*[]string{&c.Payment, &c.Retainage, &c.Bonds, &c.Insurance, &c.ChangeOrders, &c.Schedule, &c.Closeout}
	found := false
	for _, l := range lists {
		*l = cleanList(*l, false)
		found = found || len(*l) > 0
	}
	return found
}

// ContractTerms extracts commercial terms from Division 00/01 text.
func (e *DivisionExtractor) ContractTerms(ctx context.Context, text string) (*ContractTerms, error) {
	text = e.clip(text, MaxContractChars, "contract terms")

	var sb strings.Builder
	sb.WriteString(ContractTermsPrompt)
	sb.WriteString("\n\n---\n")
	sb.WriteString(text)

	raw, err := e.llm.Complete(ctx, CompletionRequest{
		System:    DivisionSystemPrompt,
		Prompt:    sb.String(),
		MaxTokens: e.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("extract contract terms: %w", err)
	}
	var terms ContractTerms
	if err := DecodeLenient(raw, &terms); err != nil {
		e.log.Warn("failed to parse contract terms response", "raw", truncate(raw, 200), "error", err)
		return nil, fmt.Errorf("parse contract terms: %w", err)
	}
	if !terms.Sanitize() {
		return nil, ErrNothingExtracted
	}
	return &terms, nil
}

// ExtractContractTerms is ContractTerms rendered as opaque JSON.
func (e *DivisionExtractor) ExtractContractTerms(ctx context.Context, text string) (json.RawMessage, error) {
	terms, err := e.ContractTerms(ctx, text)
	if err != nil {
		return nil, err
	}
	return json.Marshal(terms)
}
