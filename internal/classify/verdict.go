package classify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dgallion1/specscan/internal/extract"
)

// Confidence is the classifier's own rating of a verdict.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Verdict is the classification of one tile against one division.
// ApproximateStart and ApproximateEnd are byte offsets into the tile text.
type Verdict struct {
	HasContent       bool       `json:"hasContent"`
	Confidence       Confidence `json:"confidence"`
	Evidence         []string   `json:"evidence"`
	ApproximateStart *int       `json:"approximateStart"`
	ApproximateEnd   *int       `json:"approximateEnd"`
}

// Accepted reports whether the verdict counts as a match.
func (v Verdict) Accepted() bool {
	return v.HasContent && v.Confidence != ConfidenceLow
}

const verdictSchemaJSON = `{
  "type": "object",
  "required": ["hasContent", "confidence"],
  "properties": {
    "hasContent": {"type": "boolean"},
    "confidence": {"enum": ["HIGH", "MEDIUM", "LOW"]},
    "evidence": {"type": "array", "items": {"type": "string"}},
    "approximateStart": {"type": ["integer", "null"], "minimum": 0},
    "approximateEnd": {"type": ["integer", "null"], "minimum": 0}
  }
}`

var verdictSchema = mustCompile(verdictSchemaJSON)

func mustCompile(schemaJSON string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("verdict.json", strings.NewReader(schemaJSON)); err != nil {
		panic(fmt.Sprintf("load verdict schema: %v", err))
	}
	schema, err := compiler.Compile("verdict.json")
	if err != nil {
		panic(fmt.Sprintf("compile verdict schema: %v", err))
	}
	return schema
}

// ParseError reports classifier output that could not be turned into a
// Verdict.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	raw := e.Raw
	if len(raw) > 200 {
		raw = raw[:200] + "..."
	}
	return fmt.Sprintf("parse verdict: %v (raw: %q)", e.Err, raw)
}

func (e *ParseError) Unwrap() error { return e.Err }

// keyAliases maps spellings models commonly use to the canonical keys.
var keyAliases = map[string]string{
	"has_content":       "hasContent",
	"hascontent":        "hasContent",
	"approximate_start": "approximateStart",
	"approximate_end":   "approximateEnd",
}

// ParseLenient decodes a classifier reply. Strict JSON is tried first and
// then a cleanup pass; the object is normalized and checked against the
// verdict schema.
func ParseLenient(raw string) (Verdict, error) {
	var msg json.RawMessage
	if err := extract.DecodeLenient(raw, &msg); err != nil {
		return Verdict{}, &ParseError{Raw: raw, Err: err}
	}

	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return Verdict{}, &ParseError{Raw: raw, Err: err}
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return Verdict{}, &ParseError{Raw: raw, Err: fmt.Errorf("expected object, got %T", doc)}
	}
	normalize(obj)

	if err := verdictSchema.Validate(obj); err != nil {
		return Verdict{}, &ParseError{Raw: raw, Err: err}
	}

	b, err := json.Marshal(obj)
	if err != nil {
		return Verdict{}, &ParseError{Raw: raw, Err: err}
	}
	var v Verdict
	if err := json.Unmarshal(b, &v); err != nil {
		return Verdict{}, &ParseError{Raw: raw, Err: err}
	}
	if v.Evidence == nil {
		v.Evidence = []string{}
	}
	return v, nil
}

func normalize(obj map[string]any) {
	for k, v := range obj {
		if canon, ok := keyAliases[strings.ToLower(k)]; ok && canon != k {
			if _, exists := obj[canon]; !exists {
				obj[canon] = v
			}
			delete(obj, k)
		}
	}
	if c, ok := obj["confidence"].(string); ok {
		obj["confidence"] = strings.ToUpper(strings.TrimSpace(c))
	}
	if s, ok := obj["hasContent"].(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "yes":
			obj["hasContent"] = true
		case "false", "no":
			obj["hasContent"] = false
		}
	}
	if s, ok := obj["evidence"].(string); ok {
		obj["evidence"] = []any{s}
	}
}
