package classify

import (
	"errors"
	"testing"
)

func TestParseLenient(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		hasContent bool
		confidence Confidence
		evidence   int
		start      *int
	}{
		{
			name:       "strict",
			raw:        `{"hasContent": true, "confidence": "HIGH", "evidence": ["DIVISION 04"], "approximateStart": 120, "approximateEnd": null}`,
			hasContent: true, confidence: ConfidenceHigh, evidence: 1, start: intPtr(120),
		},
		{
			name:       "fenced with trailing comma",
			raw:        "```json\n{\"hasContent\": true, \"confidence\": \"MEDIUM\", \"evidence\": [\"SECTION 042000\",],}\n```",
			hasContent: true, confidence: ConfidenceMedium, evidence: 1,
		},
		{
			name:       "lowercase confidence and snake keys",
			raw:        `{"has_content": false, "confidence": "low"}`,
			hasContent: false, confidence: ConfidenceLow, evidence: 0,
		},
		{
			name:       "evidence as string",
			raw:        `Sure! {"hasContent": "yes", "confidence": "High", "evidence": "PART 1 GENERAL"}`,
			hasContent: true, confidence: ConfidenceHigh, evidence: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseLenient(tt.raw)
			if err != nil {
				t.Fatalf("ParseLenient: %v", err)
			}
			if v.HasContent != tt.hasContent || v.Confidence != tt.confidence {
				t.Errorf("verdict = %+v", v)
			}
			if len(v.Evidence) != tt.evidence {
				t.Errorf("evidence = %v", v.Evidence)
			}
			if tt.start != nil && (v.ApproximateStart == nil || *v.ApproximateStart != *tt.start) {
				t.Errorf("approximateStart = %v", v.ApproximateStart)
			}
			if tt.start == nil && v.ApproximateStart != nil {
				t.Errorf("approximateStart = %d, want nil", *v.ApproximateStart)
			}
		})
	}
}

func TestParseLenientRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "I could not decide."},
		{"array", `[true, "HIGH"]`},
		{"missing confidence", `{"hasContent": true}`},
		{"bad confidence", `{"hasContent": true, "confidence": "SURE"}`},
		{"non-boolean", `{"hasContent": "maybe", "confidence": "HIGH"}`},
		{"negative offset", `{"hasContent": true, "confidence": "HIGH", "approximateStart": -4}`},
		{"fractional offset", `{"hasContent": true, "confidence": "HIGH", "approximateStart": 1.5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLenient(tt.raw)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if pe.Raw != tt.raw {
				t.Errorf("raw not preserved")
			}
		})
	}
}

func TestVerdictAccepted(t *testing.T) {
	tests := []struct {
		v    Verdict
		want bool
	}{
		{Verdict{HasContent: true, Confidence: ConfidenceHigh}, true},
		{Verdict{HasContent: true, Confidence: ConfidenceMedium}, true},
		{Verdict{HasContent: true, Confidence: ConfidenceLow}, false},
		{Verdict{HasContent: false, Confidence: ConfidenceHigh}, false},
	}
	for _, tt := range tests {
		if got := tt.v.Accepted(); got != tt.want {
			t.Errorf("%+v Accepted() = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func intPtr(n int) *int { return &n }
