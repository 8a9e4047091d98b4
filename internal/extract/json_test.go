package extract

import "testing"

func TestDecodeLenient(t *testing.T) {
	type payload struct {
		HasContent bool     `json:"has_content"`
		Evidence   string   `json:"evidence"`
		Items      []string `json:"items"`
	}

	tests := []struct {
		name     string
		raw      string
		evidence string
		items    int
	}{
		{"strict", `{"has_content": true, "evidence": "brick", "items": ["a"]}`, "brick", 1},
		{"fenced", "```json\n{\"has_content\": true, \"evidence\": \"brick\"}\n```", "brick", 0},
		{"prose around", "Here is the answer:\n{\"has_content\": true, \"evidence\": \"cmu\"}\nHope this helps.", "cmu", 0},
		{"trailing commas", "```\n{\"has_content\": true, \"evidence\": \"x\", \"items\": [\"a\", \"b\",],}\n```", "x", 2},
		{"raw newline in string", "{\"has_content\": true, \"evidence\": \"line one\nline two\"}", "line one\nline two", 0},
		{"control chars", "{\"has_content\": true,\x00 \"evidence\": \"a\x07b\"}", "ab", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			if err := DecodeLenient(tt.raw, &p); err != nil {
				t.Fatalf("DecodeLenient: %v", err)
			}
			if !p.HasContent {
				t.Errorf("has_content = false")
			}
			if p.Evidence != tt.evidence {
				t.Errorf("evidence = %q, want %q", p.Evidence, tt.evidence)
			}
			if len(p.Items) != tt.items {
				t.Errorf("items = %v, want %d", p.Items, tt.items)
			}
		})
	}
}

func TestDecodeLenientFailure(t *testing.T) {
	var v map[string]any
	for _, raw := range []string{"", "no json here", `{"a": }`} {
		if err := DecodeLenient(raw, &v); err == nil {
			t.Errorf("DecodeLenient(%q) succeeded", raw)
		}
	}
}

func TestCleanJSONArray(t *testing.T) {
	got := CleanJSON("result: [1, 2, 3,] done")
	if got != "[1, 2, 3]" {
		t.Errorf("CleanJSON = %q", got)
	}
}
