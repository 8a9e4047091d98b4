package catalog

import (
	"testing"
)

func TestDefault_ValidCodes(t *testing.T) {
	c := Default()
	for _, code := range []string{"00", "04", "14", "21", "28", "33", "48"} {
		if !c.Valid(code) {
			t.Errorf("expected %s to be valid", code)
		}
	}
	for _, code := range []string{"15", "20", "24", "29", "39", "49", "4"} {
		if c.Valid(code) {
			t.Errorf("expected %s to be invalid", code)
		}
	}
	codes := c.Codes()
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
}

func TestResolve(t *testing.T) {
	c := Default()
	tests := []struct {
		ref       string
		wantCode  string
		wantLabel string
		wantOK    bool
	}{
		{"04", "04", "Masonry", true},
		{"4", "04", "Masonry", true},
		{"Division 04", "04", "Masonry", true},
		{"masonry", "04", "Masonry", true},
		{"Electrical", "26", "Electrical", true},
		{"19", "19", "", false},
		{"gibberish", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		got, ok := c.Resolve(tt.ref)
		if ok != tt.wantOK {
			t.Errorf("Resolve(%q) ok = %v, want %v", tt.ref, ok, tt.wantOK)
		}
		if got.Code != tt.wantCode {
			t.Errorf("Resolve(%q) code = %q, want %q", tt.ref, got.Code, tt.wantCode)
		}
		if got.Label != tt.wantLabel {
			t.Errorf("Resolve(%q) label = %q, want %q", tt.ref, got.Label, tt.wantLabel)
		}
	}
}

func TestResolve_TradeKeywords(t *testing.T) {
	got, ok := Default().Resolve("masonry")
	if !ok {
		t.Fatal("expected masonry to resolve")
	}
	found := false
	for _, kw := range got.Keywords {
		if kw == "CMU" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected CMU among masonry keywords, got %v", got.Keywords)
	}
}

func TestParse_Overrides(t *testing.T) {
	data := []byte(`
divisions:
  - code: "04"
    keywords: [masonry, "glass block"]
  - code: "49"
    title: Custom Work
trades:
  - name: Glazing
    division: "08"
    label: Glazing
    keywords: [glazing, storefront]
`)
	c, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	d, ok := c.Division("04")
	if !ok {
		t.Fatal("expected division 04")
	}
	if d.Title != "Masonry" {
		t.Errorf("expected title to fall back to default, got %q", d.Title)
	}
	if len(d.Keywords) != 2 || d.Keywords[1] != "GLASS BLOCK" {
		t.Errorf("expected upper-cased override keywords, got %v", d.Keywords)
	}
	if c.Title("49") != "Custom Work" {
		t.Errorf("expected custom division 49")
	}
	tgt, ok := c.Resolve("glazing")
	if !ok || tgt.Code != "08" {
		t.Errorf("expected glazing trade to resolve to 08, got %+v", tgt)
	}
}

func TestParse_RejectsBadCode(t *testing.T) {
	_, err := Parse([]byte("divisions:\n  - code: \"4A\"\n    title: Bad\n"))
	if err == nil {
		t.Fatal("expected error for malformed code")
	}
}

func TestNew_RejectsOrphanTrade(t *testing.T) {
	_, err := New([]Division{{Code: "04", Title: "Masonry"}}, []Trade{{Name: "x", Division: "99"}})
	if err == nil {
		t.Fatal("expected error for trade with unknown division")
	}
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"4", "04", true},
		{" 26 ", "26", true},
		{"division 9", "09", true},
		{"100", "", false},
		{"abc", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeCode(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NormalizeCode(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
