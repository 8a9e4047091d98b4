package extract

import (
	"regexp"
	"strings"
)

const (
	maxFieldLength = 300
	maxListItems   = 200
)

// Material is one product called for by a division.
type Material struct {
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
	Standard     string `json:"standard"`
	Requirement  string `json:"requirement"`
}

type Submittal struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Timing      string `json:"timing"`
}

type Coordination struct {
	Trade  string `json:"trade"`
	Item   string `json:"item"`
	Timing string `json:"timing"`
}

// DivisionDetails is the sanitized extraction result for one division.
// Unknown keys in model output are dropped by decoding into it.
type DivisionDetails struct {
	Summary       string         `json:"summary"`
	Materials     []Material     `json:"materials"`
	Manufacturers []string       `json:"manufacturers"`
	Requirements  []string       `json:"requirements"`
	Submittals    []Submittal    `json:"submittals"`
	Coordination  []Coordination `json:"coordination"`
}

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`act\s+as\s+|pretend\s+|forget\s+(everything|all)|override|` +
		`new\s+instructions)`,
)

// Sanitize trims and bounds every field, removes duplicates and entries
// that look like prompt injection, and replaces nil lists with empty ones.
// It reports whether anything worth returning is left.
func (d *DivisionDetails) Sanitize() bool {
	d.Summary = cleanField(d.Summary)

	materials := make([]Material, 0, len(d.Materials))
	for _, m := range d.Materials {
		m = Material{
			Name:         cleanField(m.Name),
			Manufacturer: cleanField(m.Manufacturer),
			Standard:     cleanField(m.Standard),
			Requirement:  cleanField(m.Requirement),
		}
		if m.Name == "" {
			continue
		}
		materials = append(materials, m)
	}
	d.Materials = capList(materials)

	d.Manufacturers = cleanList(d.Manufacturers, true)
	d.Requirements = cleanList(d.Requirements, false)

	submittals := make([]Submittal, 0, len(d.Submittals))
	for _, s := range d.Submittals {
		s = Submittal{Type: cleanField(s.Type), Description: cleanField(s.Description), Timing: cleanField(s.Timing)}
		if s.Type == "" && s.Description == "" {
			continue
		}
		submittals = append(submittals, s)
	}
	d.Submittals = capList(submittals)

	coordination := make([]Coordination, 0, len(d.Coordination))
	for _, c := range d.Coordination {
		c = Coordination{Trade: cleanField(c.Trade), Item: cleanField(c.Item), Timing: cleanField(c.Timing)}
		if c.Item == "" {
			continue
		}
		coordination = append(coordination, c)
	}
	d.Coordination = capList(coordination)

	return d.Summary != "" || len(d.Materials) > 0 || len(d.Manufacturers) > 0 ||
		len(d.Requirements) > 0 || len(d.Submittals) > 0 || len(d.Coordination) > 0
}

func cleanField(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if injectionPattern.MatchString(s) {
		return ""
	}
	if len(s) > maxFieldLength {
		cut := maxFieldLength
		for cut > 0 && !isRuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

func cleanList(items []string, foldDuplicates bool) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool)
	for _, item := range items {
		item = cleanField(item)
		if item == "" {
			continue
		}
		key := item
		if foldDuplicates {
			key = strings.ToLower(item)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return capList(out)
}

func capList[T any](items []T) []T {
	if len(items) > maxListItems {
		return items[:maxListItems]
	}
	return items
}

var (
	slugInvalidRe = regexp.MustCompile(`[^a-z0-9-]`)
	slugDashesRe  = regexp.MustCompile(`-+`)
)

// Slugify converts a string to a URL/path-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalidRe.ReplaceAllString(s, "-")
	s = slugDashesRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = s[:50]
	}
	return s
}
