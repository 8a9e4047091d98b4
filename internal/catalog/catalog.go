// Package catalog holds the division reference data used to recognize and
// target parts of a construction specification: valid CSI MasterFormat
// division codes, their titles, classification keywords and trade aliases.
//
// A Catalog is immutable once built and safe for concurrent use.
package catalog

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Division is one MasterFormat division.
type Division struct {
	Code     string   `json:"code" yaml:"code"`
	Title    string   `json:"title" yaml:"title"`
	Keywords []string `json:"keywords,omitempty" yaml:"keywords"`
}

// Trade maps a trade name such as "masonry" to a division.
type Trade struct {
	Name     string   `json:"name" yaml:"name"`
	Division string   `json:"division" yaml:"division"`
	Label    string   `json:"label" yaml:"label"`
	Keywords []string `json:"keywords,omitempty" yaml:"keywords"`
}

// Target is a resolved division request.
type Target struct {
	Code     string
	Label    string
	Keywords []string
}

type Catalog struct {
	divisions map[string]Division
	codes     []string
	trades    map[string]Trade
}

var codeRe = regexp.MustCompile(`^\d{2}$`)

// New builds a catalog from divisions and trades. Later entries with the
// same code or trade name replace earlier ones.
func New(divisions []Division, trades []Trade) (*Catalog, error) {
	c := &Catalog{
		divisions: make(map[string]Division, len(divisions)),
		trades:    make(map[string]Trade, len(trades)),
	}
	for _, d := range divisions {
		if !codeRe.MatchString(d.Code) {
			return nil, fmt.Errorf("invalid division code %q", d.Code)
		}
		d.Keywords = upperAll(d.Keywords)
		c.divisions[d.Code] = d
	}
	for _, t := range trades {
		name := strings.ToLower(strings.TrimSpace(t.Name))
		if name == "" {
			return nil, fmt.Errorf("trade for division %q has no name", t.Division)
		}
		if _, ok := c.divisions[t.Division]; !ok {
			return nil, fmt.Errorf("trade %q references unknown division %q", name, t.Division)
		}
		t.Name = name
		t.Keywords = upperAll(t.Keywords)
		c.trades[name] = t
	}
	for code := range c.divisions {
		c.codes = append(c.codes, code)
	}
	sort.Strings(c.codes)
	return c, nil
}

// Default returns the built-in MasterFormat catalog.
func Default() *Catalog {
	c, err := New(defaultDivisions, defaultTrades)
	if err != nil {
		panic(err)
	}
	return c
}

type fileFormat struct {
	Divisions []Division `yaml:"divisions"`
	Trades    []Trade    `yaml:"trades"`
}

// Load reads a YAML override file and layers it over the default catalog.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse layers YAML catalog data over the default catalog.
func Parse(data []byte) (*Catalog, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	divisions := append([]Division(nil), defaultDivisions...)
	for _, d := range f.Divisions {
		if d.Title == "" {
			if base, ok := findDivision(defaultDivisions, d.Code); ok {
				d.Title = base.Title
			}
		}
		divisions = append(divisions, d)
	}
	trades := append(append([]Trade(nil), defaultTrades...), f.Trades...)
	return New(divisions, trades)
}

func findDivision(divs []Division, code string) (Division, bool) {
	for _, d := range divs {
		if d.Code == code {
			return d, true
		}
	}
	return Division{}, false
}

// Valid reports whether code is a known division code.
func (c *Catalog) Valid(code string) bool {
	_, ok := c.divisions[code]
	return ok
}

// Division looks up a division by code.
func (c *Catalog) Division(code string) (Division, bool) {
	d, ok := c.divisions[code]
	return d, ok
}

// Title returns the division title, or "" for unknown codes.
func (c *Catalog) Title(code string) string {
	return c.divisions[code].Title
}

// Codes returns all division codes in ascending order.
func (c *Catalog) Codes() []string {
	return append([]string(nil), c.codes...)
}

// Divisions returns all divisions ordered by code.
func (c *Catalog) Divisions() []Division {
	out := make([]Division, 0, len(c.codes))
	for _, code := range c.codes {
		out = append(out, c.divisions[code])
	}
	return out
}

// Trades returns all trade aliases ordered by name.
func (c *Catalog) Trades() []Trade {
	out := make([]Trade, 0, len(c.trades))
	for _, t := range c.trades {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolve turns a user supplied division reference into a Target. It accepts
// codes ("04", "4", "Division 04") and trade names ("masonry"). The boolean is
// false when the reference is not in the catalog; a well-formed but unknown
// code still comes back with its normalized Code set.
func (c *Catalog) Resolve(ref string) (Target, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Target{}, false
	}
	if t, ok := c.trades[strings.ToLower(ref)]; ok {
		return Target{Code: t.Division, Label: t.Label, Keywords: t.Keywords}, true
	}

	code, ok := NormalizeCode(ref)
	if !ok {
		return Target{}, false
	}
	d, ok := c.divisions[code]
	if !ok {
		return Target{Code: code}, false
	}
	return Target{Code: d.Code, Label: d.Title, Keywords: d.Keywords}, true
}

// NormalizeCode converts "4", "04" or "Division 4" into a two-digit code.
func NormalizeCode(ref string) (string, bool) {
	s := strings.TrimSpace(strings.ToUpper(ref))
	s = strings.TrimSpace(strings.TrimPrefix(s, "DIVISION"))
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 99 {
		return "", false
	}
	return fmt.Sprintf("%02d", n), true
}

func upperAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
