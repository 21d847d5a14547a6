// Package tableness decides whether a text fragment is table-shaped and
// must be kept out of the narrative corpus at ingestion time, so the same
// fact never lands in both retrieval paths. The decision is the OR of
// independent cheap signals; a false negative only duplicates context,
// while a false positive loses narrative, so thresholds default to the
// conservative side and stay externally tunable.
package tableness

import (
	"regexp"
	"strings"
)

type Config struct {
	// MarkerPrefixes short-circuit the decision when the fragment starts
	// with a known table-data literal.
	MarkerPrefixes []string

	// MinDateMatches flags fragments carrying this many ISO dates.
	MinDateMatches int

	// MinCurrencyMatches flags fragments carrying this many dollar amounts.
	MinCurrencyMatches int

	// MinTabCount flags fragments whose tab density signals cell layout.
	MinTabCount int

	// MinTokens is the minimum token count before the transition signal is
	// considered at all; short sentences alternate naturally.
	MinTokens int

	// MinTransitions flags fragments whose alphabetic<->numeric token
	// transitions signal cell-by-cell structure.
	MinTransitions int
}

func DefaultConfig() Config {
	return Config{
		MarkerPrefixes:     []string{"Table data:", "table data:", "| ", "<table"},
		MinDateMatches:     3,
		MinCurrencyMatches: 3,
		MinTabCount:        3,
		MinTokens:          8,
		MinTransitions:     6,
	}
}

var (
	isoDatePattern  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	currencyPattern = regexp.MustCompile(`\$[\d,]+\.?\d*`)
	numericToken    = regexp.MustCompile(`^[\d$,.\-]`)
)

type Classifier struct {
	cfg Config
}

func New(cfg Config) *Classifier {
	def := DefaultConfig()
	if len(cfg.MarkerPrefixes) == 0 {
		cfg.MarkerPrefixes = def.MarkerPrefixes
	}
	if cfg.MinDateMatches <= 0 {
		cfg.MinDateMatches = def.MinDateMatches
	}
	if cfg.MinCurrencyMatches <= 0 {
		cfg.MinCurrencyMatches = def.MinCurrencyMatches
	}
	if cfg.MinTabCount <= 0 {
		cfg.MinTabCount = def.MinTabCount
	}
	if cfg.MinTokens <= 0 {
		cfg.MinTokens = def.MinTokens
	}
	if cfg.MinTransitions <= 0 {
		cfg.MinTransitions = def.MinTransitions
	}
	return &Classifier{cfg: cfg}
}

// IsTableLike reports whether the fragment appears to be tabular data
// rather than narrative prose.
func (c *Classifier) IsTableLike(text string) bool {
	return c.hasMarkerPrefix(text) ||
		c.hasDateRun(text) ||
		c.hasTabDensity(text) ||
		c.hasCellTransitions(text) ||
		c.hasCurrencyRun(text)
}

func (c *Classifier) hasMarkerPrefix(text string) bool {
	for _, prefix := range c.cfg.MarkerPrefixes {
		if strings.HasPrefix(text, prefix) {
			return true
		}
	}
	return false
}

func (c *Classifier) hasDateRun(text string) bool {
	return len(isoDatePattern.FindAllStringIndex(text, c.cfg.MinDateMatches)) >= c.cfg.MinDateMatches
}

func (c *Classifier) hasCurrencyRun(text string) bool {
	return len(currencyPattern.FindAllStringIndex(text, c.cfg.MinCurrencyMatches)) >= c.cfg.MinCurrencyMatches
}

func (c *Classifier) hasTabDensity(text string) bool {
	return strings.Count(text, "\t") >= c.cfg.MinTabCount
}

// hasCellTransitions counts word<->number boundaries across tokens.
// "Design 2024-01-30 2024-02-26 Development 2024-02-27 ..." alternates
// often enough to read as a flattened table row.
func (c *Classifier) hasCellTransitions(text string) bool {
	tokens := strings.Fields(text)
	if len(tokens) < c.cfg.MinTokens {
		return false
	}

	transitions := 0
	prevNumeric := numericToken.MatchString(tokens[0])
	for _, token := range tokens[1:] {
		numeric := numericToken.MatchString(token)
		if numeric != prevNumeric {
			transitions++
		}
		prevNumeric = numeric
	}
	return transitions >= c.cfg.MinTransitions
}
