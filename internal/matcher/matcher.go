// Package matcher implements the cross-platform market matcher of
// spec.md §4.5: a cheap pre-filter followed by a fuzzy title ranker.
package matcher

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/mselser95/arb-scanner/pkg/types"
)

// Config mirrors the matching configuration enumerated in spec.md §6.
type Config struct {
	Threshold          float64
	MaxDateDiffDays    int
	MinMatchCharLength int
}

// DefaultConfig returns the spec's reference matching envelope.
func DefaultConfig() Config {
	return Config{
		Threshold:          0.60,
		MaxDateDiffDays:    30,
		MinMatchCharLength: 3,
	}
}

var stopWords = map[string]struct{}{
	"will": {}, "the": {}, "be": {}, "in": {}, "on": {}, "at": {}, "to": {},
	"a": {}, "an": {}, "is": {}, "are": {}, "was": {}, "were": {}, "for": {},
	"of": {}, "by": {}, "or": {},
}

// Matcher pairs markets from platform A with their best counterpart in
// platform B.
type Matcher struct {
	cfg Config
}

// New builds a Matcher with the given configuration.
func New(cfg Config) *Matcher {
	return &Matcher{cfg: cfg}
}

// FindMatches returns at most one MarketMatch per element of listA.
func (m *Matcher) FindMatches(listA, listB []*types.StandardMarket) []*types.MarketMatch {
	matches := make([]*types.MarketMatch, 0, len(listA))
	for _, a := range listA {
		candidates := m.prefilter(a, listB)
		if len(candidates) == 0 {
			continue
		}

		best, distance, found := m.rank(a, candidates)
		if !found {
			continue
		}

		score := int(((1 - distance) * 100) + 0.5)
		match := &types.MarketMatch{
			MarketA:   a,
			MarketB:   best,
			Score:     score,
			MatchedBy: types.MatchFuzzy,
		}
		if err := match.Validate(); err != nil {
			continue
		}
		matches = append(matches, match)
	}
	return matches
}

// prefilter narrows candidates by date proximity, keyword overlap, and
// outcome cardinality, per spec.md §4.5.
func (m *Matcher) prefilter(a *types.StandardMarket, listB []*types.StandardMarket) []*types.StandardMarket {
	keywordsA := keywords(a.Title)

	// Outcomes is a fixed-size array; an outcome with no name is unset.
	outcomeCount := func(s *types.StandardMarket) int {
		n := 0
		for _, o := range s.Outcomes {
			if o.Name != "" {
				n++
			}
		}
		return n
	}
	countA := outcomeCount(a)

	candidates := make([]*types.StandardMarket, 0, len(listB))
	for _, b := range listB {
		if outcomeCount(b) != countA {
			continue
		}
		if a.EndDate != nil && b.EndDate != nil {
			diff := a.EndDate.Sub(*b.EndDate)
			if diff < 0 {
				diff = -diff
			}
			if diff.Hours() > float64(m.cfg.MaxDateDiffDays*24) {
				continue
			}
		}
		if !sharesKeyword(keywordsA, keywords(b.Title)) {
			continue
		}
		candidates = append(candidates, b)
	}
	return candidates
}

// rank runs the fuzzy ranker over candidates, keyed on title, and returns
// the best (lowest normalized distance) result. Ties keep the first
// candidate in input order, matching the ranker's stability guarantee.
func (m *Matcher) rank(a *types.StandardMarket, candidates []*types.StandardMarket) (*types.StandardMarket, float64, bool) {
	type scored struct {
		market   *types.StandardMarket
		distance float64
	}

	results := make([]scored, 0, len(candidates))
	for _, b := range candidates {
		d := normalizedDistance(a.Title, b.Title, m.cfg.MinMatchCharLength)
		results = append(results, scored{market: b, distance: d})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].distance < results[j].distance
	})

	if len(results) == 0 {
		return nil, 0, false
	}

	best := results[0]
	if best.distance > (1 - m.cfg.Threshold) {
		return nil, 0, false
	}
	return best.market, best.distance, true
}

// normalizedDistance computes a location-independent Levenshtein distance
// normalized to [0,1], floored at zero similarity for titles too short to
// satisfy the minimum match-run length.
func normalizedDistance(a, b string, minMatchCharLength int) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if len(a) < minMatchCharLength || len(b) < minMatchCharLength {
		return 1
	}

	dist := levenshtein.ComputeDistance(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0
	}
	return float64(dist) / float64(maxLen)
}

// keywords extracts lowercased tokens of length > 2 after punctuation to
// whitespace normalization, with the stop-word set removed.
func keywords(title string) map[string]struct{} {
	normalized := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return ' '
	}, strings.ToLower(title))

	set := make(map[string]struct{})
	for _, tok := range strings.Fields(normalized) {
		if len(tok) <= 2 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		set[tok] = struct{}{}
	}
	return set
}

func sharesKeyword(a, b map[string]struct{}) bool {
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}
