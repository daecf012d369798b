// Package search implements the free-text listing filter and price-proximity
// ranking used by the listing search endpoint.
//
// Search is a pure function of its arguments: it never mutates the corpus,
// keeps no state between calls and never panics on odd input.
package search

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"huusy-marketplace/internal/models"
)

// Tolerance is the relative band used when a numeric token is compared
// against price and size.
const Tolerance = 0.15

var (
	bedroomsPattern  = regexp.MustCompile(`(?i)^(\d+)b$`)
	bathroomsPattern = regexp.MustCompile(`(?i)^(\d+)ba$`)
	suffixedAmount   = regexp.MustCompile(`(?i)^\d+[km]$`)
)

// Tokenize trims and lowercases the query and splits it on whitespace.
func Tokenize(query string) []string {
	return strings.Fields(strings.ToLower(strings.TrimSpace(query)))
}

// Search returns the listings of corpus that match every token of query.
// When the query carries a price-like token the result is ordered by relative
// distance of each listing's price from that amount; otherwise the corpus
// order is kept. An empty query returns a copy of the whole corpus.
func Search(corpus []models.Listing, query string) []models.Listing {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		out := make([]models.Listing, len(corpus))
		copy(out, corpus)
		return out
	}

	out := make([]models.Listing, 0)
	for i := range corpus {
		c := candidate{listing: &corpus[i]}
		if c.matchesAll(tokens) {
			out = append(out, corpus[i])
		}
	}

	if target, ok := RankTarget(tokens); ok {
		rankByPrice(out, target)
	}
	return out
}

// RankTarget returns the price amount named by the first price-like token:
// all digits, "$"-prefixed, or digits with a k/m suffix. ok is false when no
// such token exists or its amount is not positive.
func RankTarget(tokens []string) (float64, bool) {
	for _, token := range tokens {
		if !isRankingToken(token) {
			continue
		}
		n, ok := parseLeadingInt(stripChars(token, "$,kmKM"))
		if !ok {
			return 0, false
		}
		lower := strings.ToLower(token)
		switch {
		case strings.Contains(lower, "k"):
			n *= 1000
		case strings.Contains(lower, "m"):
			n *= 1000000
		}
		if n <= 0 || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func isRankingToken(token string) bool {
	return isDigits(token) || strings.HasPrefix(token, "$") || suffixedAmount.MatchString(token)
}

// candidate builds the text haystack of a listing at most once per search.
type candidate struct {
	listing  *models.Listing
	haystack string
	built    bool
}

func (c *candidate) text() string {
	if !c.built {
		c.haystack = buildHaystack(c.listing)
		c.built = true
	}
	return c.haystack
}

func (c *candidate) matchesAll(tokens []string) bool {
	for _, token := range tokens {
		if !c.matches(token) {
			return false
		}
	}
	return true
}

func (c *candidate) matches(token string) bool {
	l := c.listing

	if isDigits(token) || strings.HasPrefix(token, "$") {
		if n, ok := parseLeadingInt(stripChars(token, "$,")); ok {
			return matchNumber(l, n)
		}
	}
	if m := bedroomsPattern.FindStringSubmatch(token); m != nil {
		n, _ := parseLeadingInt(m[1])
		return intEquals(l.Bedrooms, n)
	}
	if m := bathroomsPattern.FindStringSubmatch(token); m != nil {
		n, _ := parseLeadingInt(m[1])
		return intEquals(l.Bathrooms, n)
	}
	return strings.Contains(c.text(), token)
}

func matchNumber(l *models.Listing, n float64) bool {
	band := n * Tolerance
	return within(l.Price, n, band) ||
		intEquals(l.Bedrooms, n) ||
		intEquals(l.Bathrooms, n) ||
		within(l.PropertySize, n, band)
}

func within(v *float64, n, band float64) bool {
	return v != nil && math.Abs(*v-n) <= band
}

func intEquals(v *int, n float64) bool {
	return v != nil && float64(*v) == n
}

// rankByPrice sorts in place. A missing price counts as zero.
func rankByPrice(listings []models.Listing, target float64) {
	sort.SliceStable(listings, func(i, j int) bool {
		return priceDistance(&listings[i], target) < priceDistance(&listings[j], target)
	})
}

func priceDistance(l *models.Listing, target float64) float64 {
	price := 0.0
	if l.Price != nil {
		price = *l.Price
	}
	return math.Abs((price - target) / target)
}
