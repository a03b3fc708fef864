package analysis

import (
	"sort"
	"strings"

	"surveylens/domain/dataset"
)

// FrequencyDistribution counts tokens, remembering the order they first appeared in
type FrequencyDistribution struct {
	counts []dataset.TokenCount
	index  map[string]int
	total  int
}

// NewFrequencyDistribution counts the given tokens
func NewFrequencyDistribution(tokens []string) *FrequencyDistribution {
	f := &FrequencyDistribution{index: make(map[string]int)}
	for _, tok := range tokens {
		f.add(tok, 1)
	}
	return f
}

func (f *FrequencyDistribution) add(token string, n int) {
	if i, ok := f.index[token]; ok {
		f.counts[i].Count += n
	} else {
		f.index[token] = len(f.counts)
		f.counts = append(f.counts, dataset.TokenCount{Token: token, Count: n})
	}
	f.total += n
}

// Count returns how often token occurred
func (f *FrequencyDistribution) Count(token string) int {
	if i, ok := f.index[token]; ok {
		return f.counts[i].Count
	}
	return 0
}

// Len returns the number of distinct tokens
func (f *FrequencyDistribution) Len() int {
	return len(f.counts)
}

// Total returns the number of tokens counted
func (f *FrequencyDistribution) Total() int {
	return f.total
}

// Tokens returns every token with its count in first-appearance order
func (f *FrequencyDistribution) Tokens() []dataset.TokenCount {
	out := make([]dataset.TokenCount, len(f.counts))
	copy(out, f.counts)
	return out
}

// Top returns the n most frequent tokens; ties keep first-appearance order.
// n <= 0 returns every token ranked.
func (f *FrequencyDistribution) Top(n int) []dataset.TokenCount {
	ranked := f.Tokens()
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// Normalized scales counts so the most frequent token weighs 1, the form
// word-cloud renderers take as input.
func (f *FrequencyDistribution) Normalized() map[string]float64 {
	out := make(map[string]float64, len(f.counts))
	maxCount := 0
	for _, tc := range f.counts {
		if tc.Count > maxCount {
			maxCount = tc.Count
		}
	}
	if maxCount == 0 {
		return out
	}
	for _, tc := range f.counts {
		out[tc.Token] = float64(tc.Count) / float64(maxCount)
	}
	return out
}

// WithoutStopwords returns a copy that drops the given tokens
func (f *FrequencyDistribution) WithoutStopwords(stopwords map[string]bool) *FrequencyDistribution {
	out := &FrequencyDistribution{index: make(map[string]int)}
	for _, tc := range f.counts {
		if !stopwords[tc.Token] {
			out.add(tc.Token, tc.Count)
		}
	}
	return out
}

// DefaultStopwords are common English function words word clouds usually hide
var DefaultStopwords = toSet(strings.Fields(`
a about above after again against all am an and any are as at be because been
before being below between both but by can could did do does doing down during
each few for from further had has have having he her here hers herself him
himself his how i if in into is it its itself just me more most my myself no nor
not of off on once only or other our ours ourselves out over own same she should
so some such than that the their theirs them themselves then there these they
this those through to too under until up very was we were what when where which
while who whom why will with would you your yours yourself yourselves
`))

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// tokenize lowercases the present values of a column and splits them on whitespace
func tokenize(c *dataset.Column) []string {
	var tokens []string
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			continue
		}
		tokens = append(tokens, strings.Fields(strings.ToLower(c.Value(i)))...)
	}
	return tokens
}

// firstRichTextColumn returns the first text column that qualifies as rich text
func firstRichTextColumn(ds *dataset.Dataset) *dataset.Column {
	for _, c := range ds.Columns() {
		if IsRichText(c) {
			return c
		}
	}
	return nil
}

// GenerateTextDigest returns the token distribution of the first rich-text column
// and that column's name, or (nil, "") when no column qualifies.
func (a *Analyzer) GenerateTextDigest(ds *dataset.Dataset) (*FrequencyDistribution, string) {
	c := firstRichTextColumn(ds)
	if c == nil {
		a.logger.Debug("No rich-text column among %d columns", len(ds.ColumnNames()))
		return nil, ""
	}
	return NewFrequencyDistribution(tokenize(c)), c.Name
}
