package coercer

import (
	"math"
	"strconv"
	"strings"

	"surveylens/domain/dataset"
)

// TypeCoercer decides column storage types and converts raw cells to numbers
type TypeCoercer struct {
	config  CoercionConfig
	missing map[string]bool
}

// CoercionConfig defines the coercion thresholds and rules
type CoercionConfig struct {
	NumericThreshold float64  `json:"numeric_threshold"` // share of present cells that must parse as numbers
	Lenient          bool     `json:"lenient"`           // accept currency, percent, (negatives) and European decimals
	MissingTokens    []string `json:"missing_tokens"`    // cells read as missing, compared case-sensitively after trimming
}

// DefaultCoercionConfig mirrors how spreadsheet tools load survey exports:
// a column is numeric only when every present cell is a plain number.
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NumericThreshold: 1.0,
		MissingTokens: []string{
			"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
			"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
			"n/a", "nan", "null",
		},
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	missing := make(map[string]bool, len(config.MissingTokens))
	for _, tok := range config.MissingTokens {
		missing[tok] = true
	}
	return &TypeCoercer{config: config, missing: missing}
}

// IsMissing reports whether a raw cell denotes a missing value
func (c *TypeCoercer) IsMissing(raw string) bool {
	return c.missing[strings.TrimSpace(raw)]
}

// ParseNumber converts a raw cell to a finite number
func (c *TypeCoercer) ParseNumber(raw string) (float64, bool) {
	if c.IsMissing(raw) {
		return 0, false
	}
	if c.config.Lenient {
		return parseLenient(raw)
	}
	return parseStrict(raw)
}

// ParseFunc exposes ParseNumber as a dataset.ParseFunc
func (c *TypeCoercer) ParseFunc() dataset.ParseFunc {
	return c.ParseNumber
}

// AnalyzeTypeDistribution counts how many present cells parse as numbers
func (c *TypeCoercer) AnalyzeTypeDistribution(values []string) TypeAnalysis {
	analysis := TypeAnalysis{TotalCount: len(values)}
	for _, raw := range values {
		if c.IsMissing(raw) {
			continue
		}
		analysis.ValidCount++
		if _, ok := c.ParseNumber(raw); ok {
			analysis.NumericCount++
		}
	}
	if analysis.ValidCount > 0 {
		analysis.NumericRatio = float64(analysis.NumericCount) / float64(analysis.ValidCount)
	}
	analysis.RecommendedType = c.determineRecommendedType(analysis)
	return analysis
}

// BuildColumn turns raw cells into a typed column using the recommended type
func (c *TypeCoercer) BuildColumn(name string, values []string) *dataset.Column {
	analysis := c.AnalyzeTypeDistribution(values)
	if analysis.RecommendedType == dataset.TypeNumeric {
		numbers := make([]float64, len(values))
		for i, raw := range values {
			if v, ok := c.ParseNumber(raw); ok {
				numbers[i] = v
			} else {
				numbers[i] = math.NaN()
			}
		}
		return dataset.NewNumericColumn(name, numbers)
	}

	texts := make([]string, len(values))
	for i, raw := range values {
		if !c.IsMissing(raw) {
			texts[i] = raw
		}
	}
	return dataset.NewTextColumn(name, texts)
}

// determineRecommendedType chooses the storage type based on analysis.
// A column with no present cells at all is numeric, like an all-blank spreadsheet column.
func (c *TypeCoercer) determineRecommendedType(analysis TypeAnalysis) dataset.ColumnType {
	if analysis.ValidCount == 0 || analysis.NumericRatio >= c.config.NumericThreshold {
		return dataset.TypeNumeric
	}
	return dataset.TypeText
}

// TypeAnalysis contains the results of type distribution analysis
type TypeAnalysis struct {
	TotalCount      int                `json:"total_count"`
	ValidCount      int                `json:"valid_count"`
	NumericCount    int                `json:"numeric_count"`
	NumericRatio    float64            `json:"numeric_ratio"`
	RecommendedType dataset.ColumnType `json:"recommended_type"`
}

func parseStrict(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// parseLenient handles international formats: parentheses for negatives,
// European decimals, currency symbols and percent signs.
func parseLenient(raw string) (float64, bool) {
	cleanVal := strings.TrimSpace(raw)
	if cleanVal == "" {
		return 0, false
	}

	isNegative := false
	if strings.HasPrefix(cleanVal, "(") && strings.HasSuffix(cleanVal, ")") {
		cleanVal = strings.TrimSuffix(strings.TrimPrefix(cleanVal, "("), ")")
		isNegative = true
	}

	for _, symbol := range []string{"$", "€", "£", "¥", "USD", "EUR", "GBP", "JPY", "%"} {
		cleanVal = strings.ReplaceAll(cleanVal, symbol, "")
	}
	cleanVal = strings.TrimSpace(cleanVal)

	hasComma := strings.Contains(cleanVal, ",")
	hasPeriod := strings.Contains(cleanVal, ".")
	hasSpace := strings.Contains(cleanVal, " ")

	switch {
	case hasComma && (hasPeriod || hasSpace):
		commaIdx := strings.LastIndex(cleanVal, ",")
		afterComma := cleanVal[commaIdx+1:]
		if len(afterComma) <= 2 && isDigits(afterComma) {
			// 1.234,56 or 1 234,56
			cleanVal = strings.ReplaceAll(cleanVal, ".", "")
			cleanVal = strings.ReplaceAll(cleanVal, " ", "")
			cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
		} else {
			cleanVal = strings.ReplaceAll(cleanVal, ",", "")
			cleanVal = strings.ReplaceAll(cleanVal, " ", "")
		}
	case hasComma:
		commaIdx := strings.LastIndex(cleanVal, ",")
		if len(cleanVal)-commaIdx-1 == 3 && strings.Count(cleanVal, ",") >= 1 && !strings.HasPrefix(cleanVal, "0,") {
			// 1,234 reads as thousands
			cleanVal = strings.ReplaceAll(cleanVal, ",", "")
		} else {
			cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
		}
	default:
		cleanVal = strings.ReplaceAll(cleanVal, " ", "")
	}

	if isNegative {
		cleanVal = "-" + cleanVal
	}
	return parseStrict(cleanVal)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
