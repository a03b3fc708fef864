// Package surveygen writes synthetic survey exports with known structure, for
// demos and for exercising the loaders end to end.
package surveygen

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Dataset is a generated export: a header row and formatted cells.
//
// Columns:
// - respondent_id
// - region (North, South, East, West)
// - plan (Free, Pro)
// - satisfaction (1..5, shifted by region)
// - nps (0..10, tracks satisfaction)
// - tenure_months
// - feature_reports, feature_alerts, feature_export, feature_api (0/1, Pro selects more)
// - improve_speed, improve_price, improve_support (0/1)
// - comments (free text, some blank)
type Dataset struct {
	Headers []string
	Rows    [][]string

	// Numeric series for tests
	Satisfaction []float64
	NPS          []float64
}

type Config struct {
	Rows int
	Seed int64

	// Share of blank comments and satisfaction answers
	MissingRate float64
}

func DefaultConfig() Config {
	return Config{
		Rows:        300,
		Seed:        42,
		MissingRate: 0.1,
	}
}

var (
	regions = []string{"North", "South", "East", "West"}
	// Mean satisfaction shift per region
	regionShift = map[string]float64{"North": 0.6, "South": -0.4, "East": 0, "West": 0.2}

	features     = []string{"reports", "alerts", "export", "api"}
	improvements = []string{"speed", "price", "support"}

	positive = []string{
		"the reports are easy to read and share with the team",
		"alerts save me a lot of time every single week",
		"setup was quick and support answered within the hour",
		"exporting to spreadsheets works well for our monthly review",
	}
	negative = []string{
		"the app is slow when loading large dashboards",
		"pricing is too high for a small team like ours",
		"support took days to answer a simple billing question",
		"the api documentation is missing examples for common tasks",
	}
)

func Generate(cfg Config) (*Dataset, error) {
	if cfg.Rows <= 0 {
		return nil, fmt.Errorf("rows must be > 0")
	}
	if cfg.MissingRate < 0 || cfg.MissingRate >= 1 {
		return nil, fmt.Errorf("missing rate must be in [0, 1)")
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	headers := []string{"respondent_id", "region", "plan", "satisfaction", "nps", "tenure_months"}
	for _, f := range features {
		headers = append(headers, "feature_"+f)
	}
	for _, i := range improvements {
		headers = append(headers, "improve_"+i)
	}
	headers = append(headers, "comments")

	ds := &Dataset{
		Headers:      headers,
		Rows:         make([][]string, cfg.Rows),
		Satisfaction: make([]float64, cfg.Rows),
		NPS:          make([]float64, cfg.Rows),
	}

	for t := 0; t < cfg.Rows; t++ {
		region := regions[rng.Intn(len(regions))]
		plan := "Free"
		if rng.Float64() < 0.4 {
			plan = "Pro"
		}

		// Satisfaction: 1..5 around 3.5 shifted by region
		sat := clamp(math.Round(3.5+regionShift[region]+rng.NormFloat64()*0.9), 1, 5)
		nps := clamp(math.Round(sat*2+rng.NormFloat64()*1.2), 0, 10)
		tenure := 1 + rng.Intn(48)

		ds.Satisfaction[t] = sat
		ds.NPS[t] = nps

		row := make([]string, 0, len(headers))
		row = append(row, fmt.Sprintf("R%04d", t+1), region, plan)
		if rng.Float64() < cfg.MissingRate {
			row = append(row, "")
			ds.Satisfaction[t] = math.NaN()
		} else {
			row = append(row, fToStr(sat, 0))
		}
		row = append(row, fToStr(nps, 0), strconv.Itoa(tenure))

		for i := range features {
			p := 0.25 + 0.1*float64(i)
			if plan == "Pro" {
				p += 0.3
			}
			row = append(row, indicator(rng, p))
		}
		for range improvements {
			p := 0.2
			if sat <= 2 {
				p = 0.6
			}
			row = append(row, indicator(rng, p))
		}
		row = append(row, comment(rng, sat, cfg.MissingRate))

		ds.Rows[t] = row
	}

	return ds, nil
}

func comment(rng *rand.Rand, sat, missingRate float64) string {
	if rng.Float64() < missingRate {
		return ""
	}
	pool := positive
	if sat <= 3 {
		pool = negative
	}
	parts := []string{pool[rng.Intn(len(pool))]}
	if rng.Float64() < 0.3 {
		parts = append(parts, pool[rng.Intn(len(pool))])
	}
	return strings.Join(parts, " and ")
}

func indicator(rng *rand.Rand, p float64) string {
	if rng.Float64() < p {
		return "1"
	}
	return "0"
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func WriteCSV(path string, ds *Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(ds.Headers); err != nil {
		return err
	}
	for _, row := range ds.Rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteXLSX writes numeric cells as numbers so spreadsheet tools see them typed
func WriteXLSX(path string, ds *Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return err
		}
		f.SetActiveSheet(idx)
	}

	for i, h := range ds.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for r := 0; r < len(ds.Rows); r++ {
		rowIdx := r + 2
		for c, v := range ds.Rows[r] {
			if v == "" {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, rowIdx)
			var value interface{} = v
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				value = n
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(path)
}

func fToStr(x float64, decimals int) string {
	p := math.Pow10(decimals)
	x = math.Round(x*p) / p
	return strconv.FormatFloat(x, 'f', decimals, 64)
}
