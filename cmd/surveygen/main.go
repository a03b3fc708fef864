package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"surveylens/adapters/excel"
	"surveylens/internal/surveygen"
)

func main() {
	out := flag.String("out", "survey_export.xlsx", "output file path")
	rows := flag.Int("rows", 300, "number of respondents")
	format := flag.String("format", "", "output format: xlsx or csv (default inferred from -out)")
	seed := flag.Int64("seed", 42, "RNG seed (deterministic)")
	missing := flag.Float64("missing", 0.1, "share of blank answers in satisfaction and comments")
	flag.Parse()

	if *rows <= 0 {
		fmt.Fprintln(os.Stderr, "rows must be > 0")
		os.Exit(2)
	}

	fmtName := strings.ToLower(strings.TrimSpace(*format))
	if fmtName == "" {
		fmtName = excel.FileTypeFor(*out)
	}

	cfg := surveygen.DefaultConfig()
	cfg.Rows = *rows
	cfg.Seed = *seed
	cfg.MissingRate = *missing

	ds, err := surveygen.Generate(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error generating survey:", err)
		os.Exit(1)
	}

	switch fmtName {
	case "csv":
		err = surveygen.WriteCSV(*out, ds)
	case "xlsx":
		err = surveygen.WriteXLSX(*out, ds)
	default:
		fmt.Fprintln(os.Stderr, "unsupported format:", fmtName)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error writing %s: %v\n", fmtName, err)
		os.Exit(1)
	}

	fmt.Printf("Survey export written: %s\n", *out)
	fmt.Printf("Columns: %d | Respondents: %d\n", len(ds.Headers), len(ds.Rows))
}
