package main

import (
	"fmt"
	"os"
	"strings"

	"surveylens/adapters/excel"
	"surveylens/domain/dataset"
	"surveylens/internal/analysis"
	"surveylens/internal/errors"
	"surveylens/internal/profiling"
	"surveylens/internal/report"

	"github.com/spf13/cobra"
)

// options are the flags shared by every command
type options struct {
	format  string
	sheet   string
	lenient bool
	inPlace bool
	filters []string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "surveylens",
		Short:         "Analyze survey exports from CSV or XLSX files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.format, "format", "o", formatTable, "Output format: table, json or yaml")
	flags.StringVar(&opts.sheet, "sheet", "", "XLSX sheet to read (default: first sheet)")
	flags.BoolVar(&opts.lenient, "lenient", false, "Accept currency, percent and European decimals as numbers")
	flags.BoolVar(&opts.inPlace, "in-place", false, "Let analyses add derived columns such as Cluster")
	flags.StringArrayVar(&opts.filters, "filter", nil, "Keep rows where column matches, as column=value1,value2 (repeatable)")

	rootCmd.AddCommand(
		newSummaryCmd(opts),
		newColumnsCmd(opts),
		newSegmentCmd(opts),
		newOverviewCmd(opts),
		newCheckboxCmd(opts),
		newGroupsCmd(opts),
		newGroupCmd(opts),
		newAdvancedCmd(opts),
		newDigestCmd(opts),
		newProfileCmd(opts),
		newReportCmd(opts),
	)
	return rootCmd
}

// load reads the file, applies --filter and builds the analyzer
func (o *options) load(path string) (*dataset.Dataset, *analysis.Analyzer, error) {
	if err := validateFormat(o.format); err != nil {
		return nil, nil, err
	}

	readerConfig := excel.DefaultExcelConfig()
	readerConfig.FilePath = path
	readerConfig.Sheet = o.sheet
	readerConfig.CoercionConfig.Lenient = o.lenient
	ds, err := excel.NewDataReader(readerConfig).ReadDataset()
	if err != nil {
		return nil, nil, err
	}

	filters, err := parseFilters(o.filters)
	if err != nil {
		return nil, nil, err
	}
	if len(filters) > 0 {
		if ds, err = analysis.ApplyFilters(ds, filters); err != nil {
			return nil, nil, err
		}
	}

	config := analysis.DefaultConfig()
	config.InPlace = o.inPlace
	config.Coercion.Lenient = o.lenient
	return ds, analysis.NewAnalyzer(config), nil
}

func parseFilters(raw []string) (map[string][]string, error) {
	filters := make(map[string][]string)
	for _, f := range raw {
		column, values, ok := strings.Cut(f, "=")
		if !ok || column == "" {
			return nil, errors.InvalidInput(fmt.Sprintf("invalid filter %q, expected column=value1,value2", f))
		}
		filters[column] = append(filters[column], strings.Split(values, ",")...)
	}
	return filters, nil
}

func newSummaryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary [file]",
		Short: "Describe numeric columns, checkbox selection rates and top words",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, analyzer, err := opts.load(args[0])
			if err != nil {
				return err
			}
			return printLines(cmd.OutOrStdout(), opts.format, "summary", analyzer.GenerateSummary(ds))
		},
	}
}

func newColumnsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "columns [file]",
		Short: "List columns with their detected roles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, _, err := opts.load(args[0])
			if err != nil {
				return err
			}
			return printColumns(cmd.OutOrStdout(), opts.format, analysis.DescribeColumns(ds))
		},
	}
}

func newSegmentCmd(opts *options) *cobra.Command {
	var segment, metric string
	cmd := &cobra.Command{
		Use:     "segment [file]",
		Short:   "Compare the mean of a metric across segments",
		Example: `  surveylens segment survey.csv --segment region --metric satisfaction`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, analyzer, err := opts.load(args[0])
			if err != nil {
				return err
			}
			result, err := analyzer.PerformSegmentAnalysis(ds, segment, metric)
			if err != nil {
				return err
			}
			return printTable(cmd.OutOrStdout(), opts.format, result.Table(), result)
		},
	}
	cmd.Flags().StringVar(&segment, "segment", "", "Column to group rows by")
	cmd.Flags().StringVar(&metric, "metric", "", "Numeric column to average")
	_ = cmd.MarkFlagRequired("segment")
	_ = cmd.MarkFlagRequired("metric")
	return cmd
}

func newOverviewCmd(opts *options) *cobra.Command {
	var column string
	cmd := &cobra.Command{
		Use:   "overview [file]",
		Short: "Count responses per value of a column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, analyzer, err := opts.load(args[0])
			if err != nil {
				return err
			}
			table, err := analyzer.SegmentSummary(ds, column)
			if err != nil {
				return err
			}
			return printTable(cmd.OutOrStdout(), opts.format, table, table)
		},
	}
	cmd.Flags().StringVar(&column, "column", "", "Column to count")
	_ = cmd.MarkFlagRequired("column")
	return cmd
}

func newCheckboxCmd(opts *options) *cobra.Command {
	var checkbox, segment string
	cmd := &cobra.Command{
		Use:   "checkbox [file]",
		Short: "Compare how often a checkbox option is selected across segments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, analyzer, err := opts.load(args[0])
			if err != nil {
				return err
			}
			result, err := analyzer.AnalyzeCheckboxBySegment(ds, checkbox, segment)
			if err != nil {
				return err
			}
			return printTable(cmd.OutOrStdout(), opts.format, result.Table(), result)
		},
	}
	cmd.Flags().StringVar(&checkbox, "checkbox", "", "0/1 indicator column")
	cmd.Flags().StringVar(&segment, "segment", "", "Column to group rows by")
	_ = cmd.MarkFlagRequired("checkbox")
	_ = cmd.MarkFlagRequired("segment")
	return cmd
}

func newGroupsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "groups [file]",
		Short: "List multi-select question groups detected from column prefixes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, _, err := opts.load(args[0])
			if err != nil {
				return err
			}
			return printGroups(cmd.OutOrStdout(), opts.format, analysis.ResolveCheckboxGroups(ds))
		},
	}
}

func newGroupCmd(opts *options) *cobra.Command {
	var prefix, segment string
	cmd := &cobra.Command{
		Use:   "group [file]",
		Short: "Break down every option of a question group by segment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, analyzer, err := opts.load(args[0])
			if err != nil {
				return err
			}
			result, err := analyzer.AnalyzeCheckboxGroup(ds, prefix, segment)
			if err != nil {
				return err
			}
			if result.Empty() {
				return errors.InsufficientData("No data found for this question group.")
			}
			return printTable(cmd.OutOrStdout(), opts.format, result.Table(), result)
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "Question group prefix")
	cmd.Flags().StringVar(&segment, "segment", "", "Column to group rows by")
	_ = cmd.MarkFlagRequired("prefix")
	_ = cmd.MarkFlagRequired("segment")
	return cmd
}

func newAdvancedCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "advanced [file]",
		Short: "Run correlation, ANOVA, regression and clustering",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, analyzer, err := opts.load(args[0])
			if err != nil {
				return err
			}
			result := analyzer.RunAdvancedAnalysis(ds)
			return printAdvanced(cmd.OutOrStdout(), opts.format, result, report.Interpret(result))
		},
	}
}

func newDigestCmd(opts *options) *cobra.Command {
	var (
		top           int
		keepStopwords bool
	)
	cmd := &cobra.Command{
		Use:   "digest [file]",
		Short: "Count words in the first free-text column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, analyzer, err := opts.load(args[0])
			if err != nil {
				return err
			}
			freq, column := analyzer.GenerateTextDigest(ds)
			if freq == nil {
				return errors.InsufficientData("No suitable text column found for wordcloud.")
			}
			if !keepStopwords {
				freq = freq.WithoutStopwords(analysis.DefaultStopwords)
			}
			return printTokens(cmd.OutOrStdout(), opts.format, column, freq.Top(top))
		},
	}
	cmd.Flags().IntVar(&top, "top", 20, "Number of words to show (0 shows all)")
	cmd.Flags().BoolVar(&keepStopwords, "keep-stopwords", false, "Keep common English words")
	return cmd
}

func newProfileCmd(opts *options) *cobra.Command {
	var column string
	cmd := &cobra.Command{
		Use:   "profile [file]",
		Short: "Describe the distribution of numeric columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, _, err := opts.load(args[0])
			if err != nil {
				return err
			}
			var profiles []profiling.ColumnProfile
			if column != "" {
				p, err := profiling.ProfileColumn(ds, column)
				if err != nil {
					return err
				}
				profiles = append(profiles, p)
			} else {
				profiles = profiling.ProfileDataset(ds)
			}
			return printTable(cmd.OutOrStdout(), opts.format, profiling.Table(profiles), profiles)
		},
	}
	cmd.Flags().StringVar(&column, "column", "", "Profile only this column")
	return cmd
}

func newReportCmd(opts *options) *cobra.Command {
	var (
		segment string
		top     int
	)
	cmd := &cobra.Command{
		Use:   "report [file]",
		Short: "Run every analysis and print the full report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, analyzer, err := opts.load(args[0])
			if err != nil {
				return err
			}
			r, err := report.Build(cmd.Context(), analyzer, ds, report.Options{
				SegmentColumn: segment,
				TopWords:      top,
				Stopwords:     analysis.DefaultStopwords,
			})
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), opts.format, r)
		},
	}
	cmd.Flags().StringVar(&segment, "segment", "", "Segment column for the overview and question group breakdowns")
	cmd.Flags().IntVar(&top, "top", 20, "Number of words in the text digest")
	return cmd
}
