package analysis

import "surveylens/domain/dataset"

// defaultAnalyzer backs the package-level functions. It runs in place, so the
// metric coercion and the cluster column stay visible on the caller's dataset.
var defaultAnalyzer = NewAnalyzer(InPlaceConfig())

// GenerateSummary runs Analyzer.GenerateSummary in place
func GenerateSummary(ds *dataset.Dataset) []string {
	return defaultAnalyzer.GenerateSummary(ds)
}

// PerformSegmentAnalysis runs Analyzer.PerformSegmentAnalysis in place
func PerformSegmentAnalysis(ds *dataset.Dataset, segmentCol, metricCol string) (*dataset.SegmentResult, error) {
	return defaultAnalyzer.PerformSegmentAnalysis(ds, segmentCol, metricCol)
}

// AnalyzeCheckboxBySegment runs Analyzer.AnalyzeCheckboxBySegment
func AnalyzeCheckboxBySegment(ds *dataset.Dataset, checkboxCol, segmentCol string) (*dataset.CheckboxSegmentResult, error) {
	return defaultAnalyzer.AnalyzeCheckboxBySegment(ds, checkboxCol, segmentCol)
}

// RunAdvancedAnalysis runs Analyzer.RunAdvancedAnalysis in place
func RunAdvancedAnalysis(ds *dataset.Dataset) *dataset.AdvancedResult {
	return defaultAnalyzer.RunAdvancedAnalysis(ds)
}

// GenerateTextDigest runs Analyzer.GenerateTextDigest
func GenerateTextDigest(ds *dataset.Dataset) (*FrequencyDistribution, string) {
	return defaultAnalyzer.GenerateTextDigest(ds)
}
