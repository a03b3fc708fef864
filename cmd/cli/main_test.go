package main

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const surveyCSV = `region,satisfaction,nps,feature_a,feature_b
A,4,8,1,0
A,5,10,0,1
B,3,6,1,1
B,4,7,1,0
B,5,9,0,0
A,2,3,1,1
`

func writeSurvey(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "survey.csv")
	require.NoError(t, os.WriteFile(path, []byte(surveyCSV), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSummaryJSON(t *testing.T) {
	out, err := run(t, "summary", writeSurvey(t), "--format", "json")
	require.NoError(t, err)

	var body map[string][]string
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Contains(t, body["summary"], "**satisfaction**: mean 3.83, std 1.17, count 6")
}

func TestSegmentTable(t *testing.T) {
	out, err := run(t, "segment", writeSurvey(t), "--segment", "region", "--metric", "nps")
	require.NoError(t, err)
	assert.Contains(t, out, "7.3333")
	assert.Contains(t, out, "| A")
}

func TestSegment_Filtered(t *testing.T) {
	out, err := run(t, "segment", writeSurvey(t), "--segment", "region", "--metric", "nps", "--filter", "region=B", "-o", "json")
	require.NoError(t, err)

	var body struct {
		Groups []struct {
			Segment string `json:"segment"`
		} `json:"segment_means"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	require.Len(t, body.Groups, 1)
	assert.Equal(t, "B", body.Groups[0].Segment)
}

func TestSegment_MissingColumn(t *testing.T) {
	_, err := run(t, "segment", writeSurvey(t), "--segment", "region", "--metric", "nope")
	require.Error(t, err)
	assert.Equal(t, "Selected column not found in data.", err.Error())
}

func TestReportYAML(t *testing.T) {
	out, err := run(t, "report", writeSurvey(t), "--segment", "region", "--format", "yaml")
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &body))
	assert.Equal(t, 6, body["rows"])
	assert.Equal(t, "region", body["segment_column"])
}

func TestAdvancedTable(t *testing.T) {
	out, err := run(t, "advanced", writeSurvey(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Correlation Matrix")
	assert.Contains(t, out, "Regression on")
}

func TestDigest_NoTextColumn(t *testing.T) {
	_, err := run(t, "digest", writeSurvey(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No suitable text column")
}

func TestProfile(t *testing.T) {
	out, err := run(t, "profile", writeSurvey(t), "--column", "nps", "-o", "json")
	require.NoError(t, err)

	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "nps", body[0]["column"])
	assert.Equal(t, float64(10), body[0]["max"])
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, "summary", writeSurvey(t), "--format", "xml")
	assert.Error(t, err)
}

func TestParseFilters(t *testing.T) {
	filters, err := parseFilters([]string{"region=A,B", "plan=pro"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"region": {"A", "B"}, "plan": {"pro"}}, filters)

	_, err = parseFilters([]string{"region"})
	assert.Error(t, err)
}

func TestCell(t *testing.T) {
	assert.Equal(t, "n/a", cell(math.NaN()))
	assert.Equal(t, "10", cell(10))
	assert.Equal(t, "0", cell(0))
	assert.Equal(t, "0.5", cell(0.5))
	assert.Equal(t, "7.3333", cell(22.0/3))
}
