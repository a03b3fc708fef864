package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"surveylens/domain/dataset"
	"surveylens/internal/analysis"
	"surveylens/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockLoader records uploads and returns a canned dataset
type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) Load(name string, src io.Reader) (*dataset.Dataset, error) {
	args := m.Called(name, src)
	ds, _ := args.Get(0).(*dataset.Dataset)
	return ds, args.Error(1)
}

func surveyFixture() *dataset.Dataset {
	return dataset.MustNew(
		dataset.NewTextColumn("region", []string{"A", "A", "B", "B", "B", "A"}),
		dataset.NewNumericColumn("satisfaction", []float64{4, 5, 3, 4, 5, 2}),
		dataset.NewNumericColumn("nps", []float64{8, 10, 6, 7, 9, 3}),
		dataset.NewNumericColumn("feature_a", []float64{1, 0, 1, 1, 0, 1}),
		dataset.NewNumericColumn("feature_b", []float64{0, 1, 1, 0, 0, 1}),
	)
}

func newTestServer(t *testing.T, loader DatasetLoader) (*Server, *session.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := session.NewStore()
	hub := NewSSEHub()
	t.Cleanup(hub.Close)
	return NewServer(store, analysis.NewAnalyzer(analysis.DefaultConfig()), loader, hub, 1<<20), store
}

func do(t *testing.T, s *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestUpload(t *testing.T) {
	loader := new(MockLoader)
	loader.On("Load", "survey.csv", mock.Anything).Return(surveyFixture(), nil)
	s, store := newTestServer(t, loader)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "survey.csv")
	require.NoError(t, err)
	_, _ = part.Write([]byte("region,satisfaction\nA,4\n"))
	require.NoError(t, mw.Close())

	w := do(t, s, http.MethodPost, "/datasets", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "survey.csv", body["name"])
	assert.Equal(t, float64(6), body["rows"])

	loader.AssertExpectations(t)
	_, err = store.Current()
	assert.NoError(t, err)
}

func TestUpload_MissingFile(t *testing.T) {
	s, _ := newTestServer(t, new(MockLoader))
	w := do(t, s, http.MethodPost, "/datasets", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w), "error")
}

func TestNoDataset(t *testing.T) {
	s, _ := newTestServer(t, new(MockLoader))
	w := do(t, s, http.MethodGet, "/datasets/current/summary", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSummary(t *testing.T) {
	s, store := newTestServer(t, new(MockLoader))
	store.Put("survey.csv", surveyFixture())

	w := do(t, s, http.MethodGet, "/datasets/current/summary", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode(t, w)["summary"].([]interface{})
	assert.Contains(t, summary, "**satisfaction**: mean 3.83, std 1.17, count 6")
}

func TestSegmentAnalysis(t *testing.T) {
	s, store := newTestServer(t, new(MockLoader))
	entry := store.Put("survey.csv", surveyFixture())

	w := do(t, s, http.MethodGet, "/datasets/"+entry.ID.String()+"/segments?segment=region&metric=nps", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode(t, w)["result"].(map[string]interface{})
	groups := result["segment_means"].([]interface{})
	require.Len(t, groups, 2)
	assert.Equal(t, "A", groups[0].(map[string]interface{})["segment"])
	assert.InDelta(t, 7.0, groups[0].(map[string]interface{})["mean"], 1e-9)

	w = do(t, s, http.MethodGet, "/datasets/current/segments?segment=region&metric=nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Selected column not found in data.", decode(t, w)["error"])
}

func TestCheckboxEndpoints(t *testing.T) {
	s, store := newTestServer(t, new(MockLoader))
	store.Put("survey.csv", surveyFixture())

	w := do(t, s, http.MethodGet, "/datasets/current/checkbox?checkbox=feature_a&segment=nope", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid column selection", decode(t, w)["error"])

	w = do(t, s, http.MethodGet, "/datasets/current/checkbox-groups", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	groups := decode(t, w)["groups"].([]interface{})
	require.Len(t, groups, 1)
	assert.Equal(t, "feature", groups[0].(map[string]interface{})["prefix"])

	w = do(t, s, http.MethodGet, "/datasets/current/checkbox-groups/feature?segment=region", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode(t, w)["result"].(map[string]interface{})["rows"].([]interface{})
	assert.Len(t, rows, 4)

	w = do(t, s, http.MethodGet, "/datasets/current/checkbox-groups/feature?segment=nope", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAdvanced(t *testing.T) {
	s, store := newTestServer(t, new(MockLoader))
	store.Put("survey.csv", surveyFixture())

	w := do(t, s, http.MethodPost, "/datasets/current/advanced", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, false, body["insufficient"])
	sections := body["result"].(map[string]interface{})["sections"].([]interface{})
	assert.Equal(t, analysis.TitleCorrelation, sections[0].(map[string]interface{})["title"])
}

func TestFilter(t *testing.T) {
	s, store := newTestServer(t, new(MockLoader))
	store.Put("survey.csv", surveyFixture())

	w := do(t, s, http.MethodPost, "/datasets/current/filter", bytes.NewBufferString(`{"filters":{"region":["B"]}}`), "application/json")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, float64(3), body["rows"])
	assert.Equal(t, "survey.csv (filtered)", body["name"])

	current, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, 3, current.Rows)
	assert.Len(t, store.List(), 2)
}

func TestColumnsAndValues(t *testing.T) {
	s, store := newTestServer(t, new(MockLoader))
	store.Put("survey.csv", surveyFixture())

	w := do(t, s, http.MethodGet, "/datasets/current/columns", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["columns"].([]interface{}), 5)

	w = do(t, s, http.MethodGet, "/datasets/current/columns/region/values", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"A", "B"}, decode(t, w)["values"])
}

func TestTextDigest_NoTextColumn(t *testing.T) {
	s, store := newTestServer(t, new(MockLoader))
	store.Put("survey.csv", surveyFixture())

	w := do(t, s, http.MethodGet, "/datasets/current/text-digest", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestReport(t *testing.T) {
	s, store := newTestServer(t, new(MockLoader))
	store.Put("survey.csv", surveyFixture())

	w := do(t, s, http.MethodGet, "/datasets/current/report?segment=region", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, float64(6), body["rows"])
	assert.NotEmpty(t, body["summary"])
	assert.NotNil(t, body["segment_overview"])
}

func TestDelete(t *testing.T) {
	s, store := newTestServer(t, new(MockLoader))
	entry := store.Put("survey.csv", surveyFixture())

	w := do(t, s, http.MethodDelete, "/datasets/"+entry.ID.String(), nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, s, http.MethodGet, "/datasets/"+entry.ID.String(), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodGet, "/datasets/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfile(t *testing.T) {
	s, store := newTestServer(t, new(MockLoader))
	store.Put("survey.csv", surveyFixture())

	w := do(t, s, http.MethodGet, "/datasets/current/columns/nps/profile", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	profile := decode(t, w)["profile"].(map[string]interface{})
	assert.Equal(t, float64(6), profile["count"])
	assert.Equal(t, float64(3), profile["min"])

	w = do(t, s, http.MethodGet, "/datasets/current/columns/region/profile", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/datasets/current/profile", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["profiles"].([]interface{}), 4)
}
