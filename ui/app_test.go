package ui

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"surveylens/domain/dataset"
	"surveylens/internal/analysis"
	"surveylens/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

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

func newTestApp(t *testing.T, loader DatasetLoader) (*App, *session.Store) {
	t.Helper()
	store := session.NewStore()
	app, err := NewApp(Config{Port: "8081", MaxUploadBytes: 1 << 20}, store, analysis.NewAnalyzer(analysis.DefaultConfig()), loader)
	require.NoError(t, err)
	return app, store
}

func serve(app *App, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.Handler().ServeHTTP(w, req)
	return w
}

func TestIndex(t *testing.T) {
	app, store := newTestApp(t, new(MockLoader))
	store.Put("survey.csv", surveyFixture())

	w := serve(app, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Upload survey data")
	assert.Contains(t, w.Body.String(), "survey.csv")
}

func TestDatasetPage_RedirectsWithoutData(t *testing.T) {
	app, _ := newTestApp(t, new(MockLoader))

	w := serve(app, httptest.NewRequest(http.MethodGet, "/datasets/current", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/?missing=1", w.Header().Get("Location"))
}

func TestDatasetPage(t *testing.T) {
	app, store := newTestApp(t, new(MockLoader))
	entry := store.Put("survey.csv", surveyFixture())

	w := serve(app, httptest.NewRequest(http.MethodGet, "/datasets/"+entry.ID.String()+"?segment=region", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()

	assert.Contains(t, body, "<strong>satisfaction</strong>")
	assert.Contains(t, body, analysis.TitleCorrelation)
	assert.Contains(t, body, "Responses by region")
	assert.Contains(t, body, "Feature by region")
	assert.Contains(t, body, `name="f.region"`)
}

func TestSegmentsFragment(t *testing.T) {
	app, store := newTestApp(t, new(MockLoader))
	store.Put("survey.csv", surveyFixture())

	req := httptest.NewRequest(http.MethodGet, "/datasets/current/segments?segment=region&metric=nps", nil)
	req.Header.Set("HX-Request", "true")
	w := serve(app, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(w.Body.String()), "<table"))
	assert.NotContains(t, w.Body.String(), "<html")

	w = serve(app, httptest.NewRequest(http.MethodGet, "/datasets/current/segments?segment=region&metric=nps", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<html")
}

func TestAnalysisErrors(t *testing.T) {
	app, store := newTestApp(t, new(MockLoader))
	store.Put("survey.csv", surveyFixture())

	w := serve(app, httptest.NewRequest(http.MethodGet, "/datasets/current/segments?segment=region&metric=nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Selected column not found in data.")

	w = serve(app, httptest.NewRequest(http.MethodGet, "/datasets/current/checkbox?checkbox=feature_a&segment=nope", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid column selection")

	w = serve(app, httptest.NewRequest(http.MethodGet, "/datasets/current/groups?prefix=feature&segment=nope", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "No data found for this question group.")
}

func TestUpload(t *testing.T) {
	loader := new(MockLoader)
	loader.On("Load", "survey.csv", mock.Anything).Return(surveyFixture(), nil)
	app, store := newTestApp(t, loader)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "survey.csv")
	require.NoError(t, err)
	_, _ = part.Write([]byte("region,satisfaction\nA,4\n"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := serve(app, req)
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())

	current, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, "/datasets/"+current.ID.String(), w.Header().Get("Location"))
	loader.AssertExpectations(t)
}

func TestUpload_RejectedFile(t *testing.T) {
	loader := new(MockLoader)
	loader.On("Load", "notes.txt", mock.Anything).Return(nil, assert.AnError)
	app, store := newTestApp(t, loader)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("hello"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := serve(app, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.List())
}

func TestFilterAndDelete(t *testing.T) {
	app, store := newTestApp(t, new(MockLoader))
	store.Put("survey.csv", surveyFixture())

	form := url.Values{"f.region": {"B"}}
	req := httptest.NewRequest(http.MethodPost, "/datasets/current/filter", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := serve(app, req)
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())

	current, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, 3, current.Rows)
	assert.Equal(t, "survey.csv (filtered)", current.Name)

	w = serve(app, httptest.NewRequest(http.MethodPost, "/datasets/"+current.ID.String()+"/delete", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Len(t, store.List(), 1)
}

func TestProfilePage(t *testing.T) {
	app, store := newTestApp(t, new(MockLoader))
	store.Put("survey.csv", surveyFixture())

	w := serve(app, httptest.NewRequest(http.MethodGet, "/datasets/current/profile", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Numeric column profiles")
	assert.Contains(t, w.Body.String(), "normality_p")
}

func TestStatic(t *testing.T) {
	app, _ := newTestApp(t, new(MockLoader))

	w := serve(app, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/css")
}
