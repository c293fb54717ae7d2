package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/leaseup/internal/dataset"
	"github.com/KaramelBytes/leaseup/internal/insight"
	"github.com/KaramelBytes/leaseup/internal/stats"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeGenerator struct {
	calls int
	last  stats.Summary
	res   *insight.Result
	err   error
}

func (f *fakeGenerator) Generate(_ context.Context, s stats.Summary) (*insight.Result, error) {
	f.calls++
	f.last = s
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

func (f *fakeGenerator) Model() string { return "gpt-4o-mini" }

func testTable() *dataset.Table {
	return dataset.NewTable([]dataset.Record{
		{ProjID: "A", RentAtDelivery: 1000, AgeAtDelivery: 1, SeasonOfDelivery: "Winter", SubmarketCompetition: 2, AvgOcc3Mo: 0.8, TSNE1: 1, TSNE2: 2, Cluster: 0},
		{ProjID: "B", RentAtDelivery: 1200, AgeAtDelivery: 3, SeasonOfDelivery: "Winter", SubmarketCompetition: 4, AvgOcc3Mo: 0.6, TSNE1: 2, TSNE2: 3, Cluster: 0},
		{ProjID: "C", RentAtDelivery: math.NaN(), AgeAtDelivery: 5, SeasonOfDelivery: "Summer", SubmarketCompetition: 1, AvgOcc3Mo: 0.9, TSNE1: -1, TSNE2: 0, Cluster: 1},
		{ProjID: "D", RentAtDelivery: 1500, AgeAtDelivery: 2, SeasonOfDelivery: "Summer", SubmarketCompetition: 3, AvgOcc3Mo: 0.7, TSNE1: -2, TSNE2: 1, Cluster: 2},
	})
}

func newTestServer(gen InsightGenerator) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(testTable(), gen, Options{DatasetName: "test.csv", Logger: logger})
}

func do(t *testing.T, s *Server, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestSeasonsStartWithAll(t *testing.T) {
	w := do(t, newTestServer(nil), http.MethodGet, "/api/seasons", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"All", "Winter", "Summer"}, decode(t, w)["seasons"])
}

func TestClustersFollowSeason(t *testing.T) {
	s := newTestServer(nil)

	w := do(t, s, http.MethodGet, "/api/clusters", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{0.0, 1.0, 2.0}, decode(t, w)["clusters"])

	w = do(t, s, http.MethodGet, "/api/clusters?season=Summer", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{1.0, 2.0}, decode(t, w)["clusters"])
}

func TestRecordsFilteredAndNullForMissing(t *testing.T) {
	s := newTestServer(nil)
	w := do(t, s, http.MethodGet, "/api/records?season=Summer", "")
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, 2.0, out["count"])
	recs := out["records"].([]any)
	require.Len(t, recs, 2)
	first := recs[0].(map[string]any)
	assert.Equal(t, "C", first["proj_id"])
	assert.Nil(t, first["rent_at_delivery"])
	assert.Equal(t, 5.0, first["age_at_delivery"])

	w = do(t, s, http.MethodGet, "/api/records?season=Spring", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, decode(t, w)["count"])
}

func TestSummaryResetsStaleCluster(t *testing.T) {
	w := do(t, newTestServer(nil), http.MethodGet, "/api/summary?season=Summer&cluster=0", "")
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, true, out["reset"])
	assert.Equal(t, 0.0, out["requested"])
	assert.Equal(t, 1.0, out["cluster"])
	sum := out["summary"].(map[string]any)
	assert.Equal(t, 1.0, sum["size"])
	assert.Equal(t, "Summer", sum["dominant_season"])
}

func TestSummaryOfCluster(t *testing.T) {
	w := do(t, newTestServer(nil), http.MethodGet, "/api/summary?cluster=0", "")
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, false, out["reset"])
	sum := out["summary"].(map[string]any)
	assert.Equal(t, 2.0, sum["size"])
	rent := sum["rent"].(map[string]any)
	assert.InDelta(t, 1100, rent["mean"], 1e-9)
	assert.InDelta(t, 141.42, rent["std"], 0.01)

	desc := out["describe"].(map[string]any)
	assert.Equal(t, 2.0, desc["rows"])
	cols := desc["columns"].([]any)
	require.Len(t, cols, len(dataset.NumericColumns))
	assert.Equal(t, "RentAtDelivery", cols[0].(map[string]any)["column"])
}

func TestSummaryEmptySeason(t *testing.T) {
	w := do(t, newTestServer(nil), http.MethodGet, "/api/summary?season=Spring", "")
	require.Equal(t, http.StatusOK, w.Code)
	sum := decode(t, w)["summary"].(map[string]any)
	assert.Equal(t, 0.0, sum["size"])
	assert.Equal(t, stats.NotAvailable, sum["dominant_season"])
	assert.Nil(t, sum["age"].(map[string]any)["mean"])
}

func TestBadClusterParam(t *testing.T) {
	w := do(t, newTestServer(nil), http.MethodGet, "/api/summary?cluster=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInsightSuccess(t *testing.T) {
	gen := &fakeGenerator{res: &insight.Result{ID: "x", Cluster: 1, Model: "gpt-4o-mini", Text: "Cluster 1 leases up fast."}}
	w := do(t, newTestServer(gen), http.MethodPost, "/api/insight", `{"season":"Summer","cluster":1}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode(t, w)
	assert.Equal(t, "Summer", out["season"])
	assert.Equal(t, false, out["reset"])
	assert.Equal(t, "Cluster 1 leases up fast.", out["result"].(map[string]any)["text"])
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, 1, gen.last.Cluster)
	assert.Equal(t, 1, gen.last.Size)
}

func TestInsightUsesResolvedCluster(t *testing.T) {
	gen := &fakeGenerator{res: &insight.Result{Text: "ok"}}
	w := do(t, newTestServer(gen), http.MethodPost, "/api/insight", `{"season":"Summer","cluster":0}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["reset"])
	assert.Equal(t, 1, gen.last.Cluster)
}

func TestInsightFailures(t *testing.T) {
	cases := []struct {
		kind insight.Kind
		want int
	}{
		{insight.KindTimeout, http.StatusGatewayTimeout},
		{insight.KindAuth, http.StatusUnauthorized},
		{insight.KindRateLimited, http.StatusTooManyRequests},
		{insight.KindProvider, http.StatusBadGateway},
		{insight.KindMalformed, http.StatusBadGateway},
	}
	for _, c := range cases {
		gen := &fakeGenerator{err: &insight.Error{Kind: c.kind, Err: errors.New("boom")}}
		w := do(t, newTestServer(gen), http.MethodPost, "/api/insight", `{"cluster":0}`)
		assert.Equal(t, c.want, w.Code, string(c.kind))
		out := decode(t, w)
		assert.Equal(t, string(c.kind), out["kind"])
		assert.NotEmpty(t, out["error"])
	}
}

func TestInsightNotConfigured(t *testing.T) {
	// untyped nil so the interface value is nil
	w := do(t, newTestServer(nil), http.MethodPost, "/api/insight", `{"cluster":0}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestInsightBadBody(t *testing.T) {
	gen := &fakeGenerator{}
	w := do(t, newTestServer(gen), http.MethodPost, "/api/insight", `{"cluster":"zero"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, gen.calls)
}

func TestChartPNG(t *testing.T) {
	w := do(t, newTestServer(nil), http.MethodGet, "/chart.png?season=Winter", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))
}

func TestChartHTML(t *testing.T) {
	w := do(t, newTestServer(nil), http.MethodGet, "/chart", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "echarts")
	assert.Contains(t, body, "Cluster 2")
}

func TestIndexPage(t *testing.T) {
	gen := &fakeGenerator{}
	w := do(t, newTestServer(gen), http.MethodGet, "/?season=Winter", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	assert.Contains(t, body, "Property Lease-Up Dashboard")
	assert.Contains(t, body, "Generate GPT Insight")
	assert.Contains(t, body, "How It Works")
	assert.Contains(t, body, "<td>A</td>")
	assert.NotContains(t, body, "<td>C</td>")
	assert.Contains(t, body, "gpt-4o-mini")
	// both failure branches hide an earlier insight
	assert.Equal(t, 2, strings.Count(body, "out.hidden = true;"))
}

func TestIndexWithoutGeneratorDisablesButton(t *testing.T) {
	w := do(t, newTestServer(nil), http.MethodGet, "/?season=Summer&cluster=0", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Insight generation is not configured")
	assert.Contains(t, body, "showing cluster 1 instead")
}
