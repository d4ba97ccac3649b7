package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/hypecycle/pkg/models"
)

func newTestPatents(url, key string) *PatentsCollector {
	c := NewPatentsCollector(url, key, time.Second)
	c.now = fixedClock
	return c
}

const patents2y = `{"error":false,"count":2,"total_hits":20,"patents":[
 {"patent_id":"11000001","patent_title":"Qubit array","patent_date":"2024-05-01",
  "patent_num_times_cited_by_us_patents":12,
  "assignees":[{"assignee_organization":"IBM","assignee_country":"US"}]},
 {"patent_id":"11000002","patent_title":"Error correction","patent_date":"2025-01-10",
  "patent_num_times_cited_by_us_patents":"8",
  "assignees":[{"assignee_organization":"Google","assignee_country":"US"}]}
]}`

const patents5y = `{"error":false,"count":1,"total_hits":10,"patents":[
 {"patent_id":"10000003","patent_title":"Cryostat","patent_date":"2020-02-02",
  "patent_num_times_cited_by_us_patents":null,
  "assignees":[{"assignee_organization":"IBM","assignee_country":"JP"}]}
]}`

func pvServer(t *testing.T, reply func(w http.ResponseWriter, window string)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/patent/", r.URL.Path)
		assert.Equal(t, "pv-key", r.Header.Get("X-Api-Key"))
		assert.Contains(t, r.URL.Query().Get("f"), "patent_num_times_cited_by_us_patents")
		assert.Equal(t, `{"size":100}`, r.URL.Query().Get("o"))

		q := r.URL.Query().Get("q")
		switch {
		case strings.Contains(q, `"2024-01-01"`) && strings.Contains(q, `"2025-12-31"`):
			reply(w, "2y")
		case strings.Contains(q, `"2019-01-01"`) && strings.Contains(q, `"2023-12-31"`):
			reply(w, "5y")
		case strings.Contains(q, `"2014-01-01"`) && strings.Contains(q, `"2018-12-31"`):
			reply(w, "10y")
		default:
			t.Errorf("unexpected q: %s", q)
		}
	}))
}

func TestPatentsCollect_Metrics(t *testing.T) {
	srv := pvServer(t, func(w http.ResponseWriter, window string) {
		switch window {
		case "2y":
			w.Write([]byte(patents2y))
		case "5y":
			w.Write([]byte(patents5y))
		default:
			w.Write([]byte(`{"error":false,"count":0,"total_hits":5,"patents":[]}`))
		}
	})
	defer srv.Close()

	got, err := newTestPatents(srv.URL, "pv-key").Collect(context.Background(), "quantum computing", nil)
	require.NoError(t, err)
	res := got.(*models.PatentsResult)

	assert.Empty(t, res.Errors)
	assert.Equal(t, 20, res.Patents2y)
	assert.Equal(t, 10, res.Patents5y)
	assert.Equal(t, 5, res.Patents10y)
	assert.Equal(t, 35, res.PatentsTotal)
	assert.Equal(t, 2, res.UniqueAssignees)
	assert.Equal(t, []models.AssigneeCount{{Name: "IBM", PatentCount: 2}, {Name: "Google", PatentCount: 1}}, res.TopAssignees)
	assert.Equal(t, map[string]int{"US": 2, "JP": 1}, res.Countries)
	assert.Equal(t, 2, res.GeographicDiversity)
	assert.InDelta(t, 10.0, res.AvgCitations2y, 1e-9)
	assert.InDelta(t, 0.0, res.AvgCitations5y, 1e-9)
	assert.InDelta(t, 4.0, res.FilingVelocity, 1e-9)
	assert.Equal(t, "diverse", res.AssigneeConcentration)
	assert.Equal(t, "regional", res.GeographicReach)
	assert.Equal(t, "developing", res.PatentMaturity)
	assert.Equal(t, "accelerating", res.PatentMomentum)
	assert.Equal(t, "increasing", res.PatentTrend)

	require.Len(t, res.TopPatents, 3)
	assert.Equal(t, "11000001", res.TopPatents[0].PatentNumber)
	assert.Equal(t, 8, res.TopPatents[1].Citations)
	assert.Equal(t, models.Patent{
		PatentNumber: "10000003", Title: "Cryostat", Date: "2020-02-02", Assignee: "IBM", Country: "JP",
	}, res.TopPatents[2])
}

func TestPatentsCollect_MissingAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without an API key")
	}))
	defer srv.Close()

	got, err := newTestPatents(srv.URL, "").Collect(context.Background(), "quantum computing", nil)
	require.NoError(t, err)
	res := got.(*models.PatentsResult)

	assert.Equal(t, []string{"Missing PatentsView API key", "All API requests failed"}, res.Errors)
	assert.Equal(t, "unknown", res.PatentMaturity)
	assert.NotNil(t, res.Countries)
}

func TestPatentsCollect_ErrorStrings(t *testing.T) {
	srv := pvServer(t, func(w http.ResponseWriter, window string) {
		switch window {
		case "2y":
			w.WriteHeader(http.StatusUnauthorized)
		case "5y":
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.Write([]byte(`{"error":true}`))
		}
	})
	defer srv.Close()

	got, err := newTestPatents(srv.URL, "pv-key").Collect(context.Background(), "quantum computing", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Authentication failed - invalid API key",
		"Rate limited (retry after 30s)",
		"API returned error flag",
		"All API requests failed",
	}, got.CollectionErrors())
}

func TestPatentsCollect_ExpandedTermsInQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		assert.Contains(t, q, `{"_text_all":{"patent_title":"zk rollups"}}`)
		assert.Contains(t, q, `{"_text_all":{"patent_abstract":"validity proofs"}}`)
		w.Write([]byte(`{"total_hits":1,"patents":[]}`))
	}))
	defer srv.Close()

	got, err := newTestPatents(srv.URL, "pv-key").Collect(context.Background(), "zk rollups", []string{"validity proofs"})
	require.NoError(t, err)
	assert.Equal(t, 3, got.(*models.PatentsResult).PatentsTotal)
}

func TestPatentLabels(t *testing.T) {
	assert.Equal(t, "unknown", assigneeConcentration(nil, 10))
	assert.Equal(t, "concentrated", assigneeConcentration(map[string]int{"A": 6}, 10))
	assert.Equal(t, "moderate", assigneeConcentration(map[string]int{"A": 2, "B": 1, "C": 1, "D": 1}, 10))

	assert.Equal(t, "unknown", geographicReach(map[string]int{}))
	assert.Equal(t, "domestic", geographicReach(map[string]int{"US": 99, "DE": 1}))
	assert.Equal(t, "global", geographicReach(map[string]int{"US": 1, "DE": 1, "JP": 1, "CN": 1}))

	assert.Equal(t, "mature", patentMaturity(600, 0))
	assert.Equal(t, "emerging", patentMaturity(10, 1))
}
