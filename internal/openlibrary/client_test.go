package openlibrary

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"bookshelf/internal/types"
)

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient(srv.URL, srv.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))
	// Tests should not pace themselves against the real API budget.
	c.Limiter = rate.NewLimiter(rate.Inf, 0)
	return c
}

func TestSearchByTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "dune", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))

		_, _ = w.Write([]byte(`{"docs": [
			{"key": "/works/OL893415W", "title": "Dune", "first_publish_year": 1965,
			 "author_name": ["Frank Herbert"], "cover_i": 11481354,
			 "language": ["eng", "fre"],
			 "subject": ["s1","s2","s3","s4","s5","s6","s7","s8","s9","s10"]},
			{"key": "/works/OL27258W", "title": "Dune Messiah"}
		]}`))
	}))
	defer srv.Close()

	hits, err := newTestClient(srv).SearchByTitle(context.Background(), "dune", 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	first := hits[0]
	assert.Equal(t, "/works/OL893415W", first.ExternalId)
	assert.Equal(t, "Dune", first.Title)
	assert.Equal(t, 1965, first.Year)
	assert.Equal(t, []string{"Frank Herbert"}, first.Authors)
	assert.Equal(t, "eng", first.Language)
	assert.Equal(t, srv.URL+"/b/id/11481354-L.jpg", first.CoverUrl)
	assert.Len(t, first.Subjects, 8)

	second := hits[1]
	assert.Empty(t, second.CoverUrl)
	assert.Empty(t, second.Language)
	assert.Zero(t, second.Year)
}

func TestSearchByTitleEmptyQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("empty query must not reach the network")
	}))
	defer srv.Close()

	hits, err := newTestClient(srv).SearchByTitle(context.Background(), "   ", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchByTitleServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).SearchByTitle(context.Background(), "dune", 5)
	require.Error(t, err)
	assert.Equal(t, int32(retryAttempts), calls.Load())
}

func TestGetJSONRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"docs": [{"key": "/works/OL1W", "title": "T"}]}`))
	}))
	defer srv.Close()

	hits, err := newTestClient(srv).SearchByTitle(context.Background(), "t", 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "no such work", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchEditionData(context.Background(), "/works/OL0W")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchEditionData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/works/OL893415W/editions.json", r.URL.Path)
		_, _ = w.Write([]byte(`{"entries": [
			{"physical_dimensions": "20 x 13 x 2.5 centimeters", "number_of_pages": 412},
			{"number_of_pages": 500}
		]}`))
	}))
	defer srv.Close()

	entries, err := newTestClient(srv).FetchEditionData(context.Background(), "/works/OL893415W")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "20 x 13 x 2.5 centimeters", entries[0].PhysicalDimensions)
	assert.Equal(t, 412, entries[0].NumberOfPages)
}

func TestCoverUrl(t *testing.T) {
	c := &Client{CoversUrl: "https://covers.example.org"}

	assert.Equal(t, "https://covers.example.org/b/id/42-M.jpg", c.CoverUrl(42, "M"))
	assert.Equal(t, "https://covers.example.org/b/id/42-L.jpg", c.CoverUrl(42, ""))
	assert.Empty(t, c.CoverUrl(0, "L"))
}

func TestBuildImportPayload(t *testing.T) {
	hit := types.SearchHit{
		ExternalId: "/works/OL893415W",
		Title:      "Dune",
		Year:       1965,
		Authors:    []string{"Frank Herbert"},
	}

	t.Run("dimensions from the chosen edition", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"entries": [
				{"number_of_pages": 500},
				{"physical_dimensions": "8.5 x 5.5 x 1.2 inches", "number_of_pages": 412}
			]}`))
		}))
		defer srv.Close()

		p := newTestClient(srv).BuildImportPayload(context.Background(), hit)
		assert.Equal(t, "Dune", p.Title)
		assert.Equal(t, 22, p.HeightCm)
		assert.Equal(t, 14, p.WidthCm)
		assert.Equal(t, 3, p.ThicknessCm)
		assert.Equal(t, 412, p.Pages)
	})

	t.Run("thickness estimated from pages", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"entries": [{"number_of_pages": 700}]}`))
		}))
		defer srv.Close()

		p := newTestClient(srv).BuildImportPayload(context.Background(), hit)
		assert.Zero(t, p.HeightCm)
		assert.Zero(t, p.WidthCm)
		// 700 pages * 0.007 cm, rounded to whole centimeters
		assert.Equal(t, 5, p.ThicknessCm)
		assert.Equal(t, 700, p.Pages)
	})

	t.Run("editions failure degrades to metadata only", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusNotFound)
		}))
		defer srv.Close()

		p := newTestClient(srv).BuildImportPayload(context.Background(), hit)
		assert.Equal(t, "Dune", p.Title)
		assert.Equal(t, 1965, p.Year)
		assert.Zero(t, p.HeightCm)
		assert.Zero(t, p.ThicknessCm)
		assert.Zero(t, p.Pages)
	})

	t.Run("no external id skips the editions call", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("hit without external id must not reach the network")
		}))
		defer srv.Close()

		p := newTestClient(srv).BuildImportPayload(context.Background(), types.SearchHit{Title: "Homegrown"})
		assert.Equal(t, "Homegrown", p.Title)
	})
}
