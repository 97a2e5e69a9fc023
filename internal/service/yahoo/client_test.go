package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"FinCorr/internal/domain/models"
	pkghttp "FinCorr/pkg/http"

	"github.com/stretchr/testify/require"
)

// 2024-12-23 and 2024-12-24 09:00 Asia/Taipei, plus a null bar on 12-25.
const chartBody = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "2330.TW", "gmtoffset": 28800},
      "timestamp": [1734915600, 1735002000, 1735088400, 1735002000],
      "indicators": {"quote": [{"close": [1085.0, 1090.5, null, 1091.0]}]}
    }],
    "error": null
  }
}`

func TestFetchHistoryParsesChart(t *testing.T) {
	var gotPath, gotUA, gotInterval string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		gotInterval = r.URL.Query().Get("interval")
		_, _ = w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	c := New(srv.URL, pkghttp.NewClient(pkghttp.WithUserAgent("ua-test")))
	start := time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 27, 0, 0, 0, 0, time.UTC)

	pts, err := c.FetchHistory(context.Background(), "2330.TW", start, end)
	require.NoError(t, err)
	require.Equal(t, "/v8/finance/chart/2330.TW", gotPath)
	require.Equal(t, "ua-test", gotUA)
	require.Equal(t, "1d", gotInterval)

	require.Len(t, pts, 2)
	require.Equal(t, time.Date(2024, 12, 23, 0, 0, 0, 0, time.UTC), pts[0].Date)
	require.Equal(t, 1085.0, pts[0].Close)
	// duplicate bar for the same session keeps the later value
	require.Equal(t, time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC), pts[1].Date)
	require.Equal(t, 1091.0, pts[1].Close)
}

func TestFetchHistoryIntegerCloses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"gmtoffset":28800},` +
			`"timestamp":[1734915600,1735002000,1735088400],` +
			`"indicators":{"quote":[{"close":[1085,null,0]}]}}],"error":null}}`))
	}))
	defer srv.Close()

	start := time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 27, 0, 0, 0, 0, time.UTC)
	pts, err := New(srv.URL, nil).FetchHistory(context.Background(), "2330.TW", start, end)
	require.NoError(t, err)
	require.Equal(t, []models.PricePoint{{Date: time.Date(2024, 12, 23, 0, 0, 0, 0, time.UTC), Close: 1085}}, pts)
}

func TestFetchHistoryUnknownSymbolIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	pts, err := New(srv.URL, nil).FetchHistory(context.Background(), "0000.TW", time.Now().AddDate(0, 0, -7), time.Now())
	require.NoError(t, err)
	require.Empty(t, pts)
}

func TestFetchHistoryServerErrorIsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).FetchHistory(context.Background(), "2330.TW", time.Now().AddDate(0, 0, -7), time.Now())
	var pe *models.ProviderError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, "yahoo", pe.Provider)
	require.Equal(t, "2330.TW", pe.Symbol)
}
