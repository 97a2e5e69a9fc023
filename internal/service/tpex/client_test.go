package tpex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFetchDailyQuotesParsesTable(t *testing.T) {
	var gotDate, gotResponse, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotDate = r.URL.Query().Get("date")
		gotResponse = r.URL.Query().Get("response")
		_, _ = w.Write([]byte(`{
			"date": "20241223",
			"stat": "ok",
			"tables": [{
				"title": "上櫃股票行情",
				"data": [
					["6488", "環球晶", "1,085.50", "+5.00"],
					["5347", "世界", "95.20", "-0.30"],
					["3105", "穩懋", "-", ""],
					["", "空", "10.00"],
					["8299", "群聯"]
				]
			}]
		}`))
	}))
	defer srv.Close()

	quotes, err := New(srv.URL, nil).FetchDailyQuotes(context.Background(), time.Date(2024, 12, 23, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, quotesPath, gotPath)
	require.Equal(t, "2024/12/23", gotDate)
	require.Equal(t, "json", gotResponse)

	require.Len(t, quotes, 2)
	require.Equal(t, "6488", quotes[0].Code)
	require.Equal(t, "環球晶", quotes[0].Name)
	require.Equal(t, 1085.5, quotes[0].Close)
	require.Equal(t, 95.2, quotes[1].Close)
}

func TestFetchDailyQuotesNonTradingDay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"date":"20241221","stat":"ok","tables":[{"data":[]}]}`))
	}))
	defer srv.Close()

	quotes, err := New(srv.URL, nil).FetchDailyQuotes(context.Background(), time.Date(2024, 12, 21, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Empty(t, quotes)
}

func TestParseClose(t *testing.T) {
	f, err := ParseClose(" 12,345.67 ")
	require.NoError(t, err)
	require.Equal(t, 12345.67, f)

	_, err = ParseClose("n/a")
	require.Error(t, err)
	_, err = ParseClose("0")
	require.Error(t, err)
}
