package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"FinCorr/internal/domain/models"
	dsvc "FinCorr/internal/domain/service"
	pkghttp "FinCorr/pkg/http"
	applogger "FinCorr/pkg/logger"
)

const providerName = "yahoo"

// Client implements HistoryProvider against the Yahoo Finance chart API.
type Client struct {
	baseURL string
	http    *pkghttp.Client
	l       *applogger.Logger
}

var _ dsvc.HistoryProvider = (*Client)(nil)

// New creates a chart API client. baseURL is scheme and host, e.g. https://query1.finance.yahoo.com.
func New(baseURL string, httpClient *pkghttp.Client) *Client {
	if httpClient == nil {
		httpClient = pkghttp.NewClient(pkghttp.WithUserAgent("Mozilla/5.0"))
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// SetLogger injects a structured logger.
func (c *Client) SetLogger(l *applogger.Logger) { c.l = l }

func (c *Client) Name() string { return providerName }

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				GMTOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchHistory returns daily closes for [start, end], ascending, one point per date.
func (c *Client) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]models.PricePoint, error) {
	start, end = models.Day(start), models.Day(end)
	if end.Before(start) {
		return nil, nil
	}

	var chart chartResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, url.PathEscape(symbol)),
		QueryParams: map[string][]string{
			"interval": {"1d"},
			"period1":  {strconv.FormatInt(start.Unix(), 10)},
			"period2":  {strconv.FormatInt(end.AddDate(0, 0, 1).Unix(), 10)},
		},
	}, &chart)
	if err != nil {
		// unknown symbols come back as 404 with a chart error body
		var se *pkghttp.StatusError
		if errors.As(err, &se) && se.StatusCode == 404 {
			return nil, nil
		}
		return nil, &models.ProviderError{Provider: providerName, Symbol: symbol, Err: err}
	}
	if chart.Chart.Error != nil {
		return nil, &models.ProviderError{
			Provider: providerName,
			Symbol:   symbol,
			Err:      fmt.Errorf("api error %s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description),
		}
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := chart.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	byDay := make(map[time.Time]float64, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) {
			break
		}
		if closes[i] == nil || *closes[i] <= 0 {
			continue // null close (holiday, halted)
		}
		cl := *closes[i]
		// bar timestamps are exchange-local session opens
		day := models.Day(time.Unix(ts+result.Meta.GMTOffset, 0).UTC())
		if day.Before(start) || day.After(end) {
			continue
		}
		byDay[day] = cl
	}

	points := make([]models.PricePoint, 0, len(byDay))
	for day, cl := range byDay {
		points = append(points, models.PricePoint{Date: day, Close: cl})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	if c.l != nil {
		c.l.Debug("yahoo history fetched",
			applogger.String("symbol", symbol),
			applogger.Date("start", start),
			applogger.Date("end", end),
			applogger.Int("points", len(points)),
		)
	}
	return points, nil
}
