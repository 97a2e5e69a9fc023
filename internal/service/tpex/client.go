package tpex

import (
	"context"
	"fmt"
	"strings"
	"time"

	"FinCorr/internal/domain/models"
	dsvc "FinCorr/internal/domain/service"
	pkghttp "FinCorr/pkg/http"
	applogger "FinCorr/pkg/logger"

	"github.com/shopspring/decimal"
)

const (
	providerName = "tpex"
	quotesPath   = "/www/zh-tw/afterTrading/dailyQuotes"
)

// Client fetches the OTC venue's daily quote table.
type Client struct {
	baseURL string
	http    *pkghttp.Client
	l       *applogger.Logger
}

var _ dsvc.DailyQuoteProvider = (*Client)(nil)

func New(baseURL string, httpClient *pkghttp.Client) *Client {
	if httpClient == nil {
		httpClient = pkghttp.NewClient(pkghttp.WithTimeout(10*time.Second), pkghttp.WithUserAgent("Mozilla/5.0"))
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// SetLogger injects a structured logger.
func (c *Client) SetLogger(l *applogger.Logger) { c.l = l }

type quotesResponse struct {
	Date   string `json:"date"`
	Stat   string `json:"stat"`
	Tables []struct {
		Title string          `json:"title"`
		Data  [][]interface{} `json:"data"`
	} `json:"tables"`
}

// FetchDailyQuotes returns every parsable row for date. A non-trading day
// yields an empty slice.
func (c *Client) FetchDailyQuotes(ctx context.Context, date time.Time) ([]models.Quote, error) {
	var resp quotesResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    c.baseURL + quotesPath,
		QueryParams: map[string][]string{
			"date":     {date.Format("2006/01/02")},
			"id":       {""},
			"response": {"json"},
		},
	}, &resp)
	if err != nil {
		return nil, &models.ProviderError{Provider: providerName, Symbol: models.FormatDate(date), Err: err}
	}
	if len(resp.Tables) == 0 || len(resp.Tables[0].Data) == 0 {
		return nil, nil
	}
	return c.parseRows(date, resp.Tables[0].Data), nil
}

// parseRows keeps rows of the form [code, name, close, ...] with a numeric close.
func (c *Client) parseRows(date time.Time, rows [][]interface{}) []models.Quote {
	out := make([]models.Quote, 0, len(rows))
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		code := cell(row[0])
		closeStr := cell(row[2])
		if code == "" || closeStr == "" || closeStr == "-" {
			continue
		}
		px, err := ParseClose(closeStr)
		if err != nil {
			if c.l != nil {
				c.l.Debug("tpex row skipped",
					applogger.Date("date", date),
					applogger.String("code", code),
					applogger.String("close", closeStr),
					applogger.Error(err),
				)
			}
			continue
		}
		out = append(out, models.Quote{Code: code, Name: cell(row[1]), Close: px})
	}
	return out
}

// ParseClose parses a close like "1,085.50" exactly, then converts to float64.
func ParseClose(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return 0, fmt.Errorf("parse close %q: %w", s, err)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("non-positive close %q", s)
	}
	f, _ := d.Float64()
	return f, nil
}

func cell(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
