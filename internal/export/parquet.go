package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"FinCorr/internal/domain/models"
	domrepo "FinCorr/internal/domain/repository"
	applogger "FinCorr/pkg/logger"

	"github.com/parquet-go/parquet-go"
)

// Row is one exported daily close.
type Row struct {
	Date   string  `parquet:"date"`
	Close  float64 `parquet:"close"`
	Source string  `parquet:"source,dict"`
}

// ParquetExporter writes cached series to parquet files.
type ParquetExporter struct {
	store domrepo.TimeSeriesStore
	l     *applogger.Logger
}

func NewParquetExporter(store domrepo.TimeSeriesStore) *ParquetExporter {
	return &ParquetExporter{store: store}
}

// SetLogger injects a structured logger.
func (e *ParquetExporter) SetLogger(l *applogger.Logger) { e.l = l }

func (*ParquetExporter) Extension() string { return "parquet" }

// Export writes the last n points of symbol to dir/<symbol>.parquet and
// returns the file path and row count.
func (e *ParquetExporter) Export(ctx context.Context, symbol string, n int, dir string) (string, int, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	points, err := e.store.Tail(ctx, symbol, n)
	if err != nil {
		return "", 0, err
	}
	if len(points) == 0 {
		return "", 0, models.NotFoundError(symbol)
	}

	rows := make([]Row, len(points))
	for i, p := range points {
		rows[i] = Row{Date: models.FormatDate(p.Date), Close: p.Close, Source: string(p.Source)}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, symbol+"."+e.Extension())
	if err := parquet.WriteFile(path, rows); err != nil {
		return "", 0, fmt.Errorf("write parquet: %w", err)
	}

	if e.l != nil {
		e.l.Info("series exported",
			applogger.String("symbol", symbol),
			applogger.String("path", path),
			applogger.Int("rows", len(rows)),
		)
	}
	return path, len(rows), nil
}
