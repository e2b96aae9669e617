package interfaces

import (
	"context"

	"github.com/bobmcallan/stockdash/internal/models"
)

// MarketDataProvider supplies quote, statement, history and news data for a ticker.
type MarketDataProvider interface {
	Resolve(ctx context.Context, symbol string) (models.TickerHandle, error)
	BalanceSheet(ctx context.Context, h models.TickerHandle) (models.RawTable, error)
	IncomeStatement(ctx context.Context, h models.TickerHandle) (models.RawTable, error)
	CashFlow(ctx context.Context, h models.TickerHandle) (models.RawTable, error)
	History(ctx context.Context, h models.TickerHandle, tf models.Timeframe) (models.RawSeries, error)
	FastQuote(ctx context.Context, h models.TickerHandle) (models.FastQuote, error)
	Info(ctx context.Context, h models.TickerHandle) (models.RawInfo, error)
	SearchNews(ctx context.Context, query string, limit int) ([]models.RawNewsItem, error)
}
