// Package interfaces defines service contracts for YieldMapper
package interfaces

import (
	"context"

	"github.com/fanwj03/YieldMapper/internal/models"
)

// MarketDataClient provides access to the upstream tabular market-data
// functions. Adapters return models.ErrNoData for empty tables,
// *models.SchemaError for unexpected shapes and *models.UpstreamError for
// transport or status failures.
type MarketDataClient interface {
	// GetASpotSymbols returns the A-share (code, name) listing in snapshot order
	GetASpotSymbols(ctx context.Context) ([]models.SymbolEntry, error)

	// GetHKSpotSymbols returns the full HK (code, name) listing
	GetHKSpotSymbols(ctx context.Context) ([]models.SymbolEntry, error)

	// GetHKMainBoardSymbols returns the HK main-board (code, name) listing
	GetHKMainBoardSymbols(ctx context.Context) ([]models.SymbolEntry, error)

	// GetAIndividualInfo returns name and latest price of an A-share code
	GetAIndividualInfo(ctx context.Context, code string) (*models.CanonicalSecurity, error)

	// GetHKSecurityName returns the short name of an HK code
	GetHKSecurityName(ctx context.Context, code string) (string, error)

	// GetHKDailyClose returns the most recent daily close of an HK code
	GetHKDailyClose(ctx context.Context, code string) (float64, error)

	// GetHKHistClose returns the most recent close from the historical series
	GetHKHistClose(ctx context.Context, code string) (float64, error)

	// GetADividendHistory retrieves the A-share dividend history
	GetADividendHistory(ctx context.Context, code string) ([]models.ADividendRow, error)

	// GetHKDividendHistory retrieves the HK payout history
	GetHKDividendHistory(ctx context.Context, code string) ([]models.HKDividendRow, error)

	// GetFXSpotQuotes retrieves the interbank FX spot quote table
	GetFXSpotQuotes(ctx context.Context) (*models.Table, error)

	// GetBOCRates retrieves recent Bank of China quotes for a currency
	GetBOCRates(ctx context.Context, currency string) (*models.Table, error)
}
