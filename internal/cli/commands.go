package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fanwj03/YieldMapper/internal/common"
	"github.com/fanwj03/YieldMapper/internal/models"
	"github.com/fanwj03/YieldMapper/internal/server"
	"github.com/fanwj03/YieldMapper/internal/services/search"
)

// Per-command deadline for one-shot lookups.
const commandTimeout = 2 * time.Minute

func newSearchCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Resolve a security and show its trailing dividend",
		Example: `  yieldmapper search 600519
  yieldmapper search 招商银行 --market HK
  yieldmapper search 700 --market HK --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			query := strings.TrimSpace(args[0])
			if query == "" {
				output.Error("请输入股票名称或代码")
				return fmt.Errorf("empty query")
			}

			marketFlag, _ := cmd.Flags().GetString("market")
			market, err := models.ParseMarket(marketFlag)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			result, err := s.app.SearchService.Search(ctx, query, market)
			if err != nil {
				var notFound *search.NotFoundError
				if errors.As(err, &notFound) && output.IsJSON() {
					output.JSON(map[string]interface{}{"error": notFound.Error(), "errors": []string{}})
				} else {
					output.Error("%v", err)
				}
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}
			printResult(output, result)
			return nil
		},
	}
	cmd.Flags().StringP("market", "m", "A", "market: A or HK")
	return cmd
}

func printResult(output *Output, r *models.QueryResult) {
	output.Bold("%s %s (%s)", r.Symbol, r.Name, r.Market)
	if r.CurrentPrice != nil {
		output.Printf("  Price:     %.3f\n", *r.CurrentPrice)
	} else {
		output.Printf("  Price:     -\n")
	}
	if r.Dividend != nil {
		output.Printf("  Dividend:  %.6f %s\n", *r.Dividend, r.DividendCurrency)
	} else {
		output.Printf("  Dividend:  - %s\n", r.DividendCurrency)
	}
	if y, ok := dividendYield(r); ok {
		output.Printf("  Yield:     %.2f%%\n", y*100)
	}
	if len(r.DividendDates) > 0 {
		output.Printf("  Dates:     %s\n", strings.Join(r.DividendDates, ", "))
	}
	if r.HKDRate != nil {
		output.Printf("  HKD/CNY:   %.6f\n", *r.HKDRate)
	}
	for _, e := range r.Errors {
		output.Warning("  ! %s", e)
	}
}

// dividendYield divides the trailing dividend by the price. Both are quoted
// in the listing currency, so no conversion is needed.
func dividendYield(r *models.QueryResult) (float64, bool) {
	if r.Dividend == nil || r.CurrentPrice == nil || *r.CurrentPrice <= 0 {
		return 0, false
	}
	return *r.Dividend / *r.CurrentPrice, true
}

func newRateCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "rate",
		Short: "Show the HKD/CNY spot rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			rate := s.app.FXService.GetRate(ctx)
			if output.IsJSON() {
				return output.JSON(models.RateResponse{Rate: rate})
			}
			output.Printf("HKD/CNY %.6f\n", rate)
			return nil
		},
	}
}

func newRefreshCacheCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh-cache",
		Short: "Re-fetch the symbol universe regardless of its age",
		Example: `  yieldmapper refresh-cache
  yieldmapper refresh-cache --market HK`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			marketFlag, _ := cmd.Flags().GetString("market")
			markets, err := refreshMarkets(marketFlag)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			counts := make(map[models.Market]int, len(markets))
			var failed error
			for _, market := range markets {
				entries, err := s.app.SymbolCache.Refresh(ctx, market)
				if err != nil {
					output.Error("%s: %v", market, err)
					failed = errors.Join(failed, err)
					continue
				}
				counts[market] = len(entries)
				if !output.IsJSON() {
					output.Success("%s: %d symbols", market, len(entries))
				}
			}

			if output.IsJSON() {
				if err := output.JSON(counts); err != nil {
					return err
				}
			}
			return failed
		},
	}
	cmd.Flags().StringP("market", "m", "all", "market: A, HK or all")
	return cmd
}

func refreshMarkets(flag string) ([]models.Market, error) {
	if strings.EqualFold(strings.TrimSpace(flag), "all") {
		return []models.Market{models.MarketA, models.MarketHK}, nil
	}
	market, err := models.ParseMarket(flag)
	if err != nil {
		return nil, err
	}
	return []models.Market{market}, nil
}

func newWatchlistCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:     "watchlist",
		Aliases: []string{"list"},
		Short:   "List stored watchlist items",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			items, err := s.app.WatchlistService.List(cmd.Context())
			if err != nil {
				output.Error("%v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(items)
			}
			if len(items) == 0 {
				output.Printf("Watchlist is empty\n")
				return nil
			}
			for _, item := range items {
				var symbol, name, market string
				item.Field("symbol", &symbol)
				item.Field("name", &name)
				item.Field("market", &market)
				output.Printf("%-14s %-4s %-8s %s\n", item.ID, market, symbol, name)
			}
			return nil
		},
	}
}

func newServeCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := s.app
			common.PrintBanner(a.Config, a.Logger)
			a.StartWarmCache()

			srv := server.NewServer(a)
			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("HTTP server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			a.Logger.Info().Msg("Shutdown signal received")
			common.PrintShutdownBanner(a.Logger)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
				return err
			}
			a.Logger.Info().Msg("Server stopped")
			return nil
		},
	}
}
