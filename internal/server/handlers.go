package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fanwj03/YieldMapper/internal/models"
	"github.com/fanwj03/YieldMapper/internal/services/search"
)

// MsgEmptyQuery is returned when a search carries no query text.
const MsgEmptyQuery = "请输入股票名称或代码"

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Query  string `json:"query"`
	Market string `json:"market"`
}

// handleSearch handles POST /api/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req SearchRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		WriteError(w, http.StatusBadRequest, MsgEmptyQuery)
		return
	}

	market, err := models.ParseMarket(req.Market)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.app.SearchService.Search(r.Context(), query, market)
	if err != nil {
		var notFound *search.NotFoundError
		if errors.As(err, &notFound) {
			WriteJSON(w, http.StatusNotFound, NotFoundResponse{Error: notFound.Error(), Errors: []string{}})
			return
		}
		s.logger.Error().Err(err).Str("query", query).Msg("Search failed")
		WriteError(w, http.StatusInternalServerError, "Search failed: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// handleHKDRate handles GET /api/hkd_rate.
func (s *Server) handleHKDRate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, models.RateResponse{Rate: s.app.FXService.GetRate(r.Context())})
}

// handleStocks handles GET and POST /api/stocks.
func (s *Server) handleStocks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleStockList(w, r)
	case http.MethodPost:
		s.handleStockAdd(w, r)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// routeStocks dispatches /api/stocks/{id}.
func (s *Server) routeStocks(w http.ResponseWriter, r *http.Request) {
	id := PathParam(r, "/api/stocks/", "")
	if id == "" {
		s.handleStocks(w, r)
		return
	}

	switch r.Method {
	case http.MethodPut:
		s.handleStockUpdate(w, r, id)
	case http.MethodDelete:
		s.handleStockDelete(w, r, id)
	default:
		RequireMethod(w, r, http.MethodPut, http.MethodDelete)
	}
}

func (s *Server) handleStockList(w http.ResponseWriter, r *http.Request) {
	items, err := s.app.WatchlistService.List(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Watchlist load failed")
		WriteError(w, http.StatusInternalServerError, "Watchlist load failed: "+err.Error())
		return
	}
	if items == nil {
		items = []models.WatchlistItem{}
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) handleStockAdd(w http.ResponseWriter, r *http.Request) {
	var item models.WatchlistItem
	if !DecodeJSON(w, r, &item) {
		return
	}

	added, err := s.app.WatchlistService.Add(r.Context(), &item)
	if err != nil {
		s.logger.Error().Err(err).Msg("Watchlist add failed")
		WriteError(w, http.StatusInternalServerError, "Watchlist add failed: "+err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, added)
}

func (s *Server) handleStockUpdate(w http.ResponseWriter, r *http.Request, id string) {
	var update models.WatchlistItem
	if !DecodeJSON(w, r, &update) {
		return
	}

	if err := s.app.WatchlistService.Update(r.Context(), id, &update); err != nil {
		s.logger.Error().Err(err).Str("id", id).Msg("Watchlist update failed")
		WriteError(w, http.StatusInternalServerError, "Watchlist update failed: "+err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func (s *Server) handleStockDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.app.WatchlistService.Delete(r.Context(), id); err != nil {
		s.logger.Error().Err(err).Str("id", id).Msg("Watchlist delete failed")
		WriteError(w, http.StatusInternalServerError, "Watchlist delete failed: "+err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
