package api

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"car-scout/models"
)

// Searcher runs one search end to end. *services.Searcher implements it.
type Searcher interface {
	Search(ctx context.Context, req models.SearchRequest) (models.SearchResponse, error)
}

type Handler struct {
	Searcher Searcher
	Reporter ErrorReporter
	Logger   *zap.Logger
}

type errorBody struct {
	Error string `json:"error"`
}

// searchBody is the wire form of a search. maxPrice may be any JSON number;
// fractions are truncated.
type searchBody struct {
	Scenario string   `json:"scenario"`
	MaxPrice *float64 `json:"maxPrice"`
	ZipCode  *string  `json:"zipCode"`
}

// maxWirePrice bounds maxPrice so the int conversion cannot overflow.
const maxWirePrice = 1e12

func (b searchBody) request() models.SearchRequest {
	req := models.SearchRequest{Scenario: b.Scenario, ZipCode: b.ZipCode}
	if b.MaxPrice != nil && *b.MaxPrice >= 1 && *b.MaxPrice < maxWirePrice {
		p := int(*b.MaxPrice)
		req.MaxPrice = &p
	}
	return req
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req := body.request()

	// A search runs to completion once accepted.
	ctx := context.WithoutCancel(r.Context())
	resp, err := h.Searcher.Search(ctx, req)
	if err != nil {
		h.Logger.Error("search failed", zap.Error(err))
		h.Reporter.Report(ctx, err, map[string]string{"route": "search"})
		writeError(w, http.StatusInternalServerError, "Search failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
