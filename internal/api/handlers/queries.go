package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/ramonehamilton/palico-bot/internal/api/response"
	"github.com/ramonehamilton/palico-bot/internal/storage"
)

// QueryLog lists served queries.
type QueryLog interface {
	RecentQueries(ctx context.Context, limit int) ([]*storage.QueryRecord, error)
}

// QueryHandler handles query log requests.
type QueryHandler struct {
	log QueryLog
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(log QueryLog) *QueryHandler {
	return &QueryHandler{log: log}
}

// GetRecent returns the newest served queries, ?limit= capped at 500.
func (h *QueryHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	if h.log == nil {
		response.ServiceUnavailable(w, errors.New("query log is disabled"))
		return
	}

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			response.BadRequest(w, errors.New("limit must be a positive integer"))
			return
		}
		limit = min(n, 500)
	}

	records, err := h.log.RecentQueries(r.Context(), limit)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, records)
}
