package api

import (
	"net/http"
	"strconv"

	"github.com/tasknest-ai/tasknest/internal/chread"
	"go.uber.org/zap"
)

// HistoryListResp is the paginated chat history response.
type HistoryListResp struct {
	Exchanges []chread.HistoryRow `json:"exchanges"`
	Total     int                 `json:"total"`
	Page      int                 `json:"page"`
	PageSize  int                 `json:"page_size"`
}

func (d *Dependencies) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	if d.Reader == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResp{Detail: "ClickHouse not configured"})
		return
	}
	identity := identityFromContext(r.Context())

	q := r.URL.Query()
	page := queryInt(q, "page", 1)
	pageSize := queryInt(q, "page_size", 50)
	if page < 1 {
		page = 1
	}
	if pageSize > 200 {
		pageSize = 200
	}
	if pageSize < 1 {
		pageSize = 50
	}

	exchanges, total, err := d.Reader.ListHistory(r.Context(), identity.UserID, page, pageSize)
	if err != nil {
		d.Logger.Error("failed to list chat history", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to list chat history"})
		return
	}
	if exchanges == nil {
		exchanges = []chread.HistoryRow{}
	}

	writeJSON(w, http.StatusOK, HistoryListResp{
		Exchanges: exchanges,
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
	})
}

func (d *Dependencies) handleChatStats(w http.ResponseWriter, r *http.Request) {
	if d.Reader == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResp{Detail: "ClickHouse not configured"})
		return
	}
	identity := identityFromContext(r.Context())

	days := queryInt(r.URL.Query(), "days", 7)
	if days < 1 {
		days = 1
	}
	if days > 90 {
		days = 90
	}

	stats, err := d.Reader.GetUsageStats(r.Context(), identity.UserID, days)
	if err != nil {
		d.Logger.Error("failed to get chat stats", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to get chat stats"})
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func queryInt(q interface{ Get(string) string }, key string, defaultVal int) int {
	v := q.Get(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}
