package handler

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/yumyai/straincomp/pkg/db"
)

const (
	defaultPageSize   = 100
	defaultPageNumber = 1
	maxPageSize       = 1000
)

type SearchResponse struct {
	Clusters []*db.ClusterProperty `json:"clusters"`
	Total    int                   `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

func parsePositiveIntFallback(v string, fallback int) int {
	num, err := strconv.Atoi(v)
	if err != nil || num <= 0 {
		return fallback
	}
	return num
}

// Search serves GET /api/v1/search?q=..&page=..&page_size=..
func (dbctx *DBContext) Search(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	page := parsePositiveIntFallback(r.URL.Query().Get("page"), defaultPageNumber)
	pageSize := min(parsePositiveIntFallback(r.URL.Query().Get("page_size"), defaultPageSize), maxPageSize)

	loggerFrom(r).Debug("Running search",
		zap.String("searchterm", term),
		zap.Int("page", page),
		zap.Int("page_size", pageSize))

	clusters, total, err := db.SearchClusters(r.Context(), dbctx.DB, term, page, pageSize)
	if err != nil {
		loggerFrom(r).Error("Search clusters", zap.String("searchterm", term), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{
		Clusters: clusters,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}
