// Handler for miscellaneous endpoints such as health check

package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yumyai/straincomp/pkg/db"
)

type HealthResponse struct {
	Health    string    `json:"health"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

func (dbctx *DBContext) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Health:    "ok",
		Database:  "ok",
		Timestamp: time.Now(),
	}

	status := http.StatusOK
	if dbctx.DB == nil || dbctx.DB.PingContext(r.Context()) != nil {
		response.Health = "degraded"
		response.Database = "unavailable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// Genomes lists the strains in table column order.
func (dbctx *DBContext) Genomes(w http.ResponseWriter, r *http.Request) {
	genomes, err := db.GetGenomes(r.Context(), dbctx.DB)
	if err != nil {
		loggerFrom(r).Error("Query genomes", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if genomes == nil {
		genomes = []*db.GenomeInfo{}
	}
	writeJSON(w, http.StatusOK, genomes)
}
